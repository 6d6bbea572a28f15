package venuesearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/db"
	dbRedis "github.com/sahraevent/venuesearch/internal/db/redis"
	"github.com/sahraevent/venuesearch/internal/db/sqlite"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/ingest"
	"github.com/sahraevent/venuesearch/internal/repository/answercache"
	"github.com/sahraevent/venuesearch/internal/repository/dualindex"
	openaiTransport "github.com/sahraevent/venuesearch/internal/transport/openai"
	"github.com/sahraevent/venuesearch/internal/transport/reranker"
	healthuc "github.com/sahraevent/venuesearch/internal/usecase/health"
	"github.com/sahraevent/venuesearch/internal/usecase/llm"
	"github.com/sahraevent/venuesearch/internal/usecase/pipeline"
	"github.com/sahraevent/venuesearch/internal/usecase/retrieval"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	answerTTL               = 24 * time.Hour
	answerCapacity          = 256
	resultTTL               = 6 * time.Hour
	resultCapacity          = 512
	queryTTL                = 24 * time.Hour
	queryCapacity           = 1024
)

// Internal interfaces, swappable in tests.
type indexUseCase interface {
	AddOffers(ctx context.Context, offers []offer.Offer, markHot bool) ([]int64, error)
	Clear(ctx context.Context) error
	BuildIndexes(ctx context.Context) (dualindex.Stats, error)
}

type searchUseCase interface {
	Search(ctx context.Context, query string, applied filter.Applied) (pipeline.Result, error)
}

// Client is the venuesearch SDK entry point.
type Client struct {
	store     *sqlite.Store
	redis     *dbRedis.Store
	index     indexUseCase
	search    searchUseCase
	healthSvc healthUseCase
	obs       *observer
	log       *zap.Logger
}

// New opens the offer database and assembles the search engine.
// The provided context is used for the optional Redis readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.dbPath == "" {
		return nil, errors.New("venuesearch: database path required (use WithSQLite)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(cfg.dbPath)
	if err != nil {
		return nil, fmt.Errorf("venuesearch: open database: %w", err)
	}

	c := &Client{store: store, obs: obs, log: zap.NewNop()}
	if cfg.redisAddr != "" {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    []string{cfg.redisAddr},
			Password: cfg.redisPassword,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("venuesearch: create redis store: %w", err)
		}
		if err := rs.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			rs.Close()
			_ = store.Close()
			return nil, fmt.Errorf("venuesearch: redis not ready: %w", err)
		}
		c.redis = rs
	}

	if err := c.wire(cfg); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) wire(cfg *clientConfig) error {
	answersMem, err := cache.NewTTL[string]("answers", answerTTL, answerCapacity)
	if err != nil {
		return fmt.Errorf("venuesearch: %w", err)
	}
	results, err := cache.NewTTL[[]document.Document]("retrieval", resultTTL, resultCapacity)
	if err != nil {
		return fmt.Errorf("venuesearch: %w", err)
	}
	queries, err := cache.NewTTL[[]float32]("query_embeddings", queryTTL, queryCapacity)
	if err != nil {
		return fmt.Errorf("venuesearch: %w", err)
	}

	// Pass nil interfaces (not typed nil pointers) for absent components.
	var embedder domain.Embedder
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
	}
	repo := dualindex.New(c.store, embedder, queries, c.log)

	rcfg := retrieval.DefaultConfig()
	if cfg.callTimeout > 0 {
		rcfg.CallTimeout = cfg.callTimeout
	}
	var rr retrieval.Reranker
	if cfg.rerankURL != "" {
		rr = reranker.New(cfg.rerankURL, cfg.rerankModel, rcfg.CallTimeout, nil)
		rcfg.UseReranker = true
	}
	retriever := retrieval.New(repo, rr, results, rcfg)

	var (
		shared      db.KVStore
		cachePinger healthuc.Pinger
	)
	if c.redis != nil {
		shared = c.redis
		cachePinger = c.redis
	}
	answers := answercache.New(answersMem, shared, answerTTL, c.log)

	router := llm.Router{Small: "gpt-4o-mini", Mid: "gpt-4o-mini", Large: "gpt-4o"}
	if cfg.small != "" {
		router = llm.Router{Small: cfg.small, Mid: cfg.mid, Large: cfg.large}
	}

	c.index = repo
	c.search = pipeline.New(repo, retriever, llm.NewInstrumentedCompleter(completerFor(cfg), router), answers,
		pipeline.Config{CallTimeout: cfg.callTimeout, Currency: cfg.currency})
	c.healthSvc = healthuc.New(c.store, repo, cachePinger)
	return nil
}

func completerFor(cfg *clientConfig) Completer {
	switch {
	case cfg.completer != nil:
		return cfg.completer
	case cfg.apiKey != "":
		return openaiTransport.NewCompleter(openaiTransport.Config{APIKey: cfg.apiKey, BaseURL: cfg.baseURL})
	default:
		return noopCompleter{}
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.redis != nil {
		c.redis.Close()
	}
	if c.store != nil {
		_ = c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// AddOffers stores offers in the stable or hot partition and returns their ids.
// A single invalid offer rejects the batch with ErrInvalidOffer.
// Call BuildIndexes to make them searchable.
func (c *Client) AddOffers(ctx context.Context, offers []Offer, hot bool) (ids []int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("add_offers", start, err) }()

	dom := make([]offer.Offer, len(offers))
	for i := range offers {
		dom[i] = offerToDomain(&offers[i], hot)
	}
	ids, err = c.index.AddOffers(ctx, dom, hot)
	if err != nil {
		return nil, fmt.Errorf("add offers: %w", err)
	}
	return ids, nil
}

// LoadCSV stores the valid rows of a vendor CSV file. Invalid rows are skipped and counted.
func (c *Client) LoadCSV(ctx context.Context, path string, hot bool) (rep LoadReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("load_csv", start, err) }()

	r, err := ingest.LoadCSV(ctx, path, c.index, hot, c.log)
	if err != nil {
		return LoadReport{}, fmt.Errorf("load csv: %w", err)
	}
	return LoadReport{Read: r.Read, Inserted: r.Inserted, Skipped: r.Skipped}, nil
}

// Clear removes every stored offer. Served indexes stay until the next build.
func (c *Client) Clear(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("clear", start, err) }()

	if err = c.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// BuildIndexes rebuilds every index from the stored offers.
func (c *Client) BuildIndexes(ctx context.Context) (stats IndexStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("build_indexes", start, err) }()

	s, err := c.index.BuildIndexes(ctx)
	if err != nil {
		return IndexStats{}, fmt.Errorf("build indexes: %w", err)
	}
	return statsFromDomain(s), nil
}

// Search answers a free-text query. It fails only with ErrIndexNotBuilt;
// provider failures degrade to template answers.
func (c *Client) Search(ctx context.Context, query string, f Filters) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observeSearch(start, &res, err) }()

	r, err := c.search.Search(ctx, query, filtersToDomain(f))
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return resultFromDomain(&r), nil
}
