package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/config"
	"github.com/sahraevent/venuesearch/internal/db"
	dbRedis "github.com/sahraevent/venuesearch/internal/db/redis"
	"github.com/sahraevent/venuesearch/internal/db/sqlite"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/ingest"
	logpkg "github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
	"github.com/sahraevent/venuesearch/internal/repository/answercache"
	"github.com/sahraevent/venuesearch/internal/repository/dualindex"
	"github.com/sahraevent/venuesearch/internal/repository/embcache"
	chiTransport "github.com/sahraevent/venuesearch/internal/transport/chi"
	openaiTransport "github.com/sahraevent/venuesearch/internal/transport/openai"
	"github.com/sahraevent/venuesearch/internal/transport/reranker"
	"github.com/sahraevent/venuesearch/internal/usecase/health"
	"github.com/sahraevent/venuesearch/internal/usecase/llm"
	"github.com/sahraevent/venuesearch/internal/usecase/pipeline"
	"github.com/sahraevent/venuesearch/internal/usecase/retrieval"
	"github.com/sahraevent/venuesearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting venuesearch API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	// Register domain metrics explicitly (no init())
	metrics.Register()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		logger.Fatal("Failed to create database directory", zap.Error(err))
	}
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open offer store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional shared tier for answers and embeddings.
	// Pass nil interfaces (not typed nil pointers) when redis is not configured.
	var (
		shared      db.KVStore
		cachePinger health.Pinger
	)
	if cfg.Cache.Driver == "redis" {
		rs, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer rs.Close()
		if err := rs.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Cache.Addrs))
		shared = rs
		cachePinger = rs
	}

	caches, err := newCaches(cfg.Cache)
	if err != nil {
		logger.Fatal("Failed to create caches", zap.Error(err))
	}

	embedder := buildEmbedder(cfg.Embedding, shared, logger)
	repo := dualindex.New(store, embedder, caches.queries, logger)

	var rr retrieval.Reranker
	if cfg.Retrieval.UseReranker {
		rr = reranker.New(cfg.Reranker.BaseURL, cfg.Reranker.Model,
			time.Duration(cfg.Reranker.TimeoutSec)*time.Second, nil)
	}
	retriever := retrieval.New(repo, rr, caches.results, retrieval.Config{
		ANNTopK:        cfg.Retrieval.ANNTopK,
		BM25TopK:       cfg.Retrieval.BM25TopK,
		RRFK:           cfg.Retrieval.RRFK,
		KeepTopN:       cfg.Retrieval.KeepTopN,
		ContextTopN:    cfg.Retrieval.ContextTopN,
		AmbiguityDelta: cfg.Retrieval.AmbiguityDelta,
		UseReranker:    cfg.Retrieval.UseReranker,
		CallTimeout:    time.Duration(cfg.Pipeline.ToolTimeoutSec) * time.Second,
	})

	completer := llm.NewInstrumentedCompleter(
		openaiTransport.NewCompleter(openaiTransport.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
		}),
		llm.Router{Small: cfg.LLM.SmallModel, Mid: cfg.LLM.MidModel, Large: cfg.LLM.LargeModel},
	)
	answers := answercache.New(caches.answers, shared,
		time.Duration(cfg.Cache.AnswerTTLSec)*time.Second, logger)

	searchPipeline := pipeline.New(repo, retriever, completer, answers, pipeline.Config{
		CallTimeout: time.Duration(cfg.Pipeline.ToolTimeoutSec) * time.Second,
		Currency:    cfg.Pipeline.Currency,
	})

	healthSvc := health.New(store, repo, cachePinger)
	server := chiTransport.NewServer(searchPipeline, repo, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Searches answer 503 until the first build completes.
	go prepareIndexes(ctx, cfg.Ingest, repo, store, logger)

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

type cacheSet struct {
	answers *cache.TTL[string]
	results *cache.TTL[[]document.Document]
	queries *cache.TTL[[]float32]
}

func newCaches(cfg config.CacheConfig) (cacheSet, error) {
	answers, err := cache.NewTTL[string]("answers",
		time.Duration(cfg.AnswerTTLSec)*time.Second, cfg.AnswerCapacity)
	if err != nil {
		return cacheSet{}, err
	}
	results, err := cache.NewTTL[[]document.Document]("retrieval",
		time.Duration(cfg.ResultTTLSec)*time.Second, cfg.ResultCapacity)
	if err != nil {
		return cacheSet{}, err
	}
	queries, err := cache.NewTTL[[]float32]("query_embeddings",
		time.Duration(cfg.QueryTTLSec)*time.Second, cfg.QueryCapacity)
	if err != nil {
		return cacheSet{}, err
	}
	return cacheSet{answers: answers, results: results, queries: queries}, nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cache -> Instrumented -> Instruction.
// It returns nil when the dense index is disabled. The cache layer needs a shared store.
func buildEmbedder(cfg config.EmbeddingConfig, shared db.KVStore, logger *zap.Logger) domain.Embedder {
	if !cfg.Enabled {
		logger.Info("Dense index disabled, using lexical retrieval only")
		return nil
	}

	base := openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
		Config:     openaiTransport.Config{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL},
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
	})

	var embedder domain.Embedder = base
	if shared != nil {
		embedder = embcache.New(base, shared, cfg.Model,
			time.Duration(cfg.CacheTTLSec)*time.Second, metrics.CacheRequestsTotal, logger)
	}
	embedder = llm.NewInstrumentedEmbedder(embedder, cfg.Model, logger)

	// Instruction prefix (outermost, so memoized query vectors include it)
	if cfg.Instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, cfg.Instruction)
	}

	logger.Info("Embedder created",
		zap.String("model", cfg.Model),
		zap.Int("dimensions", cfg.Dimensions),
	)
	return embedder
}

// prepareIndexes reseeds the store from CSV when configured or when the store
// is empty, otherwise builds the indexes from whatever the store already holds.
func prepareIndexes(ctx context.Context, cfg config.IngestConfig, repo *dualindex.Repo, store *sqlite.Store, logger *zap.Logger) {
	stats, err := ingest.Prepare(ctx, repo, store, cfg.ReseedOnStart, cfg.StablePath, cfg.HotPath, logger)
	if err != nil {
		logger.Error("Failed to prepare indexes", zap.Error(err))
		return
	}
	logger.Info("Indexes ready",
		zap.Int("stable", stats.Stable),
		zap.Int("hot", stats.Hot),
		zap.Bool("dense", stats.Dense),
		zap.Uint64("generation", stats.Generation),
	)
}
