// Package dualindex keeps the stable and hot offer partitions with their
// lexical and dense indexes.
package dualindex

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/index"
	"github.com/sahraevent/venuesearch/internal/index/dense"
	"github.com/sahraevent/venuesearch/internal/index/lexical"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

var partitions = []offer.Partition{offer.Stable, offer.Hot}

// store is the consumer interface for offer persistence (ISP).
type store interface {
	AddOffers(ctx context.Context, offers []offer.Offer, hot bool) ([]int64, error)
	Clear(ctx context.Context) error
	LoadPartition(ctx context.Context, p offer.Partition) ([]offer.Offer, int, error)
	GetByIDs(ctx context.Context, ids []int64) ([]offer.Offer, int, error)
	Ping(ctx context.Context) error
}

// Stats describes the currently served indexes.
type Stats struct {
	Stable     int    `json:"stable"`
	Hot        int    `json:"hot"`
	Dense      bool   `json:"dense"`
	Generation uint64 `json:"generation"`
}

type partitionIndex struct {
	lexical *lexical.Index
	dense   index.Source
}

type snapshot struct {
	parts      map[offer.Partition]partitionIndex
	stats      Stats
	generation uint64
}

// Repo owns the offer store and the in-memory indexes built from it.
// Indexes are rebuilt wholesale and swapped atomically.
type Repo struct {
	store    store
	embedder domain.Embedder
	queries  *cache.TTL[[]float32]
	logger   *zap.Logger

	buildMu sync.Mutex
	snap    atomic.Pointer[snapshot]
}

// New creates the repository. embedder may be nil, in which case the dense
// sources are absent. queries memoizes query embeddings and may be nil.
func New(s store, embedder domain.Embedder, queries *cache.TTL[[]float32], logger *zap.Logger) *Repo {
	return &Repo{store: s, embedder: embedder, queries: queries, logger: logger}
}

// AddOffers validates and appends offers to the given partition.
// A single invalid offer rejects the whole batch.
func (r *Repo) AddOffers(ctx context.Context, offers []offer.Offer, markHot bool) ([]int64, error) {
	for i := range offers {
		if err := offers[i].Validate(); err != nil {
			return nil, fmt.Errorf("offer %d: %w", i, err)
		}
	}
	ids, err := r.store.AddOffers(ctx, offers, markHot)
	if err != nil {
		return nil, fmt.Errorf("add offers: %w", err)
	}
	return ids, nil
}

// Clear removes every offer. Served indexes stay until the next build.
func (r *Repo) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear offers: %w", err)
	}
	return nil
}

// BuildIndexes reloads both partitions and rebuilds their indexes concurrently.
func (r *Repo) BuildIndexes(ctx context.Context) (Stats, error) {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	built := make([]partitionIndex, len(partitions))
	sizes := make([]int, len(partitions))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range partitions {
		g.Go(func() error {
			pi, n, err := r.buildPartition(gctx, p)
			if err != nil {
				return err
			}
			built[i], sizes[i] = pi, n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err //nolint:wrapcheck // already wrapped per partition
	}

	var gen uint64 = 1
	if prev := r.snap.Load(); prev != nil {
		gen = prev.generation + 1
	}
	next := &snapshot{
		parts:      make(map[offer.Partition]partitionIndex, len(partitions)),
		generation: gen,
		stats: Stats{
			Stable:     sizes[0],
			Hot:        sizes[1],
			Generation: gen,
		},
	}
	// Dense holds only if every non-empty partition got a real dense index.
	next.stats.Dense = r.embedder != nil
	for i, p := range partitions {
		next.parts[p] = built[i]
		if _, ok := built[i].dense.(*dense.Index); !ok && sizes[i] > 0 {
			next.stats.Dense = false
		}
		metrics.IndexDocuments.WithLabelValues(string(p)).Set(float64(sizes[i]))
	}
	r.snap.Store(next)

	r.logger.Info("Indexes built",
		zap.Int("stable", next.stats.Stable),
		zap.Int("hot", next.stats.Hot),
		zap.Bool("dense", next.stats.Dense),
		zap.Uint64("generation", gen),
	)
	return next.stats, nil
}

func (r *Repo) buildPartition(ctx context.Context, p offer.Partition) (partitionIndex, int, error) {
	offers, skipped, err := r.store.LoadPartition(ctx, p)
	if err != nil {
		return partitionIndex{}, 0, fmt.Errorf("load %s partition: %w", p, err)
	}
	if skipped > 0 {
		r.logger.Warn("Skipped malformed offer rows", zap.String("partition", string(p)), zap.Int("skipped", skipped))
	}

	ids := make([]int64, len(offers))
	texts := make([]string, len(offers))
	for i := range offers {
		doc := document.FromOffer(&offers[i])
		ids[i], texts[i] = doc.ID, doc.Text
	}

	pi := partitionIndex{
		lexical: lexical.New(sourceName(index.Lexical, p), ids, texts),
		dense:   index.Absent{Label: sourceName(index.Dense, p), Of: index.Dense},
	}
	if r.embedder != nil {
		di, err := dense.Build(ctx, sourceName(index.Dense, p), r.embedder, r.queries, ids, texts)
		if err != nil {
			r.logger.Warn("Dense index unavailable, serving lexical only",
				zap.String("partition", string(p)), zap.Error(err))
		} else {
			pi.dense = di
		}
	}
	return pi, len(offers), nil
}

// GetDocsByIDs resolves ids to documents in unspecified order.
// Unknown ids and malformed rows are omitted.
func (r *Repo) GetDocsByIDs(ctx context.Context, ids []int64) ([]document.Document, error) {
	offers, skipped, err := r.store.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get offers: %w", err)
	}
	if skipped > 0 {
		r.logger.Warn("Skipped malformed offer rows", zap.Int("skipped", skipped))
	}
	docs := make([]document.Document, len(offers))
	for i := range offers {
		docs[i] = document.FromOffer(&offers[i])
	}
	return docs, nil
}

// Sources returns the four retrieval sources {dense, lexical} x {stable, hot}.
// Returns domain.ErrIndexNotBuilt before the first build.
func (r *Repo) Sources() ([]index.Source, error) {
	s := r.snap.Load()
	if s == nil {
		return nil, domain.ErrIndexNotBuilt
	}
	out := make([]index.Source, 0, 2*len(partitions))
	for _, p := range partitions {
		out = append(out, s.parts[p].dense, s.parts[p].lexical)
	}
	return out, nil
}

// Ready reports whether indexes have been built.
func (r *Repo) Ready() bool { return r.snap.Load() != nil }

// Generation increments on every successful build; zero before the first.
func (r *Repo) Generation() uint64 {
	if s := r.snap.Load(); s != nil {
		return s.generation
	}
	return 0
}

// Stats returns the sizes of the served indexes.
func (r *Repo) Stats() Stats {
	if s := r.snap.Load(); s != nil {
		return s.stats
	}
	return Stats{}
}

// Ping checks the backing store.
func (r *Repo) Ping(ctx context.Context) error {
	return r.store.Ping(ctx) //nolint:wrapcheck // health passthrough
}

func sourceName(k index.Kind, p offer.Partition) string {
	return string(k) + "/" + string(p)
}
