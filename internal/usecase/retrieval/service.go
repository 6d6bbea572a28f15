// Package retrieval implements hybrid rank-fusion search over the dual offer index.
package retrieval

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/index"
	"github.com/sahraevent/venuesearch/internal/logger"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

// rerankDepth is the number of leading results a cross-encoder rescoring covers.
const rerankDepth = 3

// Config tunes candidate depth, fusion and post-processing.
type Config struct {
	ANNTopK        int
	BM25TopK       int
	RRFK           int
	KeepTopN       int
	ContextTopN    int
	AmbiguityDelta float64
	UseReranker    bool
	CallTimeout    time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ANNTopK:        24,
		BM25TopK:       24,
		RRFK:           defaultRRFK,
		KeepTopN:       15,
		ContextTopN:    3,
		AmbiguityDelta: 0.06,
		CallTimeout:    30 * time.Second,
	}
}

// Service fuses lexical and dense candidates from both partitions.
type Service struct {
	index    Index
	reranker Reranker
	results  *cache.TTL[[]document.Document]
	cfg      Config
}

// New creates a retrieval service. reranker and results may be nil.
func New(idx Index, reranker Reranker, results *cache.TTL[[]document.Document], cfg Config) *Service {
	return &Service{index: idx, reranker: reranker, results: results, cfg: cfg}
}

// Search returns at most KeepTopN documents matching filters, one per vendor,
// best first. The only error is domain.ErrIndexNotBuilt.
func (s *Service) Search(ctx context.Context, query string, filters filter.Filters) ([]document.Document, error) {
	log := logger.FromContext(ctx)

	sources, err := s.index.Sources()
	if err != nil {
		return nil, fmt.Errorf("retrieval sources: %w", err)
	}

	key := s.resultKey(query, filters)
	if s.results != nil {
		if docs, ok := s.results.Get(key); ok {
			log.Debug("Retrieval cache hit", zap.Int("docs", len(docs)))
			return slices.Clone(docs), nil
		}
	}

	lists := make([][]index.Hit, len(sources))
	for i, src := range sources {
		lists[i] = s.searchSource(ctx, src, query)
	}
	candidates := fuseRRF(lists, s.cfg.RRFK)

	docs := s.filter(ctx, candidates, filters)
	if len(docs) > s.cfg.KeepTopN {
		docs = docs[:s.cfg.KeepTopN]
	}
	docs = dedupByVendor(docs)

	if s.ambiguous(docs) {
		log.Debug("Top results ambiguous",
			zap.Float64("rank1", docs[0].Score), zap.Float64("rank3", docs[2].Score))
		if s.cfg.UseReranker && s.reranker != nil {
			s.rerank(ctx, query, docs)
		}
	}

	for i := range docs[:min(s.cfg.ContextTopN, len(docs))] {
		docs[i].Snippet = docs[i].Salient()
	}

	metrics.RetrievalResults.Observe(float64(len(docs)))
	log.Info("Retrieved documents",
		zap.Int("candidates", len(candidates)),
		zap.Int("docs", len(docs)),
		zap.Int("top_vendors", uniqueVendors(docs, rerankDepth)),
	)

	if s.results != nil {
		s.results.Set(key, slices.Clone(docs))
	}
	return docs, nil
}

// searchSource queries one source. Failures and timeouts yield no hits.
func (s *Service) searchSource(ctx context.Context, src index.Source, query string) []index.Hit {
	k := s.cfg.BM25TopK
	if src.Kind() == index.Dense {
		k = s.cfg.ANNTopK
	}
	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	hits, err := src.Search(ctx, query, k)
	if err != nil {
		logger.FromContext(ctx).Warn("Retrieval source failed",
			zap.String("source", src.Name()), zap.Error(err))
		return nil
	}
	return hits
}

// filter resolves candidates in one batch and keeps those matching filters,
// preserving fused order.
func (s *Service) filter(ctx context.Context, candidates []fused, filters filter.Filters) []document.Document {
	if len(candidates) == 0 {
		return nil
	}
	log := logger.FromContext(ctx)

	ids := make([]int64, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	resolved, err := s.index.GetDocsByIDs(ctx, ids)
	if err != nil {
		log.Warn("Resolve candidates failed", zap.Error(err))
		return nil
	}
	byID := make(map[int64]document.Document, len(resolved))
	for _, d := range resolved {
		byID[d.ID] = d
	}

	out := make([]document.Document, 0, len(candidates))
	for _, c := range candidates {
		doc, ok := byID[c.id]
		if !ok {
			continue
		}
		if reason := filters.Reject(&doc.Meta); reason != "" {
			log.Debug("Candidate filtered", zap.Int64("id", c.id), zap.String("field", reason))
			continue
		}
		doc.Score = c.score
		out = append(out, doc)
	}
	return out
}

func (s *Service) ambiguous(docs []document.Document) bool {
	return len(docs) >= rerankDepth && docs[0].Score-docs[rerankDepth-1].Score < s.cfg.AmbiguityDelta
}

// rerank reorders the leading documents in place by cross-encoder score over
// their salient text.
// Failures keep the fused order.
func (s *Service) rerank(ctx context.Context, query string, docs []document.Document) {
	top := docs[:min(rerankDepth, len(docs))]
	passages := make([]string, len(top))
	for i := range top {
		passages[i] = top[i].Salient()
	}

	if s.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
	}
	scores, err := s.reranker.Rerank(ctx, query, passages)
	if err == nil && len(scores) != len(top) {
		err = fmt.Errorf("got %d scores for %d passages", len(scores), len(top))
	}
	if err != nil {
		metrics.RerankTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Warn("Rerank failed, keeping fused order", zap.Error(err))
		return
	}
	metrics.RerankTotal.WithLabelValues("ok").Inc()

	order := make([]int, len(top))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	reordered := make([]document.Document, len(top))
	for i, j := range order {
		reordered[i] = top[j]
	}
	copy(top, reordered)
}

func (s *Service) resultKey(query string, f filter.Filters) string {
	return cache.ExactKey(
		cache.NormalizeQuery(query),
		f.City,
		f.Occasion,
		strconv.Itoa(f.Headcount),
		strconv.FormatFloat(f.Budget, 'f', -1, 64),
		strconv.FormatUint(s.index.Generation(), 10),
	)
}

// dedupByVendor keeps the first document of each vendor.
func dedupByVendor(docs []document.Document) []document.Document {
	seen := make(map[string]bool, len(docs))
	out := docs[:0]
	for _, d := range docs {
		if seen[d.Meta.VendorID] {
			continue
		}
		seen[d.Meta.VendorID] = true
		out = append(out, d)
	}
	return out
}

func uniqueVendors(docs []document.Document, n int) int {
	seen := make(map[string]bool)
	for _, d := range docs[:min(n, len(docs))] {
		seen[d.Meta.VendorID] = true
	}
	return len(seen)
}
