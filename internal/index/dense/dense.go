// Package dense implements brute-force cosine similarity over offer embeddings.
package dense

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/index"
)

var _ index.Source = (*Index)(nil)

// Index holds L2-normalized document vectors.
type Index struct {
	name     string
	embedder domain.Embedder
	queries  *cache.TTL[[]float32]
	ids      []int64
	vectors  [][]float32
}

// Build embeds every text and returns a ready index. queries memoizes query
// embeddings and may be nil.
func Build(
	ctx context.Context,
	name string,
	embedder domain.Embedder,
	queries *cache.TTL[[]float32],
	ids []int64,
	texts []string,
) (*Index, error) {
	idx := &Index{name: name, embedder: embedder, queries: queries, ids: ids}
	if len(texts) == 0 {
		return idx, nil
	}

	res, err := domain.EmbedAll(ctx, embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", name, err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, fmt.Errorf("build %s: got %d embeddings for %d texts", name, len(res.Embeddings), len(texts))
	}
	idx.vectors = make([][]float32, len(res.Embeddings))
	for i, v := range res.Embeddings {
		idx.vectors[i] = normalize(v)
	}
	return idx, nil
}

// Name returns the index label.
func (x *Index) Name() string { return x.name }

// Kind returns index.Dense.
func (x *Index) Kind() index.Kind { return index.Dense }

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.ids) }

// Search returns the k most similar documents to the query.
func (x *Index) Search(ctx context.Context, query string, k int) ([]index.Hit, error) {
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}
	q, err := x.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits := make([]index.Hit, len(x.vectors))
	for i, v := range x.vectors {
		hits[i] = index.Hit{ID: x.ids[i], Score: dot(q, v)}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *Index) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := cache.NormalizeQuery(query)
	if x.queries != nil {
		if v, ok := x.queries.Get(key); ok {
			return v, nil
		}
	}
	res, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	v := normalize(res.Embedding)
	if x.queries != nil {
		x.queries.Set(key, v)
	}
	return v, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, f := range v {
		out[i] = float32(float64(f) * inv)
	}
	return out
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	var s float64
	for i := range n {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
