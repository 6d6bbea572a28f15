package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/index"
)

// stubSource returns fixed hits.
type stubSource struct {
	name  string
	kind  index.Kind
	hits  []index.Hit
	err   error
	calls int
	gotK  int
}

func (s *stubSource) Name() string     { return s.name }
func (s *stubSource) Kind() index.Kind { return s.kind }

func (s *stubSource) Search(_ context.Context, _ string, k int) ([]index.Hit, error) {
	s.calls++
	s.gotK = k
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

// mockIndex implements Index for tests.
type mockIndex struct {
	sources    []index.Source
	docs       map[int64]document.Document
	notBuilt   bool
	resolveErr error
}

func (m *mockIndex) Sources() ([]index.Source, error) {
	if m.notBuilt {
		return nil, domain.ErrIndexNotBuilt
	}
	return m.sources, nil
}

func (m *mockIndex) GetDocsByIDs(_ context.Context, ids []int64) ([]document.Document, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	var out []document.Document
	for _, id := range ids {
		if d, ok := m.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockIndex) Generation() uint64 { return 1 }

// mockReranker returns fixed scores and records the passages it was given.
type mockReranker struct {
	scores   []float64
	err      error
	calls    int
	passages []string
}

func (m *mockReranker) Rerank(_ context.Context, _ string, passages []string) ([]float64, error) {
	m.calls++
	m.passages = passages
	return m.scores, m.err
}

var errRerankDown = errors.New("reranker unavailable")

type docSpec struct {
	id     int64
	vendor string
	city   string
}

func newDocs(specs ...docSpec) map[int64]document.Document {
	out := make(map[int64]document.Document, len(specs))
	for _, s := range specs {
		o := offer.Offer{
			ID:           s.id,
			VendorID:     s.vendor,
			Title:        fmt.Sprintf("Venue %d", s.id),
			City:         s.city,
			HeadcountMin: 10,
			HeadcountMax: 50,
			PriceMin:     5000,
			PriceMax:     20000,
			Occasion:     []string{"party"},
			UpdatedAt:    "2026-10-01",
			Description:  fmt.Sprintf("Venue %d description. Second sentence.", s.id),
		}
		out[s.id] = document.FromOffer(&o)
	}
	return out
}

func lexicalSource(name string, ids ...int64) *stubSource {
	return &stubSource{name: name, kind: index.Lexical, hits: hits(ids...)}
}

func absentDense() []index.Source {
	return []index.Source{
		index.Absent{Label: "dense/stable", Of: index.Dense},
		index.Absent{Label: "dense/hot", Of: index.Dense},
	}
}

func newResultCache(t *testing.T) *cache.TTL[[]document.Document] {
	t.Helper()
	c, err := cache.NewTTL[[]document.Document]("retrieval_test", time.Hour, 16)
	if err != nil {
		t.Fatalf("NewTTL: %v", err)
	}
	return c
}

func ids(docs []document.Document) []int64 {
	out := make([]int64, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
