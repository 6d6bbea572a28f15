package dualindex

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/domain/offer"
)

// memStore implements the consumer interface for tests.
type memStore struct {
	mu      sync.Mutex
	nextID  int64
	rows    []offer.Offer
	loadErr error
	skipped int
}

func (m *memStore) AddOffers(_ context.Context, offers []offer.Offer, hot bool) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, len(offers))
	for i, o := range offers {
		m.nextID++
		o.ID, o.Hot = m.nextID, hot
		m.rows = append(m.rows, o)
		ids[i] = o.ID
	}
	return ids, nil
}

func (m *memStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

func (m *memStore) LoadPartition(_ context.Context, p offer.Partition) ([]offer.Offer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, 0, m.loadErr
	}
	var out []offer.Offer
	for _, o := range m.rows {
		if o.Partition() == p {
			out = append(out, o)
		}
	}
	return out, m.skipped, nil
}

func (m *memStore) GetByIDs(_ context.Context, ids []int64) ([]offer.Offer, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []offer.Offer
	for _, o := range m.rows {
		if want[o.ID] {
			out = append(out, o)
		}
	}
	return out, 0, nil
}

func (m *memStore) Ping(context.Context) error { return nil }

// vecEmbedder returns a constant direction per text length parity.
type vecEmbedder struct {
	err error
}

func (e *vecEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	if len(text)%2 == 0 {
		return domain.EmbeddingResult{Embedding: []float32{1, 0}}, nil
	}
	return domain.EmbeddingResult{Embedding: []float32{0, 1}}, nil
}

var errProviderDown = errors.New("provider down")

func testOffer(vendor, title, city string) offer.Offer {
	return offer.Offer{
		VendorID:     vendor,
		Title:        title,
		City:         city,
		HeadcountMin: 10,
		HeadcountMax: 50,
		PriceMin:     5000,
		PriceMax:     20000,
		Occasion:     []string{"party"},
		UpdatedAt:    "2026-10-01",
		Description:  title + " with a view. Catering included.",
	}
}

func newTestRepo(t *testing.T, emb domain.Embedder) (*Repo, *memStore) {
	t.Helper()
	ms := &memStore{}
	return New(ms, emb, nil, zap.NewNop()), ms
}
