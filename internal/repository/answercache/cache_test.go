package answercache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/cache"
	"github.com/sahraevent/venuesearch/internal/db"
)

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data   map[string][]byte
	getErr error
	setErr error
	gotTTL time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.gotTTL = ttl
	return nil
}

func newMem(t *testing.T) *cache.TTL[string] {
	t.Helper()
	c, err := cache.NewTTL[string]("answers_test", time.Hour, 8)
	if err != nil {
		t.Fatalf("NewTTL: %v", err)
	}
	return c
}

func TestCache_MemoryOnly(t *testing.T) {
	c := New(newMem(t), nil, 24*time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss")
	}
	c.Set(ctx, "k", "answer")
	if got, ok := c.Get(ctx, "k"); !ok || got != "answer" {
		t.Fatalf("expected hit, got %q %v", got, ok)
	}
}

func TestCache_WritesThroughToShared(t *testing.T) {
	shared := newMockKVStore()
	c := New(newMem(t), shared, 24*time.Hour, zap.NewNop())

	c.Set(context.Background(), "k", "answer")

	if string(shared.data[keyPrefix+"k"]) != "answer" || shared.gotTTL != 24*time.Hour {
		t.Errorf("expected shared write with ttl, got %v ttl=%v", shared.data, shared.gotTTL)
	}
}

func TestCache_SharedHitPopulatesMemory(t *testing.T) {
	shared := newMockKVStore()
	shared.data[keyPrefix+"k"] = []byte("from redis")
	mem := newMem(t)
	c := New(mem, shared, time.Hour, zap.NewNop())

	got, ok := c.Get(context.Background(), "k")
	if !ok || got != "from redis" {
		t.Fatalf("expected shared hit, got %q %v", got, ok)
	}
	if v, ok := mem.Get("k"); !ok || v != "from redis" {
		t.Error("expected memory tier populated")
	}
}

func TestCache_SharedErrorsAreMisses(t *testing.T) {
	shared := newMockKVStore()
	shared.getErr = errors.New("connection refused")
	shared.setErr = errors.New("connection refused")
	c := New(newMem(t), shared, time.Hour, zap.NewNop())
	ctx := context.Background()

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss on shared error")
	}
	c.Set(ctx, "k", "answer")
	if got, ok := c.Get(ctx, "k"); !ok || got != "answer" {
		t.Fatalf("memory tier should still serve, got %q %v", got, ok)
	}
}
