package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/sahraevent/venuesearch/internal/domain"
	"github.com/sahraevent/venuesearch/internal/metrics"
)

type mockCompleter struct {
	out       string
	err       error
	gotModel  string
	gotSystem string
}

func (m *mockCompleter) Complete(_ context.Context, model, system, _ string) (string, error) {
	m.gotModel, m.gotSystem = model, system
	return m.out, m.err
}

type mockEmbedder struct {
	batchSizes []int
	err        error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{1}}, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if m.err != nil {
		return domain.BatchEmbeddingResult{}, m.err
	}
	m.batchSizes = append(m.batchSizes, len(texts))
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i)}
	}
	return domain.BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

var testRouter = Router{Small: "gpt-4o-mini", Mid: "gpt-4o-mini-compose", Large: "gpt-4o"}

func TestRouter_ModelFor(t *testing.T) {
	tests := []struct {
		task Task
		want string
	}{
		{TaskSlots, "gpt-4o-mini"},
		{TaskCompose, "gpt-4o-mini-compose"},
		{TaskAnswer, "gpt-4o"},
		{Task("other"), "gpt-4o"},
	}
	for _, tc := range tests {
		if got := testRouter.ModelFor(tc.task); got != tc.want {
			t.Errorf("ModelFor(%s) = %s, want %s", tc.task, got, tc.want)
		}
	}
}

func TestInstrumentedCompleter_RoutesAndCounts(t *testing.T) {
	inner := &mockCompleter{out: "{}"}
	c := NewInstrumentedCompleter(inner, testRouter)

	out, err := c.Complete(context.Background(), TaskSlots, "sys", "user")
	if err != nil || out != "{}" {
		t.Fatalf("unexpected result %q %v", out, err)
	}
	if inner.gotModel != "gpt-4o-mini" || inner.gotSystem != "sys" {
		t.Errorf("unexpected call model=%s system=%s", inner.gotModel, inner.gotSystem)
	}
	if v := testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("slots", "gpt-4o-mini", "success")); v < 1 {
		t.Errorf("expected success counter, got %f", v)
	}
}

func TestInstrumentedCompleter_WrapsError(t *testing.T) {
	inner := &mockCompleter{err: domain.ErrLLMProviderError}
	c := NewInstrumentedCompleter(inner, testRouter)

	_, err := c.Complete(context.Background(), TaskCompose, "", "user")
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if v := testutil.ToFloat64(metrics.LLMRequestsTotal.WithLabelValues("compose", "gpt-4o-mini-compose", "error")); v < 1 {
		t.Errorf("expected error counter, got %f", v)
	}
}

func TestInstrumentedEmbedder_ChunksLargeBatches(t *testing.T) {
	inner := &mockEmbedder{}
	p := NewInstrumentedEmbedder(inner, "m", zap.NewNop())

	texts := make([]string, DefaultMaxAPIBatchSize+10)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(inner.batchSizes) != 2 || inner.batchSizes[0] != DefaultMaxAPIBatchSize || inner.batchSizes[1] != 10 {
		t.Errorf("unexpected chunking %v", inner.batchSizes)
	}
	if len(res.Embeddings) != len(texts) || res.TotalTokens != len(texts) {
		t.Errorf("unexpected result: %d embeddings, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
}

func TestInstrumentedEmbedder_Errors(t *testing.T) {
	p := NewInstrumentedEmbedder(&mockEmbedder{err: domain.ErrLLMProviderError}, "m", zap.NewNop())

	if _, err := p.BatchEmbed(context.Background(), []string{"a"}); !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
	if _, err := p.Embed(context.Background(), "a"); !errors.Is(err, domain.ErrLLMProviderError) {
		t.Errorf("expected provider error, got %v", err)
	}
}
