package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sahraevent/venuesearch/internal/domain"
)

type embeddingDatum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string           `json:"object"`
	Data   []embeddingDatum `json:"data"`
	Model  string           `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func TestCompleter_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected request %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"Try the yacht [#3]."},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":12,"completion_tokens":5,"total_tokens":17}}`))
	}))
	defer server.Close()

	c := NewCompleter(Config{APIKey: "test-key", BaseURL: server.URL})
	out, err := c.Complete(context.Background(), "gpt-4o-mini", "system text", "user text")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "Try the yacht [#3]." {
		t.Errorf("unexpected completion %q", out)
	}
}

func TestCompleter_EmptyChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	_, err := NewCompleter(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), "m", "", "u")
	if !errors.Is(err, domain.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestCompleter_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer server.Close()

	_, err := NewCompleter(Config{APIKey: "k", BaseURL: server.URL}).Complete(context.Background(), "m", "s", "u")
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestEmbedder_BatchEmbedRestoresOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		resp := embeddingResponse{Object: "list", Model: "text-embedding-3-small"}
		resp.Data = []embeddingDatum{
			{Object: "embedding", Embedding: []float32{0.3, 0.4}, Index: 1},
			{Object: "embedding", Embedding: []float32{0.1, 0.2}, Index: 0},
		}
		resp.Usage.PromptTokens = 20
		resp.Usage.TotalTokens = 20
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb := NewEmbedder(EmbedderConfig{
		Config: Config{APIKey: "test-key", BaseURL: server.URL},
		Model:  "text-embedding-3-small",
	})
	res, err := emb.BatchEmbed(context.Background(), []string{"yacht", "rooftop"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != 2 || res.Embeddings[0][0] != 0.1 || res.Embeddings[1][0] != 0.3 {
		t.Errorf("unexpected embeddings %v", res.Embeddings)
	}
	if res.TotalTokens != 20 {
		t.Errorf("expected 20 tokens, got %d", res.TotalTokens)
	}
}

func TestEmbedder_EmbedSingle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := embeddingResponse{Object: "list"}
		resp.Data = []embeddingDatum{{Object: "embedding", Embedding: []float32{1, 0}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb := NewEmbedder(EmbedderConfig{Config: Config{APIKey: "k", BaseURL: server.URL}, Model: "m"})
	res, err := emb.Embed(context.Background(), "yacht")
	if err != nil || len(res.Embedding) != 2 {
		t.Fatalf("unexpected result %v %v", res, err)
	}
}

func TestEmbedder_ErrorDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"model not found"}`))
	}))
	defer server.Close()

	emb := NewEmbedder(EmbedderConfig{Config: Config{APIKey: "k", BaseURL: server.URL}, Model: "m"})
	_, err := emb.Embed(context.Background(), "x")
	if !errors.Is(err, domain.ErrLLMProviderError) {
		t.Fatalf("expected ErrLLMProviderError, got %v", err)
	}
}

func TestEmbedder_BatchEmbedEmpty(t *testing.T) {
	emb := NewEmbedder(EmbedderConfig{Config: Config{APIKey: "k", BaseURL: "http://unused"}, Model: "m"})
	res, err := emb.BatchEmbed(context.Background(), nil)
	if err != nil || len(res.Embeddings) != 0 {
		t.Fatalf("expected empty result, got %v %v", res, err)
	}
}
