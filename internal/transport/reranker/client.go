// Package reranker is an HTTP client for a cross-encoder rerank service.
package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sahraevent/venuesearch/internal/domain"
)

type rerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type rerankResponse struct {
	Results []rerankResult `json:"results"`
}

// Client calls POST {base}/v1/rerank.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

// New creates a rerank client. A nil httpClient gets one with the given timeout.
func New(baseURL, model string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    httpClient,
	}
}

// Rerank scores each passage against the query. Scores align with passages;
// passages the service omits score zero.
func (c *Client) Rerank(ctx context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(rerankRequest{Query: query, Candidates: passages, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %w", domain.ErrRerankFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrRerankFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRerankFailed, resp.StatusCode, body)
	}

	var out rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", domain.ErrRerankFailed, err)
	}

	scores := make([]float64, len(passages))
	for _, r := range out.Results {
		if r.Index < 0 || r.Index >= len(passages) {
			return nil, fmt.Errorf("%w: result index %d out of range", domain.ErrRerankFailed, r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}
