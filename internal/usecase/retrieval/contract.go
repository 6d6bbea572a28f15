package retrieval

import (
	"context"

	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/index"
)

// Index is the dual-partition offer index.
type Index interface {
	Sources() ([]index.Source, error)
	GetDocsByIDs(ctx context.Context, ids []int64) ([]document.Document, error)
	Generation() uint64
}

// Reranker scores passages against a query. Scores align with passages.
type Reranker interface {
	Rerank(ctx context.Context, query string, passages []string) ([]float64, error)
}
