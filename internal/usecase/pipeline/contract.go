package pipeline

import (
	"context"

	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
	"github.com/sahraevent/venuesearch/internal/usecase/llm"
)

// Retriever returns filtered, ranked documents for a query.
type Retriever interface {
	Search(ctx context.Context, query string, filters filter.Filters) ([]document.Document, error)
}

// Completer produces model output for a task.
type Completer interface {
	Complete(ctx context.Context, task llm.Task, system, user string) (string, error)
}

// AnswerCache stores composed answers by query key.
type AnswerCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, answer string)
}

// Readiness reports whether the indexes are queryable.
type Readiness interface {
	Ready() bool
}
