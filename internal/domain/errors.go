package domain

import "errors"

var (
	// ErrIndexNotBuilt signals that the offer indexes have not been built yet.
	ErrIndexNotBuilt = errors.New("index not built")
	// ErrInvalidOffer signals an offer that violates its range invariants.
	ErrInvalidOffer = errors.New("invalid offer")
	// ErrLLMProviderError signals a completion or embedding provider failure.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrEmptyCompletion signals a provider response without any content.
	ErrEmptyCompletion = errors.New("empty completion")
	// ErrRerankFailed signals a cross-encoder failure.
	ErrRerankFailed = errors.New("rerank failed")
	// ErrTimeout signals an external call that exceeded its budget.
	ErrTimeout = errors.New("external call timed out")
)
