package venuesearch

import "github.com/sahraevent/venuesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrIndexNotBuilt    = domain.ErrIndexNotBuilt
	ErrInvalidOffer     = domain.ErrInvalidOffer
	ErrLLMProviderError = domain.ErrLLMProviderError
)
