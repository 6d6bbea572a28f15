package chi

import (
	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
)

// ErrorCode is the machine-readable error identifier in error responses.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeIndexNotReady    ErrorCode = "index_not_ready"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the body of POST /v1/search.
type SearchRequest struct {
	Query   string         `json:"query"`
	Filters filter.Applied `json:"filters"`
}

// OfferItem is one offer in POST /v1/offers.
type OfferItem struct {
	VendorID      string   `json:"vendor_id"`
	Title         string   `json:"title"`
	City          string   `json:"city"`
	HeadcountMin  int      `json:"headcount_min"`
	HeadcountMax  int      `json:"headcount_max"`
	PriceMin      float64  `json:"price_min"`
	PriceMax      float64  `json:"price_max"`
	DurationHours float64  `json:"duration_hours"`
	Occasion      []string `json:"occasion"`
	Tags          []string `json:"tags"`
	UpdatedAt     string   `json:"updated_at"`
	Description   string   `json:"description"`
}

// AddOffersRequest is the body of POST /v1/offers.
type AddOffersRequest struct {
	Offers []OfferItem `json:"offers"`
	Hot    bool        `json:"hot"`
}

// AddOffersResponse reports the inserted ids and the rebuilt index sizes.
type AddOffersResponse struct {
	IDs    []int64 `json:"ids"`
	Stable int     `json:"stable"`
	Hot    int     `json:"hot"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

func offerFromItem(it *OfferItem, hot bool) offer.Offer {
	return offer.Offer{
		VendorID:      it.VendorID,
		Title:         it.Title,
		City:          it.City,
		HeadcountMin:  it.HeadcountMin,
		HeadcountMax:  it.HeadcountMax,
		PriceMin:      it.PriceMin,
		PriceMax:      it.PriceMax,
		DurationHours: it.DurationHours,
		Occasion:      it.Occasion,
		Tags:          it.Tags,
		UpdatedAt:     it.UpdatedAt,
		Description:   it.Description,
		Hot:           hot,
	}
}
