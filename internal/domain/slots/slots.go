// Package slots holds the structured search criteria extracted from a query.
package slots

import (
	"strings"
	"time"

	"github.com/sahraevent/venuesearch/internal/domain/offer"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
)

// IntentVenueSearch is the only supported intent.
const IntentVenueSearch = "venue_search"

// Slot names used in validation suggestions.
const (
	City      = "city"
	Occasion  = "occasion"
	Headcount = "headcount"
	Budget    = "budget"
	Date      = "date"
)

// Cities is the closed set of supported cities.
var Cities = []string{"Dubai", "Abu Dhabi"}

// Occasions is the closed set of supported occasions.
var Occasions = []string{"corporate", "party", "conference", "award", "intimate", "family", "wedding"}

// Slots are the per-query search attributes. Nil means unset.
type Slots struct {
	Intent      string   `json:"intent"`
	City        *string  `json:"city"`
	Occasion    *string  `json:"occasion"`
	Headcount   *int     `json:"headcount"`
	Budget      *float64 `json:"budget"`
	Date        *string  `json:"date"`
	Constraints *string  `json:"constraints"`
}

// Sanitize nulls values outside the closed enumerations and forces the intent.
// It never rejects: invalid values degrade to unset.
func (s Slots) Sanitize() Slots {
	s.Intent = IntentVenueSearch
	s.City = canonical(s.City, Cities)
	s.Occasion = canonical(s.Occasion, Occasions)
	if s.Headcount != nil && *s.Headcount < 0 {
		s.Headcount = nil
	}
	if s.Budget != nil && *s.Budget < 0 {
		s.Budget = nil
	}
	if s.Date != nil {
		if _, err := time.Parse(offer.DateLayout, *s.Date); err != nil {
			s.Date = nil
		}
	}
	if s.Constraints != nil && strings.TrimSpace(*s.Constraints) == "" {
		s.Constraints = nil
	}
	return s
}

// Override copies every applied filter over the extracted value for the same field.
func (s Slots) Override(a filter.Applied) Slots {
	if a.City != "" {
		s.City = ptr(a.City)
	}
	if a.Occasion != "" {
		s.Occasion = ptr(a.Occasion)
	}
	if a.Headcount > 0 {
		s.Headcount = ptr(a.Headcount)
	}
	if a.Budget > 0 {
		s.Budget = ptr(a.Budget)
	}
	if a.Date != "" {
		s.Date = ptr(a.Date)
	}
	return s
}

// FromApplied synthesizes slots from applied filters alone.
func FromApplied(a filter.Applied) Slots {
	return Slots{Intent: IntentVenueSearch}.Override(a)
}

// Filters converts slots into retrieval filters.
func (s Slots) Filters() filter.Filters {
	var f filter.Filters
	if s.City != nil {
		f.City = *s.City
	}
	if s.Occasion != nil {
		f.Occasion = *s.Occasion
	}
	if s.Headcount != nil {
		f.Headcount = *s.Headcount
	}
	if s.Budget != nil {
		f.Budget = *s.Budget
	}
	return f
}

// Has reports whether a field is set in the slots or in the applied filters.
func (s Slots) Has(field string, a filter.Applied) bool {
	switch field {
	case City:
		return nonEmpty(s.City) || a.City != ""
	case Occasion:
		return nonEmpty(s.Occasion) || a.Occasion != ""
	case Headcount:
		return (s.Headcount != nil && *s.Headcount > 0) || a.Headcount > 0
	case Budget:
		return (s.Budget != nil && *s.Budget > 0) || a.Budget > 0
	case Date:
		return nonEmpty(s.Date) || a.Date != ""
	}
	return false
}

// Value helpers for templates.

// CityOr returns the city or def.
func (s Slots) CityOr(def string) string { return deref(s.City, def) }

// OccasionOr returns the occasion or def.
func (s Slots) OccasionOr(def string) string { return deref(s.Occasion, def) }

// HeadcountOr returns the headcount or def.
func (s Slots) HeadcountOr(def int) int {
	if s.Headcount == nil {
		return def
	}
	return *s.Headcount
}

// BudgetOr returns the budget or def.
func (s Slots) BudgetOr(def float64) float64 {
	if s.Budget == nil {
		return def
	}
	return *s.Budget
}

func canonical(v *string, allowed []string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	for _, a := range allowed {
		if strings.EqualFold(trimmed, a) {
			return ptr(a)
		}
	}
	return nil
}

func nonEmpty(v *string) bool { return v != nil && *v != "" }

func deref(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func ptr[T any](v T) *T { return &v }
