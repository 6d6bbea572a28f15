// Package filter holds the metadata constraints applied to retrieved offers.
package filter

import (
	"strings"

	"github.com/sahraevent/venuesearch/internal/domain/document"
)

// Applied are the filters set explicitly by the caller. Zero values mean "not applied".
type Applied struct {
	City      string  `json:"city,omitempty"`
	Occasion  string  `json:"occasion,omitempty"`
	Headcount int     `json:"headcount,omitempty"`
	Budget    float64 `json:"budget,omitempty"`
	Date      string  `json:"date,omitempty"`
}

// IsEmpty reports whether no filter is applied.
func (a Applied) IsEmpty() bool {
	return a.City == "" && a.Occasion == "" && a.Headcount <= 0 && a.Budget <= 0 && a.Date == ""
}

// Filters converts applied filters into retrieval filters. Date is not a retrieval criterion.
func (a Applied) Filters() Filters {
	return Filters{City: a.City, Occasion: a.Occasion, Headcount: a.Headcount, Budget: a.Budget}
}

// Filters constrain retrieval results. Unset fields are permissive.
type Filters struct {
	City      string
	Occasion  string
	Headcount int
	Budget    float64
}

// IsEmpty reports whether every field is unset.
func (f Filters) IsEmpty() bool {
	return f.City == "" && f.Occasion == "" && f.Headcount <= 0 && f.Budget <= 0
}

// Match reports whether the metadata satisfies every set field.
func (f Filters) Match(m *document.Meta) bool {
	if f.City != "" && !strings.EqualFold(m.City, f.City) {
		return false
	}
	if f.Headcount > 0 && (f.Headcount < m.HeadcountMin || f.Headcount > m.HeadcountMax) {
		return false
	}
	if f.Budget > 0 && (f.Budget < m.PriceMin || f.Budget > m.PriceMax) {
		return false
	}
	if f.Occasion != "" && !m.HasOccasion(f.Occasion) {
		return false
	}
	return true
}

// Reject returns the name of the first field that rejects m, or "" when m matches.
func (f Filters) Reject(m *document.Meta) string {
	switch {
	case f.City != "" && !strings.EqualFold(m.City, f.City):
		return "city"
	case f.Occasion != "" && !m.HasOccasion(f.Occasion):
		return "occasion"
	case f.Headcount > 0 && (f.Headcount < m.HeadcountMin || f.Headcount > m.HeadcountMax):
		return "headcount"
	case f.Budget > 0 && (f.Budget < m.PriceMin || f.Budget > m.PriceMax):
		return "budget"
	}
	return ""
}
