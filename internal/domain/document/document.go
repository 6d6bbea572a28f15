// Package document holds the derived, query-time view of an offer.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sahraevent/venuesearch/internal/domain/offer"
)

// Meta is the filterable metadata of a document.
type Meta struct {
	ID            int64    `json:"id"`
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

// Document is built on demand from an offer row and never persisted.
// Snippet is set only on the leading results of a query; Score is the fused rank score.
type Document struct {
	ID      int64   `json:"id"`
	Text    string  `json:"text"`
	Meta    Meta    `json:"meta"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
}

// FromOffer composes the searchable text and metadata of an offer.
func FromOffer(o *offer.Offer) Document {
	occ := offer.JoinList(o.Occasion)
	tags := offer.JoinList(o.Tags)
	text := fmt.Sprintf("%s. %s (City: %s; Capacity: %d-%d; Price: %s-%s; Occasions: %s; Tags: %s)",
		o.Title, o.Description, o.City,
		o.HeadcountMin, o.HeadcountMax,
		FormatAmount(o.PriceMin), FormatAmount(o.PriceMax),
		occ, tags,
	)

	return Document{
		ID:   o.ID,
		Text: text,
		Meta: Meta{
			ID:            o.ID,
			VendorID:      o.VendorID,
			Title:         o.Title,
			City:          o.City,
			HeadcountMin:  o.HeadcountMin,
			HeadcountMax:  o.HeadcountMax,
			PriceMin:      o.PriceMin,
			PriceMax:      o.PriceMax,
			DurationHours: o.DurationHours,
			Occasion:      o.Occasion,
			Tags:          o.Tags,
			UpdatedAt:     o.UpdatedAt,
			Description:   o.Description,
		},
	}
}

// HasOccasion reports case-insensitive membership in the occasion set.
func (m *Meta) HasOccasion(occasion string) bool {
	for _, o := range m.Occasion {
		if strings.EqualFold(o, occasion) {
			return true
		}
	}
	return false
}

// Salient returns the title followed by the first sentence of the description.
func (d *Document) Salient() string {
	first := FirstSentence(d.Meta.Description)
	if first == "" {
		return d.Meta.Title
	}
	return d.Meta.Title + ": " + first
}

// FirstSentence returns the text up to the first period, trimmed.
func FirstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// FormatAmount prints an amount without a trailing fraction when it is whole.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
