// Package offer holds the persisted vendor offer entity.
package offer

import (
	"fmt"
	"strings"

	"github.com/sahraevent/venuesearch/internal/domain"
)

// DateLayout is the calendar date format of UpdatedAt.
const DateLayout = "2006-01-02"

// Partition selects the stable or hot slice of the corpus.
type Partition string

const (
	// Stable holds long-unchanged listings.
	Stable Partition = "stable"
	// Hot holds recently changed listings, indexed separately.
	Hot Partition = "hot"
)

// PartitionOf maps the persisted is_hot flag to a Partition.
func PartitionOf(hot bool) Partition {
	if hot {
		return Hot
	}
	return Stable
}

// Offer is a single vendor listing. ID is assigned by the store on insert.
type Offer struct {
	ID            int64
	VendorID      string
	Title         string
	City          string
	HeadcountMin  int
	HeadcountMax  int
	PriceMin      float64
	PriceMax      float64
	DurationHours float64
	Occasion      []string
	Tags          []string
	UpdatedAt     string
	Description   string
	Hot           bool
}

// Validate checks the range invariants of an offer.
func (o *Offer) Validate() error {
	if strings.TrimSpace(o.VendorID) == "" {
		return fmt.Errorf("%w: vendor_id is required", domain.ErrInvalidOffer)
	}
	if strings.TrimSpace(o.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidOffer)
	}
	if o.HeadcountMin < 0 || o.HeadcountMin > o.HeadcountMax {
		return fmt.Errorf("%w: headcount range %d-%d", domain.ErrInvalidOffer, o.HeadcountMin, o.HeadcountMax)
	}
	if o.PriceMin < 0 || o.PriceMin > o.PriceMax {
		return fmt.Errorf("%w: price range %g-%g", domain.ErrInvalidOffer, o.PriceMin, o.PriceMax)
	}
	return nil
}

// Partition returns the partition the offer belongs to.
func (o *Offer) Partition() Partition { return PartitionOf(o.Hot) }

// SplitList parses a comma-joined set, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(items, ",")
}
