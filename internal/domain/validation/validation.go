// Package validation holds the per-run result of the validation stage.
package validation

import (
	"time"

	"github.com/sahraevent/venuesearch/internal/domain/offer"
)

// StaleAfterDays is the age in days beyond which a listing needs reconfirmation.
const StaleAfterDays = 14

// Result lists the slots worth asking for and the stale document ids.
type Result struct {
	Missing  []string `json:"missing"`
	StaleIDs []int64  `json:"stale_ids"`
}

// Empty returns a result with non-nil empty lists.
func Empty() Result {
	return Result{Missing: []string{}, StaleIDs: []int64{}}
}

// AgeDays returns the number of calendar days between updatedAt and now.
// ok is false when updatedAt does not parse.
func AgeDays(updatedAt string, now time.Time) (days int, ok bool) {
	upd, err := time.Parse(offer.DateLayout, updatedAt)
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(today.Sub(upd).Hours() / 24), true
}

// IsStale reports whether updatedAt is more than StaleAfterDays before now.
// Unparseable dates are never stale.
func IsStale(updatedAt string, now time.Time) bool {
	days, ok := AgeDays(updatedAt, now)
	return ok && days > StaleAfterDays
}
