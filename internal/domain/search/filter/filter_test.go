package filter

import (
	"testing"

	"github.com/sahraevent/venuesearch/internal/domain/document"
)

func meta() *document.Meta {
	return &document.Meta{
		City: "Dubai", HeadcountMin: 10, HeadcountMax: 40,
		PriceMin: 5000, PriceMax: 20000, Occasion: []string{"Party", "corporate"},
	}
}

func TestFilters_Match(t *testing.T) {
	tests := []struct {
		name   string
		f      Filters
		want   bool
		reason string
	}{
		{"empty is permissive", Filters{}, true, ""},
		{"city case-insensitive", Filters{City: "dubai"}, true, ""},
		{"city mismatch", Filters{City: "Abu Dhabi"}, false, "city"},
		{"headcount lower bound", Filters{Headcount: 10}, true, ""},
		{"headcount upper bound", Filters{Headcount: 40}, true, ""},
		{"headcount too big", Filters{Headcount: 41}, false, "headcount"},
		{"budget inside", Filters{Budget: 15000}, true, ""},
		{"budget below", Filters{Budget: 4999}, false, "budget"},
		{"occasion case-insensitive", Filters{Occasion: "PARTY"}, true, ""},
		{"occasion missing", Filters{Occasion: "wedding"}, false, "occasion"},
		{"all fields", Filters{City: "Dubai", Headcount: 25, Budget: 15000, Occasion: "party"}, true, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(meta()); got != tc.want {
				t.Errorf("Match = %v, want %v", got, tc.want)
			}
			if got := tc.f.Reject(meta()); got != tc.reason {
				t.Errorf("Reject = %q, want %q", got, tc.reason)
			}
		})
	}
}

func TestApplied_Filters(t *testing.T) {
	a := Applied{City: "Dubai", Headcount: 50, Date: "2026-12-01"}
	f := a.Filters()
	if f.City != "Dubai" || f.Headcount != 50 || f.Occasion != "" || f.Budget != 0 {
		t.Errorf("unexpected filters %+v", f)
	}
	if a.IsEmpty() {
		t.Error("applied filters should not be empty")
	}
	if !(Applied{}).IsEmpty() {
		t.Error("zero applied filters should be empty")
	}
}
