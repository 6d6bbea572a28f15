package pipeline

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/slots"
)

// genericApology is the answer of a run in which no stage produced one.
const genericApology = "Sorry, something went wrong while searching for venues. Please try again."

const staleNote = " (stale; needs reconfirmation)"

// largeGroup is the headcount above which splitting across venues is suggested.
const largeGroup = 200

var printer = message.NewPrinter(language.English)

// groupedAmount formats v with thousands separators, e.g. 15000 -> "15,000".
func groupedAmount(v float64) string {
	if v == math.Trunc(v) {
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.2f", v)
}

// noResultsAnswer explains an empty result set and suggests how to widen it.
func noResultsAnswer(s slots.Slots, currency string) string {
	city := s.CityOr("")
	occasion := s.OccasionOr("")
	headcount := s.HeadcountOr(0)
	budget := s.BudgetOr(0)

	var criteria []string
	if city != "" {
		criteria = append(criteria, "in "+city)
	}
	if occasion != "" {
		criteria = append(criteria, "for "+occasion+" events")
	}
	if headcount > 0 {
		criteria = append(criteria, fmt.Sprintf("with capacity for %d guests", headcount))
	}
	if budget > 0 {
		criteria = append(criteria, fmt.Sprintf("within %s %s budget", groupedAmount(budget), currency))
	}

	var suggestions []string
	if budget > 0 {
		suggestions = append(suggestions, "Try increasing your budget")
	}
	if headcount > largeGroup {
		suggestions = append(suggestions, "Consider splitting into multiple venues for very large groups")
	}
	switch {
	case city != "" && occasion != "" && headcount > 0:
		suggestions = append(suggestions, "Try relaxing some requirements")
	case city == "":
		suggestions = append(suggestions, "Specify a city (Dubai or Abu Dhabi)")
	case occasion == "":
		suggestions = append(suggestions, "Specify the occasion type")
	}

	var b strings.Builder
	if len(criteria) > 0 {
		b.WriteString("I couldn't find any venues " + strings.Join(criteria, " ") + ".")
	} else {
		b.WriteString("I couldn't find any venues matching your search.")
	}
	if len(suggestions) > 0 {
		b.WriteString("\n\nSuggestions:\n- " + strings.Join(suggestions, "\n- "))
	}
	b.WriteString("\n\nWould you like to adjust your search criteria?")
	return b.String()
}

// fallbackAnswer lists the candidates when composition fails. Every bullet
// carries its document id.
func fallbackAnswer(s slots.Slots, cands []candidate, currency string) string {
	var active []string
	if c := s.CityOr(""); c != "" {
		active = append(active, c)
	}
	if o := s.OccasionOr(""); o != "" {
		active = append(active, o+" events")
	}
	if h := s.HeadcountOr(0); h > 0 {
		active = append(active, fmt.Sprintf("%d people", h))
	}
	if b := s.BudgetOr(0); b > 0 {
		active = append(active, fmt.Sprintf("%s %s budget", document.FormatAmount(b), currency))
	}

	lines := make([]string, 0, len(cands)+1)
	if len(active) > 0 {
		lines = append(lines, "Here are venues for "+strings.Join(active, ", ")+":\n")
	} else {
		lines = append(lines, "Here are some venue recommendations:\n")
	}
	for _, c := range cands {
		note := ""
		if c.stale {
			note = staleNote
		}
		lines = append(lines, fmt.Sprintf("- %s in %s • %s-%s%s [#%d]",
			c.Title, c.City, document.FormatAmount(c.PriceMin), document.FormatAmount(c.PriceMax), note, c.ID))
	}
	return strings.Join(lines, "\n")
}
