package pipeline

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sahraevent/venuesearch/internal/domain/slots"
)

// rawSlots accepts loosely typed model output; each field is coerced on its own.
type rawSlots struct {
	Intent      any `json:"intent"`
	City        any `json:"city"`
	Occasion    any `json:"occasion"`
	Headcount   any `json:"headcount"`
	Budget      any `json:"budget"`
	Date        any `json:"date"`
	Constraints any `json:"constraints"`
}

// unknownSlots is returned when the model output is not a JSON object.
func unknownSlots() slots.Slots {
	return slots.Slots{Intent: "unknown"}
}

// parseSlotsJSON decodes the extraction output. Markdown code fences are
// stripped. ok is false when the text is not a JSON object, in which case the
// all-null default is returned. Values of the wrong type degrade to null.
func parseSlotsJSON(text string) (s slots.Slots, ok bool) {
	text = stripFences(text)

	var raw rawSlots
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return unknownSlots(), false
	}

	s.Intent, _ = raw.Intent.(string)
	s.City = asString(raw.City)
	s.Occasion = asString(raw.Occasion)
	s.Date = asString(raw.Date)
	s.Constraints = asString(raw.Constraints)
	if f, ok := asNumber(raw.Headcount); ok && f == math.Trunc(f) {
		n := int(f)
		s.Headcount = &n
	}
	if f, ok := asNumber(raw.Budget); ok {
		s.Budget = &f
	}
	return s, true
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func asString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(n), ",", ""), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
