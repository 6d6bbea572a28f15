package pipeline

import (
	"fmt"
	"strings"

	"github.com/sahraevent/venuesearch/internal/domain/document"
	"github.com/sahraevent/venuesearch/internal/domain/search/filter"
)

const systemPromptTemplate = `You are SahraEvent's planning assistant. Currency is %[1]s.
Always cite chunk IDs like [#<id>] next to the claims you make.
If you have good results, present them confidently. Only ask for more info if truly needed to narrow down or if no results were found.
If any data is older than 14 days, surface a staleness note.
Never invent availability; suggest 'pending verification' if a tool timed out.
Be helpful and conversational, not pushy about unnecessary details.`

const slotPromptTemplate = `Extract venue search criteria from the user's query. Focus on: city, occasion, headcount, and budget.

Return ONLY a valid JSON object (no markdown, no code blocks, no explanations).

Required format:
{"intent": "venue_search", "city": "Dubai", "occasion": "party", "headcount": 25, "budget": 15000, "date": null, "constraints": null}

Field rules:
- city: ONLY "Dubai" or "Abu Dhabi" (null if not mentioned)
- occasion: One of ["corporate", "party", "conference", "award", "intimate", "family", "wedding"] (null if unclear)
- headcount: Integer number of people (null if not mentioned)
- budget: Integer %[1]s amount (null if not mentioned)
- date: ISO format YYYY-MM-DD (null if not mentioned)
- constraints: String for special requirements (null if none)

Extract ONLY explicit information. Do not guess or infer.

User query: %[2]s`

const composerPromptTemplate = `Based on the search results below, write a helpful response to the user.

Guidelines:
- If there are venues: Present them as a bullet list with key details (capacity, price range)
- ALWAYS cite venue IDs like [#123] after each recommendation
- Keep it concise (<= 300 tokens), natural and conversational
- If no venues found: Politely explain why and suggest adjusting search criteria (be specific about what to adjust)
- Never invent data or suggest venues not in the results

Search Results:
%s`

func systemPrompt(currency string) string {
	return fmt.Sprintf(systemPromptTemplate, currency)
}

// slotPrompt builds the extraction prompt. Applied filters are listed so the
// model does not contradict them.
func slotPrompt(query string, applied filter.Applied, currency string) string {
	prompt := fmt.Sprintf(slotPromptTemplate, currency, query)

	var parts []string
	if applied.City != "" {
		parts = append(parts, "City: "+applied.City)
	}
	if applied.Occasion != "" {
		parts = append(parts, "Occasion: "+applied.Occasion)
	}
	if applied.Headcount > 0 {
		parts = append(parts, fmt.Sprintf("Headcount: %d", applied.Headcount))
	}
	if applied.Budget > 0 {
		parts = append(parts, fmt.Sprintf("Budget: %s %s", document.FormatAmount(applied.Budget), currency))
	}
	if applied.Date != "" {
		parts = append(parts, "Date: "+applied.Date)
	}
	if len(parts) > 0 {
		prompt += "\nApplied filters: " + strings.Join(parts, ", ")
	}
	return prompt
}

func composerPrompt(facts string) string {
	return fmt.Sprintf(composerPromptTemplate, facts)
}
