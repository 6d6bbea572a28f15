package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BudgetStep is the bucket width used for budgets in query keys.
const BudgetStep = 1000

// NormalizeQuery trims, lowercases and collapses internal whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// BucketBudget returns the "lo-hi" bucket containing x, e.g. 15500 -> "15000-16000".
// An unset budget (zero) falls in the first bucket.
func BucketBudget(x float64, step int) string {
	if step <= 0 {
		return "na"
	}
	lo := int(math.Floor(x/float64(step))) * step
	return fmt.Sprintf("%d-%d", lo, lo+step)
}

// QueryKey derives the completion cache key. Headcount collapses to tens and
// budget to BudgetStep buckets so near-duplicate searches share an entry.
func QueryKey(query, city, occasion string, headcount int, budget float64, season string) string {
	return digest(
		NormalizeQuery(query),
		city,
		occasion,
		strconv.Itoa(headcount/10*10),
		BucketBudget(budget, BudgetStep),
		season,
	)
}

// ExactKey hashes parts verbatim.
func ExactKey(parts ...string) string {
	return digest(parts...)
}

func digest(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
