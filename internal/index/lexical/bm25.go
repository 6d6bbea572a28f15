// Package lexical implements an in-memory BM25 (Okapi) index.
package lexical

import (
	"context"
	"math"
	"sort"

	"github.com/sahraevent/venuesearch/internal/index"
)

// BM25 parameters.
const (
	K1      = 1.5
	B       = 0.75
	Epsilon = 0.25
)

var _ index.Source = (*Index)(nil)

// Index is an immutable BM25 index over a fixed corpus.
type Index struct {
	name   string
	ids    []int64
	tf     []map[string]int
	lens   []int
	avgLen float64
	idf    map[string]float64
}

// New builds an index. ids[i] identifies texts[i].
func New(name string, ids []int64, texts []string) *Index {
	idx := &Index{
		name: name,
		ids:  ids,
		tf:   make([]map[string]int, len(texts)),
		lens: make([]int, len(texts)),
	}

	df := make(map[string]int)
	total := 0
	for i, text := range texts {
		tokens := index.Tokenize(text)
		freqs := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freqs[tok]++
		}
		for tok := range freqs {
			df[tok]++
		}
		idx.tf[i] = freqs
		idx.lens[i] = len(tokens)
		total += len(tokens)
	}
	if len(texts) > 0 {
		idx.avgLen = float64(total) / float64(len(texts))
	}
	idx.idf = computeIDF(df, len(texts))
	return idx
}

// computeIDF floors negative IDFs (terms in more than half the corpus)
// at Epsilon times the mean IDF.
func computeIDF(df map[string]int, n int) map[string]float64 {
	idf := make(map[string]float64, len(df))
	var (
		sum      float64
		negative []string
	)
	for term, freq := range df {
		v := math.Log(float64(n)-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idf[term] = v
		sum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(idf) == 0 {
		return idf
	}
	floor := Epsilon * sum / float64(len(idf))
	for _, term := range negative {
		idf[term] = floor
	}
	return idf
}

// Name returns the index label.
func (x *Index) Name() string { return x.name }

// Kind returns index.Lexical.
func (x *Index) Kind() index.Kind { return index.Lexical }

// Len returns the corpus size.
func (x *Index) Len() int { return len(x.ids) }

// Scores returns the BM25 score of every document for the query, in corpus order.
func (x *Index) Scores(query string) []float64 {
	scores := make([]float64, len(x.ids))
	if x.avgLen == 0 {
		return scores
	}
	for _, term := range index.Tokenize(query) {
		idf, ok := x.idf[term]
		if !ok {
			continue
		}
		for i, freqs := range x.tf {
			f := float64(freqs[term])
			if f == 0 {
				continue
			}
			norm := K1 * (1 - B + B*float64(x.lens[i])/x.avgLen)
			scores[i] += idf * f * (K1 + 1) / (f + norm)
		}
	}
	return scores
}

// Search ranks the whole corpus by score and returns the top k.
// Ties keep corpus order; zero-score documents are included.
func (x *Index) Search(_ context.Context, query string, k int) ([]index.Hit, error) {
	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}
	scores := x.Scores(query)
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	if k > len(order) {
		k = len(order)
	}
	hits := make([]index.Hit, k)
	for i := range hits {
		hits[i] = index.Hit{ID: x.ids[order[i]], Score: scores[order[i]]}
	}
	return hits, nil
}
