// Package index defines the retrieval source contract shared by the lexical and dense indexes.
package index

import (
	"context"
	"strings"
	"unicode"
)

// Kind identifies the retrieval signal of a source.
type Kind string

const (
	// Lexical is keyword (BM25) retrieval.
	Lexical Kind = "lexical"
	// Dense is embedding similarity retrieval.
	Dense Kind = "dense"
)

// Hit is one ranked candidate from a source.
type Hit struct {
	ID    int64
	Score float64
}

// Source returns up to k hits for a query, best first.
type Source interface {
	Name() string
	Kind() Kind
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}

// Absent is a source with no index behind it. It always returns no hits.
type Absent struct {
	Label string
	Of    Kind
}

// Name returns the source label.
func (a Absent) Name() string { return a.Label }

// Kind returns the signal the missing index would provide.
func (a Absent) Kind() Kind { return a.Of }

// Search returns no hits.
func (Absent) Search(context.Context, string, int) ([]Hit, error) { return nil, nil }

// Tokenize lowercases text and splits it on runs of non-letter, non-digit runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
