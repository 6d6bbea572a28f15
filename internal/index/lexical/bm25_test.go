package lexical

import (
	"context"
	"testing"
)

func newTestIndex() *Index {
	return New("lexical/stable",
		[]int64{10, 20, 30, 40},
		[]string{
			"Sunset yacht cruise in Dubai marina",
			"Rooftop terrace for corporate dinners",
			"Beach club party venue with DJ",
			"Ballroom for weddings and award nights",
		})
}

func TestSearch_RanksMatchingDocumentFirst(t *testing.T) {
	hits, err := newTestIndex().Search(context.Background(), "yacht Dubai", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != 10 || hits[0].Score <= 0 {
		t.Errorf("expected doc 10 first with positive score, got %+v", hits[0])
	}
}

func TestSearch_IncludesZeroScoresInCorpusOrder(t *testing.T) {
	hits, _ := newTestIndex().Search(context.Background(), "helicopter", 10)
	if len(hits) != 4 {
		t.Fatalf("expected whole corpus, got %d", len(hits))
	}
	for i, want := range []int64{10, 20, 30, 40} {
		if hits[i].ID != want || hits[i].Score != 0 {
			t.Errorf("hit %d = %+v, want id %d score 0", i, hits[i], want)
		}
	}
}

func TestScores_CommonTermUsesEpsilonFloor(t *testing.T) {
	idx := New("x", []int64{1, 2, 3, 4}, []string{"venue venue hall", "venue garden", "venue terrace", "ballroom"})

	// "venue" is in 3 of 4 docs, so its raw idf is negative.
	if idx.idf["venue"] <= 0 {
		t.Errorf("expected floored positive idf, got %f", idx.idf["venue"])
	}
	scores := idx.Scores("venue")
	if scores[0] <= scores[1] || scores[1] != scores[2] || scores[3] != 0 {
		t.Errorf("unexpected scores %v", scores)
	}
}

func TestSearch_EmptyIndex(t *testing.T) {
	hits, err := New("empty", nil, nil).Search(context.Background(), "yacht", 5)
	if err != nil || len(hits) != 0 {
		t.Fatalf("expected no hits, got %v %v", hits, err)
	}
}
