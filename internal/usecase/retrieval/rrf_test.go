package retrieval

import (
	"math"
	"testing"

	"github.com/sahraevent/venuesearch/internal/index"
)

func hits(ids ...int64) []index.Hit {
	out := make([]index.Hit, len(ids))
	for i, id := range ids {
		out[i] = index.Hit{ID: id, Score: float64(len(ids) - i)}
	}
	return out
}

func scoreOf(res []fused, id int64) float64 {
	for _, f := range res {
		if f.id == id {
			return f.score
		}
	}
	return 0
}

func TestFuseRRF_ScoreFormula(t *testing.T) {
	res := fuseRRF([][]index.Hit{hits(1), hits(1)}, 60)
	// rank 1 in both: 1/61 + 1/61
	if math.Abs(res[0].score-2.0/61.0) > 1e-12 {
		t.Errorf("expected 2/61, got %f", res[0].score)
	}
}

func TestFuseRRF_OverlapBeatsSingleList(t *testing.T) {
	res := fuseRRF([][]index.Hit{hits(1, 2, 3), hits(2, 4, 1)}, 60)
	if len(res) != 4 {
		t.Fatalf("expected 4 results, got %d", len(res))
	}
	if res[0].id != 2 && res[0].id != 1 {
		t.Errorf("expected an overlapping doc first, got %d", res[0].id)
	}
	if scoreOf(res, 1) <= scoreOf(res, 3) || scoreOf(res, 2) <= scoreOf(res, 4) {
		t.Error("overlapping docs should outscore single-list docs")
	}
}

func TestFuseRRF_TiesByID(t *testing.T) {
	res := fuseRRF([][]index.Hit{hits(9), hits(3)}, 60)
	if res[0].id != 3 || res[1].id != 9 {
		t.Errorf("expected tie broken by id, got %+v", res)
	}
}

func TestFuseRRF_EmptySourcesTolerated(t *testing.T) {
	if res := fuseRRF([][]index.Hit{nil, nil, nil, nil}, 60); len(res) != 0 {
		t.Fatalf("expected no results, got %d", len(res))
	}
	res := fuseRRF([][]index.Hit{nil, hits(5, 6), nil, nil}, 60)
	if len(res) != 2 || res[0].id != 5 {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestFuseRRF_MonotonicWhenSourceRanksDocFirst(t *testing.T) {
	base := [][]index.Hit{hits(1, 2, 3), hits(3, 2, 1)}
	for _, target := range []int64{1, 2, 3, 7} {
		before := scoreOf(fuseRRF(base, 60), target)

		withExtra := append(append([][]index.Hit{}, base...), hits(target))
		after := scoreOf(fuseRRF(withExtra, 60), target)

		if after < before {
			t.Errorf("doc %d: fused score decreased from %f to %f", target, before, after)
		}
	}
}
