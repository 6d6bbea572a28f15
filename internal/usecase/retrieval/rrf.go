package retrieval

import (
	"sort"

	"github.com/sahraevent/venuesearch/internal/index"
)

// defaultRRFK is the Reciprocal Rank Fusion constant (Cormack et al. 2009).
const defaultRRFK = 60

type fused struct {
	id    int64
	score float64
}

// fuseRRF merges ranked lists via Reciprocal Rank Fusion.
// score(d) = sum of 1/(k + rank_i(d)) over every list containing d, rank 1-based.
// Output is ordered by fused score descending, ties by id ascending.
func fuseRRF(lists [][]index.Hit, k int) []fused {
	scores := make(map[int64]float64)
	for _, hits := range lists {
		for rank, h := range hits {
			scores[h.ID] += 1.0 / float64(k+rank+1)
		}
	}

	out := make([]fused, 0, len(scores))
	for id, s := range scores {
		out = append(out, fused{id: id, score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].id < out[j].id
	})
	return out
}
