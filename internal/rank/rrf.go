// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"sort"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// DefaultK is the reciprocal rank fusion constant.
const DefaultK = 60

// RRFScore sums 1/(k+rank+1) over every distinct source in the paper's
// provenance. When a source saw the paper under several query variants, its
// best (lowest) rank counts once.
func RRFScore(p *types.Paper, k int) float64 {
	best := make(map[string]int)
	var order []string
	for _, pv := range p.Provenance {
		r, ok := best[pv.Source]
		if !ok {
			order = append(order, pv.Source)
			best[pv.Source] = pv.Rank
			continue
		}
		if pv.Rank < r {
			best[pv.Source] = pv.Rank
		}
	}
	var score float64
	for _, src := range order {
		score += 1.0 / float64(k+best[src]+1)
	}
	return score
}

// rrfStage writes Scores.RRF and stable-sorts the candidates by it. This
// order defines the shortlist for dense re-ranking.
type rrfStage struct {
	k int
}

func (rrfStage) Name() string { return "rrf" }

func (s rrfStage) Run(_ context.Context, sc *StageContext) error {
	for _, p := range sc.Papers {
		p.Scores.RRF = RRFScore(p, s.k)
	}
	sort.SliceStable(sc.Papers, func(i, j int) bool {
		return sc.Papers[i].Scores.RRF > sc.Papers[j].Scores.RRF
	})
	return nil
}
