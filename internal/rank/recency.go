// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"math"
)

// Recency sigmoid parameters.
const (
	DefaultReferenceYear = 2019
	DefaultSpread        = 3.0
)

// RecencyScore returns 1/(1+exp(-(year-ref)/spread)). Unknown years score 0.
func RecencyScore(year, ref int, spread float64) float64 {
	if year <= 0 {
		return 0
	}
	if spread <= 0 {
		spread = DefaultSpread
	}
	return 1 / (1 + math.Exp(-float64(year-ref)/spread))
}

// recencyStage writes Scores.Recency.
type recencyStage struct {
	ref    int
	spread float64
}

func (recencyStage) Name() string { return "recency" }

func (s recencyStage) Run(_ context.Context, sc *StageContext) error {
	for _, p := range sc.Papers {
		p.Scores.Recency = RecencyScore(p.Year, s.ref, s.spread)
	}
	return nil
}
