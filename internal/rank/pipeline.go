// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank implements the fusion pipeline that orders deduplicated
// candidates: reciprocal rank fusion, BM25 lexical relevance, recency,
// dense re-ranking of a shortlist, authority boosts, and the weighted
// composite score. Each stage writes one field of the paper's score annex.
package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfuse/internal/embed"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// StageContext is the mutable state passed through the stages.
type StageContext struct {
	Query       string
	Papers      []*types.Paper
	DenseStatus string
}

// Stage is one step of the fusion pipeline.
type Stage interface {
	Name() string
	Run(ctx context.Context, sc *StageContext) error
}

// Weights are the linear weights of the composite score. Authority is
// added on top, unweighted.
type Weights struct {
	RRF     float64
	BM25    float64
	Dense   float64
	Recency float64
}

// DefaultWeights returns 0.45 RRF, 0.2 BM25, 0.2 dense, 0.15 recency.
func DefaultWeights() Weights {
	return Weights{RRF: 0.45, BM25: 0.2, Dense: 0.2, Recency: 0.15}
}

// weightTolerance bounds how far the weight sum may drift from 1.
const weightTolerance = 1e-6

// ErrInvalidWeights is returned by Validate and NewPipeline.
var ErrInvalidWeights = errors.New("invalid fusion weights")

// Validate rejects negative weights and weights that do not sum to 1.
func (w Weights) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{{"rrf", w.RRF}, {"bm25", w.BM25}, {"dense", w.Dense}, {"recency", w.Recency}} {
		if c.v < 0 {
			return fmt.Errorf("%w: %s weight is negative (%g)", ErrInvalidWeights, c.name, c.v)
		}
	}
	if sum := w.RRF + w.BM25 + w.Dense + w.Recency; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %g, want 1", ErrInvalidWeights, sum)
	}
	return nil
}

// Map returns the weights keyed by component name for diagnostics.
func (w Weights) Map() map[string]float64 {
	return map[string]float64{"rrf": w.RRF, "bm25": w.BM25, "dense": w.Dense, "recency": w.Recency}
}

// WeightsFromConfig converts configured weights, falling back to the
// defaults when every configured weight is zero.
func WeightsFromConfig(c types.WeightsConfig) Weights {
	w := Weights{RRF: c.RRF, BM25: c.BM25, Dense: c.Dense, Recency: c.Recency}
	if w == (Weights{}) {
		return DefaultWeights()
	}
	return w
}

// Params configure a Pipeline. Zero values select the defaults.
type Params struct {
	K             int
	Weights       Weights
	ShortlistSize int
	ReferenceYear int
	Spread        float64
}

func (p Params) withDefaults() Params {
	if p.K <= 0 {
		p.K = DefaultK
	}
	if p.Weights == (Weights{}) {
		p.Weights = DefaultWeights()
	}
	if p.ShortlistSize <= 0 {
		p.ShortlistSize = DefaultShortlist
	}
	if p.ReferenceYear <= 0 {
		p.ReferenceYear = DefaultReferenceYear
	}
	if p.Spread <= 0 {
		p.Spread = DefaultSpread
	}
	return p
}

// Pipeline runs the fusion stages in order.
type Pipeline struct {
	params Params
	stages []Stage
	logger zerolog.Logger
}

// NewPipeline validates p and assembles the stages. A nil embedder disables
// dense scoring; the dense component is then 0 for every paper.
func NewPipeline(p Params, e embed.Embedder, logger zerolog.Logger) (*Pipeline, error) {
	p = p.withDefaults()
	if err := p.Weights.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		params: p,
		logger: logger,
		stages: []Stage{
			rrfStage{k: p.K},
			bm25Stage{},
			recencyStage{ref: p.ReferenceYear, spread: p.Spread},
			denseStage{embedder: e, shortlist: p.ShortlistSize, logger: logger},
			authorityStage{},
			finalStage{weights: p.Weights},
		},
	}, nil
}

// Params returns the effective parameters.
func (pl *Pipeline) Params() Params { return pl.params }

// Rank scores papers against query and returns them ordered by descending
// final score. The input slice is not reordered; ties keep the order
// produced by the RRF stage, which itself keeps input order on ties, so the
// same input always yields the same output.
func (pl *Pipeline) Rank(ctx context.Context, query string, papers []*types.Paper) ([]*types.Paper, types.FusionParams) {
	sc := &StageContext{
		Query:  query,
		Papers: append([]*types.Paper(nil), papers...),
	}
	for _, st := range pl.stages {
		if err := st.Run(ctx, sc); err != nil {
			pl.logger.Warn().Err(err).Str("stage", st.Name()).Msg("ranking stage failed")
		}
	}
	return sc.Papers, pl.fusionParams(sc.DenseStatus)
}

func (pl *Pipeline) fusionParams(denseStatus string) types.FusionParams {
	return types.FusionParams{
		K:             pl.params.K,
		Weights:       pl.params.Weights.Map(),
		ShortlistSize: pl.params.ShortlistSize,
		ReferenceYear: pl.params.ReferenceYear,
		Spread:        pl.params.Spread,
		DenseStatus:   denseStatus,
	}
}

// finalStage normalizes RRF by the batch maximum, combines the weighted
// components with authority, and stable-sorts by the result.
type finalStage struct {
	weights Weights
}

func (finalStage) Name() string { return "final" }

func (s finalStage) Run(_ context.Context, sc *StageContext) error {
	var maxRRF float64
	for _, p := range sc.Papers {
		maxRRF = math.Max(maxRRF, p.Scores.RRF)
	}
	for _, p := range sc.Papers {
		var rrf float64
		if maxRRF > 0 {
			rrf = p.Scores.RRF / maxRRF
		}
		p.Scores.Penalty = 0
		p.Scores.Final = s.weights.RRF*rrf +
			s.weights.BM25*p.Scores.BM25 +
			s.weights.Dense*p.Scores.Dense +
			s.weights.Recency*p.Scores.Recency +
			p.Scores.Authority
	}
	SortByFinal(sc.Papers)
	return nil
}

// SortByFinal stable-sorts papers by descending final score.
func SortByFinal(papers []*types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Scores.Final > papers[j].Scores.Final
	})
}
