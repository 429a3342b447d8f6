// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfuse/pkg/types"
)

func paper(id, title, abstract string, year int, prov ...types.Provenance) *types.Paper {
	return &types.Paper{ID: id, Source: "test", Title: title, Abstract: abstract, Year: year, Provenance: prov}
}

func seen(source string, rank int, v types.Variant) types.Provenance {
	return types.Provenance{Source: source, Rank: rank, Variant: v}
}

// keywordEmbedder maps texts mentioning "graph" to one axis and everything
// else to the other.
type keywordEmbedder struct {
	calls [][]string
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(strings.ToLower(t), "graph") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("provider down")
}

func ids(papers []*types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.ID
	}
	return out
}

func TestRRFScoreUsesBestRankPerSource(t *testing.T) {
	p := paper("a", "t", "", 0,
		seen("openalex", 3, types.VariantExact),
		seen("openalex", 0, types.VariantExpanded),
		seen("arxiv", 1, types.VariantExact),
	)
	want := 1.0/61 + 1.0/62
	assert.InDelta(t, want, RRFScore(p, 60), 1e-12)
}

func TestRRFScoreGrowsWithAgreement(t *testing.T) {
	one := paper("a", "t", "", 0, seen("openalex", 0, types.VariantExact))
	two := paper("b", "t", "", 0, seen("openalex", 0, types.VariantExact), seen("crossref", 5, types.VariantExact))
	assert.Greater(t, RRFScore(two, DefaultK), RRFScore(one, DefaultK))

	better := paper("c", "t", "", 0, seen("openalex", 0, types.VariantExact))
	worse := paper("d", "t", "", 0, seen("openalex", 4, types.VariantExact))
	assert.Greater(t, RRFScore(better, DefaultK), RRFScore(worse, DefaultK))
}

func TestRecencyScore(t *testing.T) {
	assert.Equal(t, 0.0, RecencyScore(0, DefaultReferenceYear, DefaultSpread))
	assert.InDelta(t, 0.5, RecencyScore(2019, DefaultReferenceYear, DefaultSpread), 1e-12)

	prev := 0.0
	for year := 2000; year <= 2030; year++ {
		s := RecencyScore(year, DefaultReferenceYear, DefaultSpread)
		assert.Greater(t, s, prev, "year %d", year)
		assert.Less(t, s, 1.0)
		prev = s
	}
}

func TestVenueBoost(t *testing.T) {
	tests := []struct {
		venue string
		want  float64
	}{
		{"Nature Communications", 0.1},
		{"The Lancet Oncology", 0.1},
		{"Advances in NeurIPS", 0.08},
		{"Proceedings of ACL 2023", 0.08},
		{"IEEE Transactions on Pattern Analysis", 0.05},
		{"Signature Studies", 0},
		{"Oracle Journal", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.venue, func(t *testing.T) {
			assert.Equal(t, tt.want, VenueBoost(tt.venue))
		})
	}
}

func TestCitationBoost(t *testing.T) {
	assert.Equal(t, 0.0, CitationBoost(0))
	assert.InDelta(t, math.Log10(11)/40, CitationBoost(10), 1e-12)
	assert.InDelta(t, 0.1, CitationBoost(9999), 1e-12)
	assert.Equal(t, MaxCitationBoost, CitationBoost(5_000_000))
}

func TestAuthorityScoreAddsAvailability(t *testing.T) {
	p := &types.Paper{Venue: "Nature", Citations: 9999, PDFURL: "https://x/p.pdf", DOI: "10.1/x"}
	assert.InDelta(t, 0.1+0.1+PDFBonus+DOIBonus, AuthorityScore(p), 1e-12)
	assert.Equal(t, 0.0, AuthorityScore(&types.Paper{}))
}

func TestWeightsValidate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	err := Weights{RRF: 1.2, BM25: -0.2}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	err = Weights{RRF: 0.5, BM25: 0.2, Dense: 0.2}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	_, err = NewPipeline(Params{Weights: Weights{RRF: 2}}, nil, zerolog.Nop())
	assert.True(t, errors.Is(err, ErrInvalidWeights))
}

func TestWeightsFromConfig(t *testing.T) {
	assert.Equal(t, DefaultWeights(), WeightsFromConfig(types.WeightsConfig{}))
	w := WeightsFromConfig(types.WeightsConfig{RRF: 0.4, BM25: 0.3, Dense: 0.2, Recency: 0.1})
	assert.Equal(t, 0.3, w.BM25)
}

func TestLexicalScoresBoundedAndRelevant(t *testing.T) {
	papers := []*types.Paper{
		paper("a", "Graph neural networks for molecules", "We study graph neural networks.", 2020),
		paper("b", "Protein folding with language models", "Folding proteins.", 2021),
		paper("c", "Neural networks", "A survey of neural networks and graph methods.", 2019),
	}
	scores := LexicalScores(papers, "graph neural networks")
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
	assert.Greater(t, scores[0], scores[1])
	assert.Greater(t, scores[2], scores[1])
	assert.Equal(t, 0.0, scores[1])
}

func TestPipelineRankDeterministic(t *testing.T) {
	mk := func() []*types.Paper {
		return []*types.Paper{
			paper("a", "Zero-shot learning with attributes", "zero-shot learning", 2018, seen("openalex", 0, types.VariantExact)),
			paper("b", "Zero-shot learning survey", "a survey", 2022, seen("arxiv", 0, types.VariantExact), seen("openalex", 1, types.VariantExact)),
			paper("c", "Unrelated title", "nothing", 2022, seen("crossref", 0, types.VariantExact)),
			paper("d", "Same score", "nothing", 2022, seen("dblp", 0, types.VariantExact)),
		}
	}
	pl, err := NewPipeline(Params{}, nil, zerolog.Nop())
	require.NoError(t, err)

	in := mk()
	first, params := pl.Rank(context.Background(), "zero-shot learning", in)
	second, _ := pl.Rank(context.Background(), "zero-shot learning", mk())

	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(in), "input slice must not be reordered")
	assert.Equal(t, "b", first[0].ID)
	// c and d tie on every component and keep their input order.
	assert.Equal(t, []string{"c", "d"}, ids(first[2:]))
	assert.Equal(t, DenseSkipped, params.DenseStatus)
	assert.Equal(t, DefaultK, params.K)

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].Scores.Final, first[i].Scores.Final)
	}
}

func TestPipelineDenseShortlist(t *testing.T) {
	papers := []*types.Paper{
		paper("a", "Graph methods", "", 2020, seen("openalex", 0, types.VariantExact)),
		paper("b", "Other methods", "", 2020, seen("openalex", 1, types.VariantExact)),
		paper("c", "Graph again", "", 2020, seen("openalex", 2, types.VariantExact)),
	}
	emb := &keywordEmbedder{}
	pl, err := NewPipeline(Params{ShortlistSize: 2}, emb, zerolog.Nop())
	require.NoError(t, err)

	out, params := pl.Rank(context.Background(), "graph", papers)
	require.Len(t, emb.calls, 1)
	assert.Len(t, emb.calls[0], 3, "query plus two shortlisted papers")
	assert.Equal(t, DenseOK, params.DenseStatus)

	byID := map[string]*types.Paper{}
	for _, p := range out {
		byID[p.ID] = p
	}
	assert.InDelta(t, 1.0, byID["a"].Scores.Dense, 1e-9)
	assert.Equal(t, 0.0, byID["b"].Scores.Dense)
	assert.Equal(t, 0.0, byID["c"].Scores.Dense, "outside the shortlist")
}

func TestPipelineDenseFailureDegrades(t *testing.T) {
	papers := []*types.Paper{
		paper("a", "Graph methods", "", 2020, seen("openalex", 0, types.VariantExact)),
		paper("b", "Other methods", "", 2021, seen("openalex", 1, types.VariantExact)),
	}
	pl, err := NewPipeline(Params{}, failingEmbedder{}, zerolog.Nop())
	require.NoError(t, err)

	out, params := pl.Rank(context.Background(), "graph", papers)
	require.Len(t, out, 2)
	assert.True(t, strings.HasPrefix(params.DenseStatus, "failed"))
	for _, p := range out {
		assert.Equal(t, 0.0, p.Scores.Dense)
		assert.Greater(t, p.Scores.Final, 0.0)
	}
}

func TestPipelineEmptyInput(t *testing.T) {
	pl, err := NewPipeline(Params{}, &keywordEmbedder{}, zerolog.Nop())
	require.NoError(t, err)
	out, params := pl.Rank(context.Background(), "anything", nil)
	assert.Empty(t, out)
	assert.Equal(t, DenseSkipped, params.DenseStatus)
}
