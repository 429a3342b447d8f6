// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfuse/internal/debugsink"
	"github.com/pdiddy/paperfuse/internal/observability"
	"github.com/pdiddy/paperfuse/internal/querybuild"
	"github.com/pdiddy/paperfuse/internal/rank"
	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// --- mock sources ---

type mockSource struct {
	name    string
	papers  func(query string) []*types.Paper
	fail    sources.FailureKind
	panics  bool
	block   bool
	stall   time.Duration
	calls   atomic.Int32
	retries atomic.Int64
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Search(ctx context.Context, query string, _ types.FilterSpec) sources.Result {
	m.calls.Add(1)
	m.retries.Add(1)
	switch {
	case m.panics:
		panic("adapter bug")
	case m.stall > 0:
		time.Sleep(m.stall)
		return sources.Result{Source: m.name}
	case m.block:
		<-ctx.Done()
		return sources.Result{Source: m.name, Err: &sources.Failure{Kind: sources.FailureCanceled, Err: ctx.Err()}}
	case m.fail != "":
		return sources.Result{Source: m.name, Err: &sources.Failure{Kind: m.fail, Err: errors.New("upstream unavailable")}}
	}
	var ps []*types.Paper
	if m.papers != nil {
		ps = m.papers(query)
	}
	return sources.Result{Source: m.name, Papers: ps, Elapsed: time.Millisecond}
}

// retryingSource reports one retry per call.
type retryingSource struct{ *mockSource }

func (r retryingSource) Retries() int64 { return r.retries.Load() }

func fixed(papers ...types.Paper) func(string) []*types.Paper {
	return func(string) []*types.Paper {
		out := make([]*types.Paper, len(papers))
		for i := range papers {
			p := papers[i]
			out[i] = &p
		}
		return out
	}
}

// onlyFor answers query with papers and every other query with nothing.
func onlyFor(query string, papers ...types.Paper) func(string) []*types.Paper {
	all := fixed(papers...)
	return func(q string) []*types.Paper {
		if q != query {
			return nil
		}
		return all(q)
	}
}

func newEngine(t *testing.T, opts []Option, srcs ...sources.Source) *Engine {
	t.Helper()
	e, err := New(sources.NewRegistry(srcs...), opts...)
	require.NoError(t, err)
	return e
}

// --- Dispatcher ---

func TestDispatchTagsProvenanceInSourceOrder(t *testing.T) {
	a := &mockSource{name: "a", papers: fixed(types.Paper{Title: "One"}, types.Paper{Title: "Two"})}
	b := &mockSource{name: "b", papers: fixed(types.Paper{Title: "Three"})}

	results := Dispatch(context.Background(), "q", types.VariantExpanded, types.FilterSpec{}, []sources.Source{a, b})

	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Source)
	assert.Equal(t, "b", results[1].Source)
	require.Len(t, results[0].Papers, 2)
	assert.Equal(t, []types.Provenance{{Source: "a", Rank: 1, Variant: types.VariantExpanded}}, results[0].Papers[1].Provenance)
	assert.Equal(t, []types.Provenance{{Source: "b", Rank: 0, Variant: types.VariantExpanded}}, results[1].Papers[0].Provenance)
}

func TestDispatchIsolatesFailures(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	d := Dispatcher{Metrics: m}
	good := &mockSource{name: "good", papers: fixed(types.Paper{Title: "Survivor"})}
	slow := &mockSource{name: "slow", fail: sources.FailureTimeout}
	buggy := &mockSource{name: "buggy", panics: true}

	results := d.Dispatch(context.Background(), "q", types.VariantExact, types.FilterSpec{}, []sources.Source{slow, good, buggy})

	require.Len(t, results, 3)
	assert.False(t, results[0].OK())
	assert.Equal(t, sources.FailureTimeout, results[0].Err.Kind)
	assert.Empty(t, results[0].Papers)
	assert.True(t, results[1].OK())
	assert.Len(t, results[1].Papers, 1)
	require.False(t, results[2].OK())
	assert.Equal(t, sources.FailureHTTP, results[2].Err.Kind)
	assert.Contains(t, results[2].Err.Error(), "adapter panic")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("slow", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("buggy", "http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PapersReturned.WithLabelValues("good")))
}

func TestDispatchDiscardsResultsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	fast := &mockSource{name: "fast", papers: fixed(types.Paper{Title: "Early"})}
	stuck := &mockSource{name: "stuck", block: true}

	results := Dispatch(ctx, "q", types.VariantExact, types.FilterSpec{}, []sources.Source{fast, stuck})
	assert.Nil(t, results)
}

func TestDispatchAbandonsAdaptersIgnoringContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	deaf := &mockSource{name: "deaf", stall: time.Second}
	fast := &mockSource{name: "fast", papers: fixed(types.Paper{Title: "Early"})}

	start := time.Now()
	results := Dispatch(ctx, "q", types.VariantExact, types.FilterSpec{}, []sources.Source{fast, deaf})
	elapsed := time.Since(start)

	assert.Nil(t, results)
	assert.Less(t, elapsed, 500*time.Millisecond, "returned after %s", elapsed)
	assert.Equal(t, int32(1), deaf.calls.Load())
}

func TestRunSearchReturnsPromptlyWhenAdapterIgnoresContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e := newEngine(t, nil, &mockSource{name: "deaf", stall: time.Second})

	start := time.Now()
	papers, _, err := e.RunSearch(ctx, topic, types.FilterSpec{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, papers)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestDispatchNoSources(t *testing.T) {
	assert.Nil(t, Dispatch(context.Background(), "q", types.VariantExact, types.FilterSpec{}, nil))
}

// --- RunSearch ---

const topic = "zero-shot learning"

// scenario returns three sources answering the exact variant with 5, 5 and
// 3 papers: source b repeats one of a's DOIs and source c repeats one of
// a's titles with different punctuation.
func scenario() (*mockSource, *mockSource, *mockSource) {
	exact := querybuild.Build(topic, types.FilterSpec{}).Exact
	a := &mockSource{name: "openalex", papers: onlyFor(exact,
		types.Paper{ID: "W1", Title: "Zero-Shot Learning with Semantic Output Codes", DOI: "10.1000/zsl.1", Year: 2009, Abstract: "zero-shot learning semantic output codes"},
		types.Paper{ID: "W2", Title: "Attribute-Based Classification for Unseen Classes", DOI: "10.1000/zsl.2", Year: 2014},
		types.Paper{ID: "W3", Title: "Generalized Zero-Shot Learning Benchmarks Revisited", Year: 2019, Abstract: "a benchmark for zero-shot learning"},
		types.Paper{ID: "W4", Title: "Feature Generating Networks", DOI: "10.1000/zsl.4", Year: 2018},
		types.Paper{ID: "W5", Title: "Transductive Embedding Propagation", DOI: "10.1000/zsl.5", Year: 2020},
	)}
	b := &mockSource{name: "semantic_scholar", papers: onlyFor(exact,
		types.Paper{ID: "S1", Title: "Attribute based classification of unseen classes (extended)", DOI: "https://doi.org/10.1000/ZSL.2", Year: 2014},
		types.Paper{ID: "S2", Title: "Contrastive Language Image Pretraining", DOI: "10.1000/clip", Year: 2021},
		types.Paper{ID: "S3", Title: "Prompt Tuning for Vision Models", Year: 2022},
		types.Paper{ID: "S4", Title: "Graph Convolutions over Knowledge Graphs", DOI: "10.1000/gcn", Year: 2018},
		types.Paper{ID: "S5", Title: "Episodic Training in Few Shot Regimes", Year: 2017},
	)}
	c := &mockSource{name: "arxiv", papers: onlyFor(exact,
		types.Paper{ID: "1901.00001", Title: "Generalized zero-shot learning: benchmarks revisited", Year: 2019},
		types.Paper{ID: "1901.00002", Title: "Latent Space Alignment via Variational Autoencoders", Year: 2019},
		types.Paper{ID: "1901.00003", Title: "Hubness Reduction in Nearest Neighbor Search", Year: 2015},
	)}
	return a, b, c
}

func TestRunSearchEndToEnd(t *testing.T) {
	a, b, c := scenario()
	e := newEngine(t, nil, a, b, c)

	papers, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"openalex": 5, "semantic_scholar": 5, "arxiv": 3}, diag.PerSourceCounts)
	assert.Equal(t, types.DedupeStats{Total: 13, RemovedByDOI: 1, RemovedByTitle: 1, Final: 11}, diag.DedupeStats)
	require.Len(t, papers, 11)
	assert.Equal(t, 11, diag.Returned)
	assert.Empty(t, diag.SourceErrors)
	assert.NotEmpty(t, diag.RunID)
	assert.Equal(t, topic, diag.Topic)
	assert.Equal(t, types.FilterSoft, diag.FilterMode)
	assert.Equal(t, rank.DenseSkipped, diag.FusionParams.DenseStatus)
	assert.Positive(t, diag.Duration)

	for i := 1; i < len(papers); i++ {
		assert.GreaterOrEqual(t, papers[i-1].Scores.Final, papers[i].Scores.Final, "sorted by final score")
	}

	var shared *types.Paper
	for _, p := range papers {
		if p.DOI == "10.1000/zsl.2" {
			shared = p
		}
	}
	require.NotNil(t, shared, "first-seen DOI record survives")
	assert.Equal(t, "W2", shared.ID)
	assert.ElementsMatch(t, []string{"openalex", "semantic_scholar"}, shared.Sources())
	assert.Len(t, shared.Provenance, 2)
}

func TestRunSearchMergesAcrossVariants(t *testing.T) {
	src := &mockSource{name: "openalex", papers: fixed(types.Paper{Title: "Zero-Shot Learning Survey", DOI: "10.1/x"})}
	e := newEngine(t, nil, src)

	papers, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)

	calls := int(src.calls.Load())
	assert.GreaterOrEqual(t, calls, 2, "every non-empty variant is dispatched")
	assert.Equal(t, calls, diag.PerSourceCounts["openalex"])
	require.Len(t, papers, 1)
	assert.Len(t, papers[0].Provenance, calls, "one provenance entry per variant")
}

func TestRunSearchSourceFailureIsReported(t *testing.T) {
	a, b, _ := scenario()
	broken := &mockSource{name: "crossref", fail: sources.FailureRateLimited}
	e := newEngine(t, nil, a, broken, b)

	papers, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)

	assert.Len(t, papers, 9)
	assert.Equal(t, 0, diag.PerSourceCounts["crossref"])
	require.NotEmpty(t, diag.SourceErrors)
	for _, se := range diag.SourceErrors {
		assert.Equal(t, "crossref", se.Source)
		assert.Equal(t, "rate_limited", se.Kind)
		assert.NotEmpty(t, se.Variant)
	}
}

func TestRunSearchAllSourcesFail(t *testing.T) {
	e := newEngine(t, nil,
		&mockSource{name: "openalex", fail: sources.FailureHTTP},
		&mockSource{name: "arxiv", fail: sources.FailureDecode},
	)

	papers, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)
	assert.Empty(t, papers)
	assert.Equal(t, map[string]int{"openalex": 0, "arxiv": 0}, diag.PerSourceCounts)
	assert.Equal(t, 0, diag.DedupeStats.Final)
	assert.NotEmpty(t, diag.SourceErrors)
}

func TestRunSearchInvalidFilter(t *testing.T) {
	src := &mockSource{name: "openalex"}
	e := newEngine(t, nil, src)

	tests := []struct {
		name string
		f    types.FilterSpec
	}{
		{"inverted years", types.FilterSpec{StartYear: 2024, EndYear: 2020}},
		{"limit too large", types.FilterSpec{Limit: 501}},
		{"unknown mode", types.FilterSpec{Mode: "fuzzy"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := e.RunSearch(context.Background(), topic, tt.f)
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrInvalidFilter)
			assert.True(t, IsInvalidFilter(err))
		})
	}
	assert.Zero(t, src.calls.Load(), "no source is queried for an invalid filter")
}

func TestRunSearchCanceled(t *testing.T) {
	e := newEngine(t, nil,
		&mockSource{name: "stuck", block: true},
		&mockSource{name: "fast", papers: fixed(types.Paper{Title: "Early"})},
	)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	papers, _, err := e.RunSearch(ctx, topic, types.FilterSpec{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, papers)
}

func TestRunSearchStrictFiltersDefault(t *testing.T) {
	src := &mockSource{name: "openalex", papers: fixed(
		types.Paper{Title: "Zero-Shot Learning Old", Year: 2010},
		types.Paper{Title: "Zero-Shot Learning New", Year: 2022},
	)}
	e := newEngine(t, []Option{WithStrictFilters(true)}, src)

	papers, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{StartYear: 2020})
	require.NoError(t, err)
	assert.Equal(t, types.FilterHard, diag.FilterMode)
	require.Len(t, papers, 1)
	assert.Equal(t, 2022, papers[0].Year)
	assert.Equal(t, 1, diag.Rejected)

	papers, diag, err = e.RunSearch(context.Background(), topic, types.FilterSpec{StartYear: 2020, Mode: types.FilterSoft})
	require.NoError(t, err)
	assert.Equal(t, types.FilterSoft, diag.FilterMode)
	assert.Len(t, papers, 2, "soft mode keeps the penalized paper")
}

func TestRunSearchCountsRetries(t *testing.T) {
	src := retryingSource{&mockSource{name: "dblp", papers: fixed(types.Paper{Title: "Zero-Shot"})}}
	src.retries.Store(7)
	e := newEngine(t, nil, src)

	_, diag, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)
	assert.Equal(t, int(src.calls.Load()), diag.APIRetries["dblp"], "only retries made during the run count")
}

func TestRunSearchWritesDebugFiles(t *testing.T) {
	dir := t.TempDir()
	src := &mockSource{name: "openalex", papers: fixed(types.Paper{Title: "Zero-Shot Learning Survey"})}
	e := newEngine(t, []Option{WithDebugDir(dir)}, src)

	papers, _, err := e.RunSearch(context.Background(), "Zero-Shot  Learning!", types.FilterSpec{})
	require.NoError(t, err)

	slug := debugsink.SlugOrDefault("Zero-Shot  Learning!")
	assert.Equal(t, "zero-shot-learning", slug)

	bundle, err := os.ReadFile(debugsink.Path(dir, slug, querybuild.BundleFile))
	require.NoError(t, err)
	var qb types.QueryBundle
	require.NoError(t, json.Unmarshal(bundle, &qb))
	assert.NotEmpty(t, qb.Exact)

	data, err := os.ReadFile(debugsink.Path(dir, slug, ReportFile))
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "Zero-Shot  Learning!", report.Diagnostics.Topic)
	require.Len(t, papers, 1)
	require.Len(t, report.Papers, 1)
	assert.Equal(t, "Zero-Shot Learning Survey", report.Papers[0].Title)
	assert.NotEmpty(t, report.Papers[0].Provenance)
}

func TestRunSearchRecordsMetrics(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())
	a, b, c := scenario()
	e := newEngine(t, []Option{WithMetrics(m)}, a, b, c)

	_, _, err := e.RunSearch(context.Background(), topic, types.FilterSpec{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRemoved.WithLabelValues("doi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DuplicatesRemoved.WithLabelValues("title")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.PapersReturned.WithLabelValues("openalex")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SearchDuration))
}

func TestNewRejectsInvalidWeights(t *testing.T) {
	_, err := New(sources.NewRegistry(), WithRankParams(rank.Params{Weights: rank.Weights{RRF: 0.9, BM25: 0.9}}))
	assert.ErrorIs(t, err, rank.ErrInvalidWeights)
}

func TestNewFromConfigHonorsEnabledSources(t *testing.T) {
	cfg := types.Config{
		Sources: types.SourcesConfig{Enabled: map[string]bool{sources.Arxiv: true, sources.DBLP: true}},
		Search:  types.SearchConfig{StrictFilters: true},
	}
	e, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{sources.Arxiv, sources.DBLP}, e.Registry().Names())
	assert.True(t, e.strict)
}
