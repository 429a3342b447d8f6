// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search runs a topic query end to end: it builds the query
// variants, fans them out to the enabled sources, deduplicates the merged
// candidates, ranks them, and applies the caller's filters.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfuse/internal/debugsink"
	"github.com/pdiddy/paperfuse/internal/dedupe"
	"github.com/pdiddy/paperfuse/internal/embed"
	"github.com/pdiddy/paperfuse/internal/filter"
	"github.com/pdiddy/paperfuse/internal/observability"
	"github.com/pdiddy/paperfuse/internal/querybuild"
	"github.com/pdiddy/paperfuse/internal/rank"
	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// ReportFile is the debug snapshot of one search run.
const ReportFile = "search_report.json"

// Report is the content of ReportFile.
type Report struct {
	Diagnostics types.Diagnostics `json:"diagnostics"`
	Papers      []*types.Paper    `json:"papers"`
}

// Engine holds the collaborators of a search run. It is safe for
// concurrent use once constructed.
type Engine struct {
	registry *sources.Registry
	params   rank.Params
	pipeline *rank.Pipeline
	embedder embed.Embedder
	index    *embed.Index
	logger   zerolog.Logger
	metrics  *observability.Metrics

	outputDir string
	debug     bool
	strict    bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEmbedder enables dense scoring with emb.
func WithEmbedder(emb embed.Embedder) Option {
	return func(e *Engine) { e.embedder = emb }
}

// WithIndex sets the index used by SemanticSearch.
func WithIndex(ix *embed.Index) Option {
	return func(e *Engine) { e.index = ix }
}

// WithRankParams overrides the fusion parameters.
func WithRankParams(p rank.Params) Option {
	return func(e *Engine) { e.params = p }
}

// WithDebugDir writes query bundles and search reports under dir/debug.
func WithDebugDir(dir string) Option {
	return func(e *Engine) {
		e.outputDir = dir
		e.debug = true
	}
}

// WithStrictFilters makes hard filtering the default when a FilterSpec
// leaves Mode empty.
func WithStrictFilters(strict bool) Option {
	return func(e *Engine) { e.strict = strict }
}

// New returns an engine searching the sources in reg.
func New(reg *sources.Registry, opts ...Option) (*Engine, error) {
	e := &Engine{registry: reg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	pl, err := rank.NewPipeline(e.params, e.embedder, e.logger)
	if err != nil {
		return nil, fmt.Errorf("building ranking pipeline: %w", err)
	}
	e.pipeline = pl
	return e, nil
}

// NewFromConfig builds the registry and ranking parameters from cfg. Options
// are applied after the configured values, so they take precedence.
func NewFromConfig(cfg types.Config, opts ...Option) (*Engine, error) {
	base := []Option{
		WithRankParams(rank.Params{
			Weights:       rank.WeightsFromConfig(cfg.Search.Weights),
			ShortlistSize: cfg.Search.FusionTopK,
		}),
		WithStrictFilters(cfg.Search.StrictFilters),
	}
	if cfg.Output.Debug {
		base = append(base, WithDebugDir(cfg.Output.Dir))
	}
	return New(sources.FromConfig(cfg), append(base, opts...)...)
}

// Registry returns the sources the engine fans out to.
func (e *Engine) Registry() *sources.Registry { return e.registry }

// RunSearch searches every enabled source for topic and returns the ranked,
// filtered papers with diagnostics. It returns an error only when f is
// invalid (wrapping types.ErrInvalidFilter) or ctx is canceled; source
// failures are reported in the diagnostics.
func (e *Engine) RunSearch(ctx context.Context, topic string, f types.FilterSpec) ([]*types.Paper, types.Diagnostics, error) {
	start := time.Now()
	diag := types.Diagnostics{
		RunID:           uuid.NewString(),
		Topic:           topic,
		PerSourceCounts: map[string]int{},
		APIRetries:      map[string]int{},
	}

	if err := f.Validate(); err != nil {
		return nil, diag, fmt.Errorf("validating filter: %w", err)
	}
	if f.Mode == "" && e.strict {
		f.Mode = types.FilterHard
	}
	f = f.Normalized()
	diag.FilterMode = f.Mode

	bundle := querybuild.Build(topic, f)
	diag.QueryBundle = bundle

	srcs := e.registry.Sources()
	retriesBefore := retryCounts(srcs)
	for _, s := range srcs {
		diag.PerSourceCounts[s.Name()] = 0
	}

	logger := e.logger.With().Str("run_id", diag.RunID).Logger()
	d := Dispatcher{Logger: logger, Metrics: e.metrics}

	var merged []*types.Paper
	for _, v := range bundle.Variants() {
		if v.Query == "" {
			continue
		}
		results := d.Dispatch(ctx, v.Query, v.ID, f, srcs)
		if ctx.Err() != nil {
			return nil, diag, ctx.Err()
		}
		for _, r := range results {
			if !r.OK() {
				diag.SourceErrors = append(diag.SourceErrors, types.SourceError{
					Source:  r.Source,
					Variant: v.ID,
					Kind:    string(r.Err.Kind),
					Message: r.Err.Error(),
				})
				continue
			}
			diag.PerSourceCounts[r.Source] += len(r.Papers)
			merged = append(merged, r.Papers...)
		}
	}

	unique, stats := dedupe.Dedupe(merged)
	diag.DedupeStats = stats
	e.metrics.RecordDedupe(stats)

	ranked, fusion := e.pipeline.Rank(ctx, topic, unique)
	diag.FusionParams = fusion

	out := filter.Apply(ranked, f, logger)
	diag.Relaxed = out.Relaxed
	diag.Rejected = out.Rejected
	diag.Returned = len(out.Papers)

	for name, n := range retryCounts(srcs) {
		diag.APIRetries[name] = n - retriesBefore[name]
	}
	diag.Duration = time.Since(start)
	e.metrics.RecordSearch(diag.Duration.Seconds(), diag.Relaxed)

	logger.Info().
		Str("topic", topic).
		Int("candidates", stats.Total).
		Int("unique", stats.Final).
		Int("returned", diag.Returned).
		Int("source_errors", len(diag.SourceErrors)).
		Dur("duration", diag.Duration).
		Msg("search finished")

	if e.debug {
		e.writeDebug(topic, diag, out.Papers)
	}
	return out.Papers, diag, nil
}

// writeDebug saves the query bundle and the search report. Failures are
// logged and otherwise ignored.
func (e *Engine) writeDebug(topic string, diag types.Diagnostics, papers []*types.Paper) {
	slug := debugsink.SlugOrDefault(topic)
	if _, err := querybuild.SaveBundle(e.outputDir, slug, diag.QueryBundle); err != nil {
		e.logger.Warn().Err(err).Str("slug", slug).Msg("writing query bundle")
	}
	path, err := debugsink.WriteJSON(e.outputDir, slug, ReportFile, Report{Diagnostics: diag, Papers: papers})
	if err != nil {
		e.logger.Warn().Err(err).Str("slug", slug).Msg("writing search report")
		return
	}
	e.logger.Debug().Str("path", path).Msg("search report written")
}

// retryCounts snapshots the retry counters of the sources that track them.
func retryCounts(srcs []sources.Source) map[string]int {
	out := make(map[string]int, len(srcs))
	for _, s := range srcs {
		if rc, ok := s.(sources.RetryCounter); ok {
			out[s.Name()] = int(rc.Retries())
		}
	}
	return out
}

// IsInvalidFilter reports whether err was caused by a rejected FilterSpec.
func IsInvalidFilter(err error) bool {
	return errors.Is(err, types.ErrInvalidFilter)
}
