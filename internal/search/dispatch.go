// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paperfuse/internal/observability"
	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Dispatcher fans one query variant out to a set of sources.
type Dispatcher struct {
	Logger  zerolog.Logger
	Metrics *observability.Metrics
}

// Dispatch runs query against srcs with a silent logger and no metrics.
func Dispatch(ctx context.Context, query string, variant types.Variant, f types.FilterSpec, srcs []sources.Source) []sources.Result {
	d := Dispatcher{Logger: zerolog.Nop()}
	return d.Dispatch(ctx, query, variant, f, srcs)
}

// Dispatch queries every source concurrently and returns one Result per
// source, in the order of srcs. A failing source yields a Result with Err
// set and no papers; it never stops its siblings. Every returned paper
// carries provenance for its source, rank and variant. Once ctx is done
// Dispatch returns nil without waiting for adapters still in flight.
func (d Dispatcher) Dispatch(ctx context.Context, query string, variant types.Variant, f types.FilterSpec, srcs []sources.Source) []sources.Result {
	if len(srcs) == 0 {
		return nil
	}

	results := make([]sources.Result, len(srcs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(srcs))

	for i, src := range srcs {
		g.Go(func() error {
			results[i] = d.call(gctx, src, query, variant, f)
			return nil
		})
	}

	// Adapters that ignore ctx are abandoned, not awaited. Their late
	// writes land in results, which is never read once ctx is done.
	finished := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-ctx.Done():
		return nil
	}

	if ctx.Err() != nil {
		return nil
	}
	return results
}

func (d Dispatcher) call(ctx context.Context, src sources.Source, query string, variant types.Variant, f types.FilterSpec) (res sources.Result) {
	name := src.Name()
	defer func() {
		if r := recover(); r != nil {
			res = sources.Result{
				Source: name,
				Err:    &sources.Failure{Kind: sources.FailureHTTP, Err: fmt.Errorf("adapter panic: %v", r)},
			}
		}
		d.record(name, variant, res)
	}()

	res = src.Search(ctx, query, f)
	res.Source = name
	if !res.OK() {
		res.Papers = nil
		return res
	}
	for rank, p := range res.Papers {
		p.AddProvenance(types.Provenance{Source: name, Rank: rank, Variant: variant})
	}
	return res
}

func (d Dispatcher) record(name string, variant types.Variant, res sources.Result) {
	var kind string
	if !res.OK() {
		kind = string(res.Err.Kind)
		l := observability.WithSourceContext(d.Logger, name, variant)
		l.Warn().
			Str("kind", kind).
			Err(res.Err.Err).
			Msg("source search failed")
	} else {
		d.Logger.Debug().
			Str("source", name).
			Str("variant", string(variant)).
			Int("papers", len(res.Papers)).
			Dur("elapsed", res.Elapsed).
			Msg("source search finished")
	}
	d.Metrics.RecordSourceResult(name, len(res.Papers), kind, res.Elapsed.Seconds())
}
