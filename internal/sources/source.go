// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources implements the academic search adapters. Each adapter
// queries one provider and reports a typed Result: papers on success, a
// classified Failure otherwise. Adapters never panic or return a Go error
// past their boundary.
package sources

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/pdiddy/paperfuse/internal/httputil"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Source names.
const (
	OpenAlex        = "openalex"
	SemanticScholar = "semantic_scholar"
	Arxiv           = "arxiv"
	PubMed          = "pubmed"
	Crossref        = "crossref"
	EuropePMC       = "europe_pmc"
	BioRxiv         = "biorxiv"
	MedRxiv         = "medrxiv"
	DBLP            = "dblp"
	Scholar         = "scholar"
)

// Known lists every adapter name in registry order.
func Known() []string {
	return []string{OpenAlex, SemanticScholar, Arxiv, PubMed, Crossref, EuropePMC, BioRxiv, MedRxiv, DBLP, Scholar}
}

// Source is one academic search provider.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, f types.FilterSpec) Result
}

// RetryCounter is implemented by sources that track HTTP retries.
type RetryCounter interface {
	Retries() int64
}

// FailureKind classifies why a source produced no papers.
type FailureKind string

const (
	FailureHTTP        FailureKind = "http"
	FailureDecode      FailureKind = "decode"
	FailureRateLimited FailureKind = "rate_limited"
	FailureTimeout     FailureKind = "timeout"
	FailureCanceled    FailureKind = "canceled"
	FailureDisabled    FailureKind = "disabled"
)

// Failure is a classified adapter error.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Kind, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Result is the outcome of one Search call. Err is nil on success, in which
// case Papers may still be empty ("zero matches").
type Result struct {
	Source  string
	Papers  []*types.Paper
	Err     *Failure
	Elapsed time.Duration
}

// OK reports whether the search succeeded.
func (r Result) OK() bool { return r.Err == nil }

// errNotConfigured marks a source that lacks required credentials.
var errNotConfigured = errors.New("source not configured")

// Classify maps an adapter error to a FailureKind.
func Classify(err error) FailureKind {
	var se *httputil.StatusError
	var de *httputil.DecodeError
	var ne net.Error
	switch {
	case errors.Is(err, errNotConfigured):
		return FailureDisabled
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests:
		return FailureRateLimited
	case errors.As(err, &de):
		return FailureDecode
	case errors.As(err, &ne) && ne.Timeout():
		return FailureTimeout
	}
	return FailureHTTP
}

// finish wraps an adapter's raw outcome into a Result, tagging every paper
// with the source name.
func finish(name string, start time.Time, papers []*types.Paper, err error) Result {
	r := Result{Source: name, Elapsed: time.Since(start)}
	if err != nil {
		r.Err = &Failure{Kind: Classify(err), Err: err}
		return r
	}
	for _, p := range papers {
		p.Source = name
	}
	r.Papers = papers
	return r
}

// base carries what every HTTP adapter shares.
type base struct {
	client *httputil.Client
	max    int
}

func newBase(cfg types.Config) base {
	n := cfg.Search.MaxPerSource
	if n <= 0 {
		n = DefaultMaxPerSource
	}
	return base{client: httputil.NewClient(cfg.HTTP), max: n}
}

// Retries returns the retries performed by the adapter's HTTP client.
func (b base) Retries() int64 { return b.client.Retries() }

// DefaultMaxPerSource is the per-source result count when unconfigured.
const DefaultMaxPerSource = 50
