// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paperfuse pipeline:
// the paper record with its scoring annex and provenance, the filter
// specification, the query bundle, and the per-search diagnostics record.
package types

import "strings"

// Variant identifies which query variant produced a result.
type Variant string

const (
	VariantExact    Variant = "exact"
	VariantExpanded Variant = "expanded"
	VariantDomain   Variant = "domain"
)

// Provenance records one (source, rank, variant) sighting of a paper.
// Provenance is an audit trail and never contributes to identity.
type Provenance struct {
	// Source is the adapter name that returned the paper.
	Source string `json:"source" yaml:"source"`

	// Rank is the zero-based position within that source's result list.
	Rank int `json:"rank_in_source" yaml:"rank_in_source"`

	// Variant is the query variant that was dispatched.
	Variant Variant `json:"query_id" yaml:"query_id"`
}

// ScoreComponents is the scoring annex carried by each paper. Every ranking
// stage writes exactly one field; Final is written by the composite stage and
// adjusted only by soft filter penalties.
type ScoreComponents struct {
	RRF       float64 `json:"rrf" yaml:"rrf"`
	BM25      float64 `json:"bm25" yaml:"bm25"`
	Recency   float64 `json:"recency" yaml:"recency"`
	Dense     float64 `json:"dense" yaml:"dense"`
	Authority float64 `json:"authority" yaml:"authority"`
	Penalty   float64 `json:"penalty" yaml:"penalty"`
	Final     float64 `json:"final" yaml:"final"`
}

// Paper is a candidate paper returned by a source adapter. The metadata
// fields are set once by the adapter; Scores, Provenance, and Reasons are
// filled in as the paper moves through the pipeline.
type Paper struct {
	// ID is the source-native identifier (OpenAlex work id, PMID, arXiv id, ...).
	ID string `json:"id" yaml:"id"`

	// Source is the adapter that first produced this record.
	Source string `json:"source" yaml:"source"`

	Title    string   `json:"title" yaml:"title"`
	Abstract string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; zero when the source did not report one.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	Venue  string `json:"venue,omitempty" yaml:"venue,omitempty"`
	DOI    string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// Citations is the citation count reported by the source (zero if unknown).
	Citations int `json:"citations_count" yaml:"citations_count"`

	OpenAccess bool `json:"open_access,omitempty" yaml:"open_access,omitempty"`

	Scores     ScoreComponents `json:"score_components" yaml:"score_components"`
	Provenance []Provenance    `json:"provenance" yaml:"provenance"`

	// Reasons holds human-readable notes added by filtering (penalties, relaxation).
	Reasons []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// Text returns the title and abstract joined by a space. Lexical and dense
// scoring both operate on this text.
func (p *Paper) Text() string {
	if p.Abstract == "" {
		return p.Title
	}
	return p.Title + " " + p.Abstract
}

// HasPDF reports whether a PDF link is known for the paper.
func (p *Paper) HasPDF() bool { return p.PDFURL != "" }

// AddProvenance appends a sighting unless the same (source, variant) pair is
// already recorded.
func (p *Paper) AddProvenance(pv Provenance) {
	for _, existing := range p.Provenance {
		if existing.Source == pv.Source && existing.Variant == pv.Variant {
			return
		}
	}
	p.Provenance = append(p.Provenance, pv)
}

// MergeProvenance appends every sighting from other that p does not already hold.
func (p *Paper) MergeProvenance(other []Provenance) {
	for _, pv := range other {
		p.AddProvenance(pv)
	}
}

// Sources returns the distinct source names in provenance order.
func (p *Paper) Sources() []string {
	var names []string
	seen := make(map[string]bool)
	for _, pv := range p.Provenance {
		if !seen[pv.Source] {
			seen[pv.Source] = true
			names = append(names, pv.Source)
		}
	}
	return names
}

// SourceLabel returns the comma-separated source list for display.
func (p *Paper) SourceLabel() string {
	names := p.Sources()
	if len(names) == 0 {
		return p.Source
	}
	return strings.Join(names, ",")
}
