// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// QueryBundle holds the query variants derived from one topic. MeshTerms and
// RelatedTerms are kept for diagnostics only.
type QueryBundle struct {
	Exact        string   `json:"exact_query" yaml:"exact_query"`
	Expanded     string   `json:"expanded_query" yaml:"expanded_query"`
	Domain       string   `json:"domain_query" yaml:"domain_query"`
	MeshTerms    []string `json:"mesh_terms" yaml:"mesh_terms"`
	RelatedTerms []string `json:"related_terms" yaml:"related_terms"`
}

// QueryVariant pairs a variant id with its query string.
type QueryVariant struct {
	ID    Variant
	Query string
}

// Variants returns the variants in dispatch order: exact, expanded, domain.
func (b QueryBundle) Variants() []QueryVariant {
	return []QueryVariant{
		{ID: VariantExact, Query: b.Exact},
		{ID: VariantExpanded, Query: b.Expanded},
		{ID: VariantDomain, Query: b.Domain},
	}
}

// DedupeStats summarizes one deduplication pass.
type DedupeStats struct {
	Total          int `json:"total" yaml:"total"`
	RemovedByDOI   int `json:"doi_deduped" yaml:"doi_deduped"`
	RemovedByTitle int `json:"title_deduped" yaml:"title_deduped"`
	Final          int `json:"final" yaml:"final"`
}

// FusionParams records the ranking parameters a search used.
type FusionParams struct {
	K             int                `json:"k" yaml:"k"`
	Weights       map[string]float64 `json:"weights" yaml:"weights"`
	ShortlistSize int                `json:"shortlist_size" yaml:"shortlist_size"`
	ReferenceYear int                `json:"reference_year" yaml:"reference_year"`
	Spread        float64            `json:"spread" yaml:"spread"`
	DenseStatus   string             `json:"dense_status" yaml:"dense_status"`
}

// SourceError is the failure reason recorded for one source and variant.
type SourceError struct {
	Source  string  `json:"source" yaml:"source"`
	Variant Variant `json:"query_id" yaml:"query_id"`
	Kind    string  `json:"kind" yaml:"kind"`
	Message string  `json:"message" yaml:"message"`
}

// Diagnostics is produced once per search invocation and never mutated
// after RunSearch returns.
type Diagnostics struct {
	RunID           string         `json:"run_id" yaml:"run_id"`
	Topic           string         `json:"topic" yaml:"topic"`
	QueryBundle     QueryBundle    `json:"query_bundle" yaml:"query_bundle"`
	PerSourceCounts map[string]int `json:"per_source_counts" yaml:"per_source_counts"`
	SourceErrors    []SourceError  `json:"source_errors,omitempty" yaml:"source_errors,omitempty"`
	DedupeStats     DedupeStats    `json:"dedupe_stats" yaml:"dedupe_stats"`
	FusionParams    FusionParams   `json:"fusion_params" yaml:"fusion_params"`
	FilterMode      FilterMode     `json:"filter_mode" yaml:"filter_mode"`
	Relaxed         bool           `json:"relaxed" yaml:"relaxed"`
	Rejected        int            `json:"rejected" yaml:"rejected"`
	Returned        int            `json:"returned" yaml:"returned"`
	Duration        time.Duration  `json:"search_duration" yaml:"search_duration"`
	APIRetries      map[string]int `json:"api_retries" yaml:"api_retries"`
}
