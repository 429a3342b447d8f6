// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"testing"
)

func TestFilterSpecValidate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr bool
	}{
		{"zero value", FilterSpec{}, false},
		{"year range", FilterSpec{StartYear: 2020, EndYear: 2024}, false},
		{"inverted years", FilterSpec{StartYear: 2024, EndYear: 2020}, true},
		{"negative year", FilterSpec{StartYear: -1}, true},
		{"negative limit", FilterSpec{Limit: -5}, true},
		{"limit too large", FilterSpec{Limit: MaxLimit + 1}, true},
		{"unknown review mode", FilterSpec{ReviewFilter: "maybe"}, true},
		{"hard review mode", FilterSpec{ReviewFilter: ReviewHard}, false},
		{"unknown filter mode", FilterSpec{Mode: "strict"}, true},
		{"empty keyword", FilterSpec{IncludeKeywords: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidFilter) {
				t.Errorf("error %v does not wrap ErrInvalidFilter", err)
			}
		})
	}
}

func TestFilterSpecNormalized(t *testing.T) {
	f := FilterSpec{IncludeKeywords: []string{" transformers ", "", "bert"}}.Normalized()
	if f.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", f.Limit, DefaultLimit)
	}
	if f.Mode != FilterSoft {
		t.Errorf("Mode = %q, want soft", f.Mode)
	}
	if f.ReviewFilter != ReviewOff {
		t.Errorf("ReviewFilter = %q, want off", f.ReviewFilter)
	}
	if len(f.IncludeKeywords) != 2 || f.IncludeKeywords[0] != "transformers" {
		t.Errorf("IncludeKeywords = %q", f.IncludeKeywords)
	}
}

func TestPaperProvenance(t *testing.T) {
	p := &Paper{Title: "A", Source: "openalex"}
	p.AddProvenance(Provenance{Source: "openalex", Rank: 0, Variant: VariantExact})
	p.AddProvenance(Provenance{Source: "openalex", Rank: 3, Variant: VariantExact})
	p.MergeProvenance([]Provenance{
		{Source: "crossref", Rank: 1, Variant: VariantExact},
		{Source: "openalex", Rank: 2, Variant: VariantDomain},
	})

	if len(p.Provenance) != 3 {
		t.Fatalf("len(Provenance) = %d, want 3", len(p.Provenance))
	}
	if got := p.SourceLabel(); got != "openalex,crossref" {
		t.Errorf("SourceLabel() = %q", got)
	}
}

func TestPaperText(t *testing.T) {
	p := &Paper{Title: "Title"}
	if p.Text() != "Title" {
		t.Errorf("Text() = %q", p.Text())
	}
	p.Abstract = "Body"
	if p.Text() != "Title Body" {
		t.Errorf("Text() = %q", p.Text())
	}
}

func TestQueryBundleVariantsOrder(t *testing.T) {
	b := QueryBundle{Exact: "e", Expanded: "x", Domain: "d"}
	v := b.Variants()
	if len(v) != 3 || v[0].ID != VariantExact || v[1].ID != VariantExpanded || v[2].ID != VariantDomain {
		t.Errorf("Variants() = %+v", v)
	}
}
