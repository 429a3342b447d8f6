// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ReviewFilterMode controls how survey and review papers are treated.
type ReviewFilterMode string

const (
	ReviewOff  ReviewFilterMode = "off"
	ReviewSoft ReviewFilterMode = "soft"
	ReviewHard ReviewFilterMode = "hard"
)

// FilterMode selects whether filter predicates reject papers or penalize them.
type FilterMode string

const (
	FilterSoft FilterMode = "soft"
	FilterHard FilterMode = "hard"
)

// DefaultLimit is the result size used when a FilterSpec leaves Limit unset.
const DefaultLimit = 20

// MaxLimit bounds the result size a caller may request.
const MaxLimit = 500

// FilterSpec describes the constraints a search applies to its candidates.
type FilterSpec struct {
	// StartYear and EndYear bound the publication year; zero means unbounded.
	StartYear int `json:"start_year,omitempty" yaml:"start_year,omitempty" validate:"gte=0"`
	EndYear   int `json:"end_year,omitempty" yaml:"end_year,omitempty" validate:"gte=0"`

	IncludeKeywords []string `json:"include_keywords,omitempty" yaml:"include_keywords,omitempty" validate:"dive,required"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty" yaml:"exclude_keywords,omitempty" validate:"dive,required"`

	// Venues is an allow-list; a paper matches when any entry is a
	// case-insensitive substring of its venue.
	Venues []string `json:"venues,omitempty" yaml:"venues,omitempty" validate:"dive,required"`

	// Limit is the maximum number of ranked papers returned.
	Limit int `json:"limit" yaml:"limit" validate:"gte=0,lte=500"`

	RequirePDF     bool `json:"require_pdf,omitempty" yaml:"require_pdf,omitempty"`
	OpenAccessOnly bool `json:"open_access_only,omitempty" yaml:"open_access_only,omitempty"`

	ReviewFilter ReviewFilterMode `json:"review_filter,omitempty" yaml:"review_filter,omitempty" validate:"omitempty,oneof=off soft hard"`
	Mode         FilterMode       `json:"mode,omitempty" yaml:"mode,omitempty" validate:"omitempty,oneof=soft hard"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalized returns a copy with defaults applied: Limit falls back to
// DefaultLimit, ReviewFilter to off, and Mode to soft. Keywords and venues
// are trimmed and empty entries dropped.
func (f FilterSpec) Normalized() FilterSpec {
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.ReviewFilter == "" {
		f.ReviewFilter = ReviewOff
	}
	if f.Mode == "" {
		f.Mode = FilterSoft
	}
	f.IncludeKeywords = cleanList(f.IncludeKeywords)
	f.ExcludeKeywords = cleanList(f.ExcludeKeywords)
	f.Venues = cleanList(f.Venues)
	return f
}

// Validate checks the spec and returns a *ValidationError describing the
// first problem found. The error matches ErrInvalidFilter via errors.Is.
func (f FilterSpec) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q constraint (value %v)", fe.Tag(), fe.Value()),
			}
		}
		return &ValidationError{Field: "FilterSpec", Message: err.Error()}
	}
	if f.StartYear > 0 && f.EndYear > 0 && f.StartYear > f.EndYear {
		return &ValidationError{
			Field:   "FilterSpec.StartYear",
			Message: fmt.Sprintf("start year %d is after end year %d", f.StartYear, f.EndYear),
		}
	}
	return nil
}

// Strict reports whether predicates reject papers rather than penalize them.
func (f FilterSpec) Strict() bool { return f.Mode == FilterHard }

func cleanList(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
