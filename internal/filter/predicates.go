// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter applies a FilterSpec to ranked papers, either rejecting
// papers that fail a predicate (hard mode) or subtracting penalties from
// their final score (soft mode), with a relaxation fallback for hard
// filters that leave the result under-filled.
package filter

import (
	"strings"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// reviewTerms mark survey and review papers in a title or venue.
var reviewTerms = []string{"survey", "review", "systematic review"}

// significantWords returns the lowercased words of keyword longer than two
// characters.
func significantWords(keyword string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(keyword)) {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}

// searchText is the lowercased title and abstract.
func searchText(p *types.Paper) string {
	return strings.ToLower(p.Text())
}

// matchesInclude reports whether text contains keyword. A keyword with
// significant words matches when every one of them appears anywhere in the
// text; a keyword made only of short words must appear verbatim.
func matchesInclude(text, keyword string) bool {
	words := significantWords(keyword)
	if len(words) == 0 {
		return strings.Contains(text, strings.ToLower(keyword))
	}
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// matchesExclude reports whether any significant word of keyword appears.
func matchesExclude(text, keyword string) bool {
	words := significantWords(keyword)
	if len(words) == 0 {
		return strings.Contains(text, strings.ToLower(keyword))
	}
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func includeMatches(p *types.Paper, keywords []string) int {
	text := searchText(p)
	var n int
	for _, k := range keywords {
		if matchesInclude(text, k) {
			n++
		}
	}
	return n
}

func excludeMatches(p *types.Paper, keywords []string) int {
	text := searchText(p)
	var n int
	for _, k := range keywords {
		if matchesExclude(text, k) {
			n++
		}
	}
	return n
}

func venueMatches(p *types.Paper, venues []string) bool {
	v := strings.ToLower(p.Venue)
	for _, want := range venues {
		if strings.Contains(v, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

// IsReview reports whether the title or venue marks p as a survey or review.
func IsReview(p *types.Paper) bool {
	text := strings.ToLower(p.Title + " " + p.Venue)
	for _, t := range reviewTerms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}
