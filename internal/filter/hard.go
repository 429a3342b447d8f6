// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import "github.com/pdiddy/paperfuse/pkg/types"

// Hard returns the papers that pass every predicate of f, in input order.
// A paper with an unknown year fails a start bound and passes an end bound.
func Hard(papers []*types.Paper, f types.FilterSpec) []*types.Paper {
	return hard(papers, f, true)
}

func hard(papers []*types.Paper, f types.FilterSpec, checkInclude bool) []*types.Paper {
	var kept []*types.Paper
	for _, p := range papers {
		if passes(p, f, checkInclude) {
			kept = append(kept, p)
		}
	}
	return kept
}

func passes(p *types.Paper, f types.FilterSpec, checkInclude bool) bool {
	if f.StartYear > 0 && p.Year < f.StartYear {
		return false
	}
	if f.EndYear > 0 && p.Year > f.EndYear {
		return false
	}
	if len(f.Venues) > 0 && !venueMatches(p, f.Venues) {
		return false
	}
	if checkInclude && len(f.IncludeKeywords) > 0 && includeMatches(p, f.IncludeKeywords) == 0 {
		return false
	}
	if len(f.ExcludeKeywords) > 0 && excludeMatches(p, f.ExcludeKeywords) > 0 {
		return false
	}
	if f.ReviewFilter == types.ReviewHard && IsReview(p) {
		return false
	}
	if f.RequirePDF && !p.HasPDF() {
		return false
	}
	if f.OpenAccessOnly && !p.OpenAccess {
		return false
	}
	return true
}
