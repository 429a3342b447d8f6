// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"fmt"
	"math"

	"github.com/pdiddy/paperfuse/internal/rank"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Soft-mode penalties subtracted from the final score.
const (
	YearPenalty           = 0.3
	VenuePenalty          = 0.2
	NoIncludePenalty      = 0.4
	MissingIncludePenalty = 0.1
	ExcludePenalty        = 0.5
	ReviewPenalty         = 0.3
	PDFPenalty            = 0.2
	ClosedPenalty         = 0.2
)

// Soft applies f as penalties. Only a hard review filter still removes
// papers. Each paper's Scores.Penalty records the total subtracted, Final
// is floored at zero, Reasons notes each penalty, and the result is
// re-sorted stably by final score.
func Soft(papers []*types.Paper, f types.FilterSpec) []*types.Paper {
	var kept []*types.Paper
	for _, p := range papers {
		if f.ReviewFilter == types.ReviewHard && IsReview(p) {
			continue
		}
		penalty, reasons := penalties(p, f)
		p.Scores.Penalty = penalty
		p.Scores.Final = math.Max(0, p.Scores.Final-penalty)
		p.Reasons = append(p.Reasons, reasons...)
		kept = append(kept, p)
	}
	rank.SortByFinal(kept)
	return kept
}

func penalties(p *types.Paper, f types.FilterSpec) (float64, []string) {
	var total float64
	var reasons []string
	add := func(v float64, format string, args ...any) {
		total += v
		reasons = append(reasons, fmt.Sprintf(format, args...)+fmt.Sprintf(" (-%.1f)", v))
	}

	if p.Year > 0 {
		if f.StartYear > 0 && p.Year < f.StartYear {
			add(YearPenalty, "year %d before %d", p.Year, f.StartYear)
		}
		if f.EndYear > 0 && p.Year > f.EndYear {
			add(YearPenalty, "year %d after %d", p.Year, f.EndYear)
		}
	}
	if len(f.Venues) > 0 && p.Venue != "" && !venueMatches(p, f.Venues) {
		add(VenuePenalty, "venue %q not in allow-list", p.Venue)
	}
	if n := len(f.IncludeKeywords); n > 0 {
		switch m := includeMatches(p, f.IncludeKeywords); {
		case m == 0:
			add(NoIncludePenalty, "no include keywords matched")
		case m < n:
			add(MissingIncludePenalty*float64(n-m), "%d of %d include keywords missing", n-m, n)
		}
	}
	if m := excludeMatches(p, f.ExcludeKeywords); m > 0 {
		add(ExcludePenalty*float64(m), "%d exclude keywords matched", m)
	}
	if f.ReviewFilter == types.ReviewSoft && IsReview(p) {
		add(ReviewPenalty, "survey or review")
	}
	if f.RequirePDF && !p.HasPDF() {
		add(PDFPenalty, "no PDF")
	}
	if f.OpenAccessOnly && !p.OpenAccess {
		add(ClosedPenalty, "not open access")
	}
	return total, reasons
}
