// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"math"
	"strings"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// Bounds on the additive authority and availability boosts.
const (
	MaxVenueBoost    = 0.1
	MaxCitationBoost = 0.1
	PDFBonus         = 0.02
	DOIBonus         = 0.01
)

// venueTiers lists venue name fragments by boost. Fragments match whole
// words (or word sequences) of the lowercased venue.
var venueTiers = []struct {
	boost     float64
	fragments []string
}{
	{0.1, []string{"nature", "science", "cell", "lancet", "new england journal of medicine", "nejm"}},
	{0.08, []string{"neurips", "nips", "icml", "iclr", "acl", "cvpr", "jama", "bmj"}},
	{0.05, []string{"ieee", "acm", "springer", "elsevier"}},
}

// VenueBoost returns the tier boost for the first tier whose fragment
// appears in venue, or 0.
func VenueBoost(venue string) float64 {
	padded := " " + strings.Join(Tokenize(venue), " ") + " "
	if padded == "  " {
		return 0
	}
	for _, tier := range venueTiers {
		for _, f := range tier.fragments {
			if strings.Contains(padded, " "+f+" ") {
				return tier.boost
			}
		}
	}
	return 0
}

// CitationBoost maps a citation count to min(0.1, log10(1+c)/40), so 10k
// citations reach the cap.
func CitationBoost(citations int) float64 {
	if citations <= 0 {
		return 0
	}
	return math.Min(MaxCitationBoost, math.Log10(1+float64(citations))/40)
}

// AuthorityScore is the sum of the venue, citation, PDF, and DOI boosts.
func AuthorityScore(p *types.Paper) float64 {
	s := VenueBoost(p.Venue) + CitationBoost(p.Citations)
	if p.HasPDF() {
		s += PDFBonus
	}
	if p.DOI != "" {
		s += DOIBonus
	}
	return s
}

// authorityStage writes Scores.Authority.
type authorityStage struct{}

func (authorityStage) Name() string { return "authority" }

func (authorityStage) Run(_ context.Context, sc *StageContext) error {
	for _, p := range sc.Papers {
		p.Scores.Authority = AuthorityScore(p)
	}
	return nil
}
