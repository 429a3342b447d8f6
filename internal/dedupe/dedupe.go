// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe collapses papers returned by several sources and query
// variants into a unique set, matching first on normalized DOI and then on
// fuzzy title similarity.
package dedupe

import (
	"github.com/pdiddy/paperfuse/internal/ident"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// TitleThreshold is the similarity ratio at or above which two normalized
// titles are treated as the same paper.
const TitleThreshold = 0.92

// Dedupe processes papers in arrival order and returns the survivors in
// first-seen order together with match statistics.
//
// A DOI match keeps the first-seen record. A fuzzy title match keeps the
// record with the longer abstract (then the higher citation count) in the
// slot of the first-seen record. Either way the dropped record's provenance
// is merged into the survivor. Passes repeat until nothing more collapses,
// so running Dedupe on its own output removes nothing.
func Dedupe(papers []*types.Paper) ([]*types.Paper, types.DedupeStats) {
	out, _, stats := Merge(papers)
	return out, stats
}

// Merge is Dedupe that also reports, for each survivor, every input record
// that collapsed into it (the survivor included), in arrival order.
func Merge(papers []*types.Paper) ([]*types.Paper, [][]*types.Paper, types.DedupeStats) {
	stats := types.DedupeStats{Total: len(papers)}

	out := papers
	groups := make([][]*types.Paper, len(papers))
	for i, p := range papers {
		groups[i] = []*types.Paper{p}
	}
	for {
		var byDOI, byTitle int
		out, groups, byDOI, byTitle = pass(out, groups)
		stats.RemovedByDOI += byDOI
		stats.RemovedByTitle += byTitle
		if byDOI+byTitle == 0 {
			break
		}
	}
	if out == nil {
		out = []*types.Paper{}
		groups = [][]*types.Paper{}
	}
	stats.Final = len(out)
	return out, groups, stats
}

// Key returns the identity key for a paper: its normalized DOI when present,
// otherwise its normalized title.
func Key(p *types.Paper) string {
	if doi := ident.NormalizeDOI(p.DOI); doi != "" {
		return "doi:" + doi
	}
	return "title:" + NormalizeTitle(p.Title)
}

func pass(papers []*types.Paper, groups [][]*types.Paper) ([]*types.Paper, [][]*types.Paper, int, int) {
	var (
		out       []*types.Paper
		outGroups [][]*types.Paper
		titles    []string
		seenDOI   = make(map[string]int)
		byDOI     int
		byTitle   int
	)

	for i, p := range papers {
		doi := ident.NormalizeDOI(p.DOI)
		if doi != "" {
			if idx, ok := seenDOI[doi]; ok {
				out[idx].MergeProvenance(p.Provenance)
				outGroups[idx] = append(outGroups[idx], groups[i]...)
				byDOI++
				continue
			}
		}

		title := NormalizeTitle(p.Title)
		if idx := matchTitle(title, titles); idx >= 0 {
			survivor := out[idx]
			if richer(p, survivor) {
				merged := append([]types.Provenance(nil), survivor.Provenance...)
				p.Provenance = mergeInto(merged, p.Provenance)
				out[idx] = p
				titles[idx] = title
			} else {
				survivor.MergeProvenance(p.Provenance)
			}
			outGroups[idx] = append(outGroups[idx], groups[i]...)
			if doi != "" {
				seenDOI[doi] = idx
			}
			byTitle++
			continue
		}

		if doi != "" {
			seenDOI[doi] = len(out)
		}
		out = append(out, p)
		outGroups = append(outGroups, append([]*types.Paper(nil), groups[i]...))
		titles = append(titles, title)
	}
	return out, outGroups, byDOI, byTitle
}

// matchTitle returns the index of the first prior title whose similarity to
// title reaches TitleThreshold, or -1. Empty titles never match.
func matchTitle(title string, prior []string) int {
	if title == "" {
		return -1
	}
	for i, t := range prior {
		if t == "" {
			continue
		}
		if t == title {
			return i
		}
		if quickRatioBound(title, t) < TitleThreshold {
			continue
		}
		if Ratio(title, t) >= TitleThreshold {
			return i
		}
	}
	return -1
}

// richer reports whether candidate should replace survivor: a longer
// abstract wins, and with equal abstracts the higher citation count wins.
func richer(candidate, survivor *types.Paper) bool {
	ca, sa := len(candidate.Abstract), len(survivor.Abstract)
	if ca != sa {
		return ca > sa
	}
	return candidate.Citations > survivor.Citations
}

func mergeInto(dst, src []types.Provenance) []types.Provenance {
	tmp := &types.Paper{Provenance: dst}
	tmp.MergeProvenance(src)
	return tmp.Provenance
}
