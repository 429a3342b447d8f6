// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// RelaxedReason is added to papers admitted only because include keywords
// were relaxed.
const RelaxedReason = "include keywords relaxed"

// Outcome is the result of Apply.
type Outcome struct {
	Papers []*types.Paper

	// Relaxed is true when hard filtering under-filled the result and the
	// include-keyword predicate was dropped.
	Relaxed bool

	// Rejected counts candidates removed by filtering, before the limit.
	Rejected int
}

// Apply filters ranked papers according to f.Mode and truncates to f.Limit.
// In hard mode, when fewer than f.Limit papers survive and include
// keywords were given, the filter is recomputed without the include
// predicate over the same ranked order, capped at twice the limit.
func Apply(papers []*types.Paper, f types.FilterSpec, logger zerolog.Logger) Outcome {
	f = f.Normalized()

	if !f.Strict() {
		kept := Soft(papers, f)
		return Outcome{Papers: truncate(kept, f.Limit), Rejected: len(papers) - len(kept)}
	}

	kept := Hard(papers, f)
	out := Outcome{Rejected: len(papers) - len(kept)}
	if len(kept) < f.Limit && len(f.IncludeKeywords) > 0 {
		loose := hard(papers, f, false)
		strict := make(map[*types.Paper]bool, len(kept))
		for _, p := range kept {
			strict[p] = true
		}
		relaxed := truncate(loose, 2*f.Limit)
		for _, p := range relaxed {
			if !strict[p] {
				p.Reasons = append(p.Reasons, RelaxedReason)
			}
		}
		logger.Info().
			Int("strict", len(kept)).
			Int("relaxed", len(relaxed)).
			Int("limit", f.Limit).
			Strs("include_keywords", f.IncludeKeywords).
			Msg("hard filters under-filled results, relaxing include keywords")
		out.Relaxed = true
		out.Rejected = len(papers) - len(loose)
		kept = relaxed
	}
	out.Papers = truncate(kept, f.Limit)
	return out
}

func truncate(papers []*types.Paper, n int) []*types.Paper {
	if n > 0 && len(papers) > n {
		return papers[:n]
	}
	return papers
}
