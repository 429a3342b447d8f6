// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/paperfuse/internal/dedupe"
	"github.com/pdiddy/paperfuse/internal/filter"
	"github.com/pdiddy/paperfuse/internal/rank"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Semantic and hybrid score weights.
const (
	semanticWeight = 0.7
	lexicalWeight  = 0.3

	// With a description the query carries more meaning than the title.
	hybridDescribedWeight = 0.8
	hybridTitleWeight     = 0.6
)

// shortQueryLen is the length under which a query gets the short prefix.
const shortQueryLen = 10

// EnhanceQuery frames query as a request for academic papers before it is
// embedded.
func EnhanceQuery(query string) string {
	q := strings.TrimSpace(query)
	if len(q) < shortQueryLen {
		return "research papers about " + q
	}
	return "academic research papers: " + q
}

// SemanticSearch ranks indexed papers by embedding similarity to query.
// It retrieves twice the limit, applies f in hard mode, and scores the
// survivors as 0.7 similarity plus 0.3 lexical relevance.
func (e *Engine) SemanticSearch(ctx context.Context, query string, f types.FilterSpec) ([]*types.Paper, error) {
	if e.index == nil {
		return nil, fmt.Errorf("%w: no index configured", types.ErrEmbeddingUnavailable)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validating filter: %w", err)
	}
	f.Mode = types.FilterHard
	f = f.Normalized()

	start := time.Now()
	hits, err := e.index.SearchText(ctx, EnhanceQuery(query), 2*f.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	papers := make([]*types.Paper, len(hits))
	for i, h := range hits {
		p := h.Paper
		p.Scores.Dense = clamp01(h.Score)
		p.Reasons = append(p.Reasons, fmt.Sprintf("semantic similarity: %.3f", h.Score))
		papers[i] = p
	}

	papers = filter.Hard(papers, f)
	for i, s := range rank.LexicalScores(papers, query) {
		p := papers[i]
		p.Scores.BM25 = s
		p.Scores.Final = semanticWeight*p.Scores.Dense + lexicalWeight*s
	}
	rank.SortByFinal(papers)
	if len(papers) > f.Limit {
		papers = papers[:f.Limit]
	}

	e.logger.Info().
		Str("query", query).
		Int("hits", len(hits)).
		Int("returned", len(papers)).
		Dur("duration", time.Since(start)).
		Msg("semantic search finished")
	return papers, nil
}

// HybridSearch combines a semantic search for the description and title
// with a regular multi-source search for the title. Each merged paper
// scores a weighted sum of its semantic similarity and its lexical
// relevance in the title search; a paper missing from one side scores 0
// there. A failed semantic side degrades to title results only.
func (e *Engine) HybridSearch(ctx context.Context, title, description string, f types.FilterSpec) ([]*types.Paper, types.Diagnostics, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)

	semanticQuery := title
	weight := hybridTitleWeight
	if description != "" {
		semanticQuery = strings.TrimSpace(description + " " + title)
		weight = hybridDescribedWeight
	}

	semantic, err := e.SemanticSearch(ctx, semanticQuery, f)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.Diagnostics{}, ctx.Err()
		}
		if IsInvalidFilter(err) {
			return nil, types.Diagnostics{}, err
		}
		e.logger.Warn().Err(err).Msg("semantic side of hybrid search failed, using title results only")
		semantic = nil
	}

	titled, diag, err := e.RunSearch(ctx, title, f)
	if err != nil {
		return nil, diag, err
	}

	// Scores are tracked per input record: a survivor may carry a title key
	// on one side and a DOI key on the other.
	semScores := make(map[*types.Paper]float64, len(semantic))
	for _, p := range semantic {
		semScores[p] = p.Scores.Dense
	}
	titleScores := make(map[*types.Paper]float64, len(titled))
	for _, p := range titled {
		titleScores[p] = p.Scores.BM25
	}

	merged, groups, _ := dedupe.Merge(append(append([]*types.Paper(nil), semantic...), titled...))
	for i, p := range merged {
		var sem, lex float64
		for _, member := range groups[i] {
			sem = math.Max(sem, semScores[member])
			lex = math.Max(lex, titleScores[member])
		}
		p.Scores.Final = weight*sem + (1-weight)*lex
	}
	rank.SortByFinal(merged)

	limit := f.Normalized().Limit
	if len(merged) > limit {
		merged = merged[:limit]
	}
	diag.Returned = len(merged)
	return merged, diag, nil
}

// IndexPapers embeds papers and adds them to the semantic index.
func (e *Engine) IndexPapers(ctx context.Context, papers []*types.Paper) (int, error) {
	if e.index == nil {
		return 0, fmt.Errorf("%w: no index configured", types.ErrEmbeddingUnavailable)
	}
	return e.index.Add(ctx, papers)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
