// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paperfuse/internal/embed"
)

// DefaultShortlist is the number of candidates carried into dense re-ranking.
const DefaultShortlist = 200

// Dense stage outcomes recorded in FusionParams.DenseStatus.
const (
	DenseOK      = "ok"
	DenseSkipped = "skipped"
)

// denseStage writes Scores.Dense for the first shortlist candidates in the
// current order. Every other candidate, and every candidate when embedding
// fails, gets 0.
type denseStage struct {
	embedder  embed.Embedder
	shortlist int
	logger    zerolog.Logger
}

func (denseStage) Name() string { return "dense" }

func (s denseStage) Run(ctx context.Context, sc *StageContext) error {
	for _, p := range sc.Papers {
		p.Scores.Dense = 0
	}
	if s.embedder == nil || len(sc.Papers) == 0 || sc.Query == "" {
		sc.DenseStatus = DenseSkipped
		return nil
	}

	n := min(s.shortlist, len(sc.Papers))
	texts := make([]string, 0, n+1)
	texts = append(texts, sc.Query)
	for _, p := range sc.Papers[:n] {
		texts = append(texts, p.Text())
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err == nil && len(vecs) != len(texts) {
		err = fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	if err != nil {
		sc.DenseStatus = "failed: " + err.Error()
		s.logger.Warn().Err(err).Int("shortlist", n).Msg("dense scoring failed, continuing without it")
		return nil
	}

	query := vecs[0]
	for i, p := range sc.Papers[:n] {
		p.Scores.Dense = math.Max(0, math.Min(1, embed.Cosine(query, vecs[i+1])))
	}
	sc.DenseStatus = DenseOK
	return nil
}
