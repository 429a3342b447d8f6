// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"context"
	"math"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Caps for the additive lexical boosts.
const (
	titleBoostCap    = 0.1
	coverageBoostCap = 0.1
)

// BM25 scores each tokenized document against the query tokens, treating
// docs as the whole corpus. Document frequencies, average length, and IDF
// all come from docs, so scores are relative to the batch.
func BM25(docs [][]string, query []string) []float64 {
	scores := make([]float64, len(docs))
	n := len(docs)
	if n == 0 || len(query) == 0 {
		return scores
	}

	df := make(map[string]int)
	var totalLen int
	tfs := make([]map[string]int, n)
	for i, doc := range docs {
		totalLen += len(doc)
		tf := make(map[string]int, len(doc))
		for _, tok := range doc {
			tf[tok]++
		}
		tfs[i] = tf
		for tok := range tf {
			df[tok]++
		}
	}
	avgLen := float64(totalLen) / float64(n)
	if avgLen == 0 {
		return scores
	}

	for i, doc := range docs {
		dl := float64(len(doc))
		var s float64
		for _, q := range query {
			f := float64(tfs[i][q])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (float64(n-df[q])+0.5)/(float64(df[q])+0.5))
			s += idf * f * (bm25K1 + 1) / (f + bm25K1*(1-bm25B+bm25B*dl/avgLen))
		}
		scores[i] = s
	}
	return scores
}

// LexicalScores returns a [0,1] lexical relevance score per paper: BM25 over
// title+abstract normalized by the batch maximum, plus capped boosts for the
// fraction of query tokens found in the title and the fraction of query
// unigrams and bigrams found anywhere in the text.
func LexicalScores(papers []*types.Paper, query string) []float64 {
	qTokens := QueryTokens(query)
	docs := make([][]string, len(papers))
	titles := make([][]string, len(papers))
	for i, p := range papers {
		docs[i] = Tokenize(p.Text())
		titles[i] = Tokenize(p.Title)
	}

	raw := BM25(docs, qTokens)
	var maxRaw float64
	for _, s := range raw {
		maxRaw = math.Max(maxRaw, s)
	}

	unique := distinct(qTokens)
	phrases := append(append([]string(nil), unique...), distinct(bigrams(qTokens))...)

	out := make([]float64, len(papers))
	for i := range papers {
		var base float64
		if maxRaw > 0 {
			base = raw[i] / maxRaw
		}
		title := titleBoostCap * fraction(unique, set(titles[i]))
		docSet := set(docs[i])
		for _, bg := range bigrams(docs[i]) {
			docSet[bg] = true
		}
		coverage := coverageBoostCap * fraction(phrases, docSet)
		out[i] = math.Min(1, base+title+coverage)
	}
	return out
}

func set(tokens []string) map[string]bool {
	m := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		m[t] = true
	}
	return m
}

func fraction(want []string, have map[string]bool) float64 {
	if len(want) == 0 {
		return 0
	}
	var hits int
	for _, w := range want {
		if have[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(want))
}

// bm25Stage writes Scores.BM25.
type bm25Stage struct{}

func (bm25Stage) Name() string { return "bm25" }

func (bm25Stage) Run(_ context.Context, sc *StageContext) error {
	for i, s := range LexicalScores(sc.Papers, sc.Query) {
		sc.Papers[i].Scores.BM25 = s
	}
	return nil
}
