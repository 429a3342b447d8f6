// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package embed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pdiddy/paperfuse/internal/dedupe"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Hit is one index search result.
type Hit struct {
	Paper *types.Paper
	Score float64
}

// Stats summarizes the index contents.
type Stats struct {
	Papers  int            `json:"papers" yaml:"papers"`
	Dim     int            `json:"dimension" yaml:"dimension"`
	Sources map[string]int `json:"sources" yaml:"sources"`
}

// Index is an in-memory vector index over papers. Writers are serialized
// and publish a new immutable snapshot; readers load the current snapshot
// without locking and never observe a partial write.
type Index struct {
	mu       sync.Mutex
	snap     atomic.Pointer[snapshot]
	embedder Embedder
	store    *Store
}

type entry struct {
	key   string
	paper types.Paper
	vec   []float32
}

type snapshot struct {
	dim     int
	entries []entry
	byKey   map[string]int
}

// NewIndex returns an empty index. The embedder is used by Add and
// SearchText; store, when non-nil, receives every write.
func NewIndex(e Embedder, store *Store) *Index {
	ix := &Index{embedder: e, store: store}
	ix.snap.Store(&snapshot{byKey: map[string]int{}})
	return ix
}

// Load replaces the index contents with everything in the store.
func (ix *Index) Load(ctx context.Context) error {
	if ix.store == nil {
		return nil
	}
	papers, vecs, err := ix.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	next, err := (&snapshot{byKey: map[string]int{}}).with(papers, vecs)
	if err != nil {
		return err
	}
	ix.snap.Store(next)
	return nil
}

// Add embeds each paper's title and abstract and upserts it. It returns the
// number of papers written.
func (ix *Index) Add(ctx context.Context, papers []*types.Paper) (int, error) {
	if len(papers) == 0 {
		return 0, nil
	}
	if ix.embedder == nil {
		return 0, types.ErrEmbeddingUnavailable
	}
	texts := make([]string, len(papers))
	for i, p := range papers {
		texts[i] = p.Text()
	}
	vecs, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding papers: %w", err)
	}
	if err := ix.AddVectors(ctx, papers, vecs); err != nil {
		return 0, err
	}
	return len(papers), nil
}

// AddVectors upserts papers with precomputed vectors. All vectors must
// share the index dimension.
func (ix *Index) AddVectors(ctx context.Context, papers []*types.Paper, vecs [][]float32) error {
	if len(papers) != len(vecs) {
		return fmt.Errorf("%d papers but %d vectors", len(papers), len(vecs))
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()

	next, err := ix.snap.Load().with(papers, vecs)
	if err != nil {
		return err
	}
	if ix.store != nil {
		if err := ix.store.Save(ctx, papers, vecs); err != nil {
			return err
		}
	}
	ix.snap.Store(next)
	return nil
}

// with returns a copy of s with papers upserted by identity key.
func (s *snapshot) with(papers []*types.Paper, vecs [][]float32) (*snapshot, error) {
	next := &snapshot{
		dim:     s.dim,
		entries: append([]entry(nil), s.entries...),
		byKey:   make(map[string]int, len(s.byKey)+len(papers)),
	}
	for k, v := range s.byKey {
		next.byKey[k] = v
	}
	for i, p := range papers {
		v := vecs[i]
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: empty vector for %q", types.ErrDimensionMismatch, p.Title)
		}
		if next.dim == 0 {
			next.dim = len(v)
		}
		if len(v) != next.dim {
			return nil, fmt.Errorf("%w: got %d, index has %d", types.ErrDimensionMismatch, len(v), next.dim)
		}
		e := entry{key: dedupe.Key(p), paper: *p, vec: Normalize(v)}
		e.paper.Scores = types.ScoreComponents{}
		e.paper.Reasons = nil
		if slot, ok := next.byKey[e.key]; ok {
			next.entries[slot] = e
			continue
		}
		next.byKey[e.key] = len(next.entries)
		next.entries = append(next.entries, e)
	}
	return next, nil
}

// Search returns the k entries most similar to vec, best first. Ties keep
// insertion order.
func (ix *Index) Search(vec []float32, k int) ([]Hit, error) {
	s := ix.snap.Load()
	if len(s.entries) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vec) != s.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", types.ErrDimensionMismatch, len(vec), s.dim)
	}
	q := Normalize(vec)
	hits := make([]Hit, len(s.entries))
	for i := range s.entries {
		p := s.entries[i].paper
		p.Provenance = append([]types.Provenance(nil), p.Provenance...)
		hits[i] = Hit{Paper: &p, Score: dot(q, s.entries[i].vec)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// SearchText embeds query and searches for it.
func (ix *Index) SearchText(ctx context.Context, query string, k int) ([]Hit, error) {
	if ix.embedder == nil {
		return nil, types.ErrEmbeddingUnavailable
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedding query: got %d vectors", len(vecs))
	}
	return ix.Search(vecs[0], k)
}

// Len returns the number of indexed papers.
func (ix *Index) Len() int { return len(ix.snap.Load().entries) }

// Stats reports the index size, dimension, and papers per source.
func (ix *Index) Stats() Stats {
	s := ix.snap.Load()
	st := Stats{Papers: len(s.entries), Dim: s.dim, Sources: map[string]int{}}
	for _, e := range s.entries {
		st.Sources[e.paper.Source]++
	}
	return st
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
