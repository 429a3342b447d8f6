// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"sync"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// constructors builds each adapter from configuration, in Known() order.
var constructors = map[string]func(types.Config) Source{
	OpenAlex:        func(c types.Config) Source { return NewOpenAlex(c) },
	SemanticScholar: func(c types.Config) Source { return NewSemanticScholar(c) },
	Arxiv:           func(c types.Config) Source { return NewArxiv(c) },
	PubMed:          func(c types.Config) Source { return NewPubMed(c) },
	Crossref:        func(c types.Config) Source { return NewCrossref(c) },
	EuropePMC:       func(c types.Config) Source { return NewEuropePMC(c) },
	BioRxiv:         func(c types.Config) Source { return NewBioRxiv(c) },
	MedRxiv:         func(c types.Config) Source { return NewMedRxiv(c) },
	DBLP:            func(c types.Config) Source { return NewDBLP(c) },
	Scholar:         func(c types.Config) Source { return NewScholar(c) },
}

// Registry holds the source instances a search fans out to, in
// registration order.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

// NewRegistry returns an empty registry.
func NewRegistry(srcs ...Source) *Registry {
	r := &Registry{}
	for _, s := range srcs {
		r.Register(s)
	}
	return r
}

// FromConfig builds a registry holding every enabled source. A nil enable
// map enables all of them.
func FromConfig(cfg types.Config) *Registry {
	r := NewRegistry()
	for _, name := range Known() {
		if cfg.Sources.Enabled != nil && !cfg.Sources.Enabled[name] {
			continue
		}
		r.Register(constructors[name](cfg))
	}
	return r
}

// Register adds s, replacing any source with the same name.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sources {
		if existing.Name() == s.Name() {
			r.sources[i] = s
			return
		}
	}
	r.sources = append(r.sources, s)
}

// Get returns the source registered under name.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sources {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Sources returns a snapshot of the registered sources.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Source(nil), r.sources...)
}

// Names returns the registered source names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
