// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package querybuild derives the query variants dispatched for a topic:
// an exact phrase query, a boolean query expanded with thesaurus and
// acronym terms, and a domain query expanded with subject term lists.
package querybuild

import (
	"strings"

	"github.com/pdiddy/paperfuse/internal/debugsink"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// BundleFile is the file name SaveBundle writes under the debug directory.
const BundleFile = "query_bundle.json"

// Build returns the query bundle for topic and the include/exclude keywords
// in f. It never fails: with an empty topic and no keywords every query is
// the empty string.
func Build(topic string, f types.FilterSpec) types.QueryBundle {
	topic = strings.Join(strings.Fields(topic), " ")
	include := cleanTerms(f.IncludeKeywords)
	exclude := cleanTerms(f.ExcludeKeywords)

	mesh := meshHits(topic)
	return types.QueryBundle{
		Exact:        exactQuery(topic, include),
		Expanded:     expandedQuery(topic, include, exclude, mesh),
		Domain:       domainQuery(topic, include, exclude),
		MeshTerms:    mesh,
		RelatedTerms: relatedTerms(topic),
	}
}

// SaveBundle writes the bundle to <dir>/debug/<slug>/query_bundle.json.
func SaveBundle(dir, slug string, b types.QueryBundle) (string, error) {
	return debugsink.WriteJSON(dir, slug, BundleFile, b)
}

func exactQuery(topic string, include []string) string {
	var phrases []string
	if topic != "" {
		phrases = append(phrases, quote(topic))
	}
	for _, kw := range include {
		phrases = append(phrases, quote(kw))
	}
	return strings.Join(phrases, " AND ")
}

func expandedQuery(topic string, include, exclude, mesh []string) string {
	var terms termSet
	terms.add(topic)
	terms.add(include...)
	terms.add(mesh...)

	// Acronyms expand whole terms and whole words of the topic and keywords.
	candidates := append([]string{topic}, include...)
	candidates = append(candidates, mesh...)
	for _, c := range candidates {
		terms.add(acronyms[strings.ToLower(c)]...)
		for _, w := range strings.Fields(strings.ToLower(c)) {
			terms.add(acronyms[w]...)
		}
	}
	return withExclusions(strings.Join(terms.list, " OR "), exclude)
}

func domainQuery(topic string, include, exclude []string) string {
	var terms termSet
	terms.add(topic)
	lower := strings.ToLower(topic)
	for _, d := range domains {
		if d.matches(lower) {
			terms.add(d.terms...)
		}
	}
	terms.add(include...)
	return withExclusions(strings.Join(terms.list, " OR "), exclude)
}

func relatedTerms(topic string) []string {
	lower := strings.ToLower(topic)
	var out []string
	for _, r := range related {
		if strings.Contains(lower, r.trigger) {
			out = append(out, r.terms...)
		}
	}
	return out
}

// meshHits returns the thesaurus terms for every concept contained in the
// topic, in table order with duplicates removed.
func meshHits(topic string) []string {
	lower := strings.ToLower(topic)
	var hits termSet
	for _, c := range meshTable {
		if lower != "" && strings.Contains(lower, c.concept) {
			hits.add(c.terms...)
		}
	}
	return hits.list
}

// withExclusions appends "AND NOT (...)" over the OR-group of excluded terms.
func withExclusions(query string, exclude []string) string {
	if query == "" || len(exclude) == 0 {
		return query
	}
	quoted := make([]string, len(exclude))
	for i, ex := range exclude {
		quoted[i] = quote(ex)
	}
	return "(" + query + ") AND NOT (" + strings.Join(quoted, " OR ") + ")"
}

// quote wraps multi-word phrases in double quotes.
func quote(s string) string {
	if strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) && len(s) > 1 {
		return s
	}
	if len(strings.Fields(s)) > 1 {
		return `"` + s + `"`
	}
	return s
}

func cleanTerms(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// termSet keeps terms in first-seen order, ignoring case-insensitive repeats.
type termSet struct {
	list []string
	seen map[string]bool
}

func (s *termSet) add(terms ...string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, t := range terms {
		key := strings.ToLower(t)
		if t == "" || s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.list = append(s.list, t)
	}
}
