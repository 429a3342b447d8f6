// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package debugsink writes write-only diagnostic snapshots under
// <dir>/debug/<slug>/. Nothing in the pipeline reads them back.
package debugsink

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 100

// DefaultSlug is used when a topic folds to the empty string.
const DefaultSlug = "search"

var (
	disallowed = regexp.MustCompile(`[^a-zA-Z0-9\-_\s]`)
	separators = regexp.MustCompile(`[\s_]+`)
)

// Slug folds topic to a filesystem-safe directory name: NFKD decomposition
// with non-ASCII dropped, only [a-zA-Z0-9-_ ] kept, lowercased, runs of
// whitespace and underscores replaced by "-", truncated to 100 bytes.
func Slug(topic string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(topic) {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	s := disallowed.ReplaceAllString(b.String(), "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = separators.ReplaceAllString(s, "-")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// SlugOrDefault returns Slug(topic), or DefaultSlug when that is empty.
func SlugOrDefault(topic string) string {
	if s := Slug(topic); s != "" {
		return s
	}
	return DefaultSlug
}

// Path returns <dir>/debug/<slug>/<name>.
func Path(dir, slug, name string) string {
	return filepath.Join(dir, "debug", slug, name)
}

// WriteJSON marshals v as indented JSON to <dir>/debug/<slug>/<name>,
// creating directories as needed, and returns the written path.
func WriteJSON(dir, slug, name string, v any) (string, error) {
	path := Path(dir, slug, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating debug directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
