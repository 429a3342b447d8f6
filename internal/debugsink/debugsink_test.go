// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package debugsink

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Zero-Shot Learning", "zero-shot-learning"},
		{"  deep   learning_for  cancer ", "deep-learning-for-cancer"},
		{"Café résumé", "cafe-resume"},
		{"AI & healthcare: a review!", "ai-healthcare-a-review"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugTruncates(t *testing.T) {
	s := Slug(strings.Repeat("a", 250))
	if len(s) != 100 {
		t.Errorf("len = %d, want 100", len(s))
	}
}

func TestSlugOrDefault(t *testing.T) {
	if got := SlugOrDefault("???"); got != DefaultSlug {
		t.Errorf("SlugOrDefault = %q", got)
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteJSON(dir, "topic", "report.json", map[string]int{"n": 3})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if path != filepath.Join(dir, "debug", "topic", "report.json") {
		t.Errorf("path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["n"] != 3 {
		t.Errorf("n = %d", got["n"])
	}
}
