// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfuse/pkg/types"
)

func init() {
	color.NoColor = true
}

func sampleOutput() Output {
	return Output{
		Papers: []*types.Paper{
			{
				ID: "W1", Source: "openalex", Title: "Zero-Shot Learning with Semantic Output Codes",
				Authors: []string{"Mark Palatucci", "Dean Pomerleau"}, Year: 2009,
				Venue: "NeurIPS", DOI: "10.1000/zsl.1",
				Scores:     types.ScoreComponents{Final: 0.8123},
				Provenance: []types.Provenance{{Source: "openalex"}, {Source: "crossref"}},
				Reasons:    []string{"include keywords relaxed"},
			},
			{ID: "1901.00002", Source: "arxiv", Title: "Latent Space Alignment", Scores: types.ScoreComponents{Final: 0.5}},
		},
		Diagnostics: types.Diagnostics{
			RunID:           "run-1",
			DedupeStats:     types.DedupeStats{Total: 4, RemovedByDOI: 1, RemovedByTitle: 1, Final: 2},
			PerSourceCounts: map[string]int{"openalex": 2, "arxiv": 1, "crossref": 0},
			SourceErrors:    []types.SourceError{{Source: "crossref", Variant: types.VariantExact, Kind: "timeout", Message: "timeout: deadline exceeded"}},
			Relaxed:         true,
			Duration:        1500 * time.Millisecond,
		},
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleOutput(), &buf)
	out := buf.String()

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "Zero-Shot Learning with Semantic Output Codes")
	assert.Contains(t, out, "Mark Palatucci et al.")
	assert.Contains(t, out, "2009")
	assert.Contains(t, out, "0.812")
	assert.Contains(t, out, "openalex,crossref")
	assert.Contains(t, out, "include keywords relaxed")
	assert.Contains(t, out, "2 results (2 duplicates removed), include keywords relaxed in 1.5s")
	assert.Contains(t, out, "warning: crossref (exact) failed: timeout: deadline exceeded")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	out := sampleOutput()
	out.Papers = nil
	FormatTable(out, &buf)
	assert.True(t, strings.HasPrefix(buf.String(), "No results found.\n"))
	assert.Contains(t, buf.String(), "warning: crossref")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleOutput(), &buf))

	var decoded struct {
		Papers []struct {
			ID     string                `json:"id"`
			Scores types.ScoreComponents `json:"score_components"`
		} `json:"papers"`
		Diagnostics struct {
			RunID string `json:"run_id"`
		} `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Papers, 2)
	assert.Equal(t, "W1", decoded.Papers[0].ID)
	assert.InDelta(t, 0.8123, decoded.Papers[0].Scores.Final, 1e-9)
	assert.Equal(t, "run-1", decoded.Diagnostics.RunID)
}

func TestFormatAuthors(t *testing.T) {
	tests := []struct {
		name    string
		authors []string
		want    string
	}{
		{"none", nil, ""},
		{"one", []string{"Ada Lovelace"}, "Ada Lovelace"},
		{"long single", []string{"Bartholomew Montgomery-Smythe"}, "Bartholomew Montg..."},
		{"several", []string{"Ada Lovelace", "Charles Babbage"}, "Ada Lovelace et al."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatAuthors(tt.authors))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Zürich ...", truncate("Zürich Zürich Zürich", 10))
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL(sampleOutput(), &buf))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "W1", first.ID)
	assert.Equal(t, "article-journal", first.Type)
	assert.Equal(t, "NeurIPS", first.ContainerTitle)
	assert.Equal(t, "10.1000/zsl.1", first.DOI)
	require.NotNil(t, first.Issued)
	assert.Equal(t, [][]int{{2009}}, first.Issued.DateParts)
	assert.Equal(t, []CSLName{{Given: "Mark", Family: "Palatucci"}, {Given: "Dean", Family: "Pomerleau"}}, first.Author)

	second := items[1]
	assert.Equal(t, "article", second.Type)
	assert.Nil(t, second.Issued)
	assert.Contains(t, buf.String(), "container-title: NeurIPS")
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Ada Lovelace", CSLName{Given: "Ada", Family: "Lovelace"}},
		{"Jean Claude Van Damme", CSLName{Given: "Jean Claude Van", Family: "Damme"}},
		{"Plato", CSLName{Literal: "Plato"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseAuthorName(tt.in))
		})
	}
}

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "zsl.yaml")
	f := types.FilterSpec{StartYear: 2015, IncludeKeywords: []string{"attributes"}, Limit: 10, Mode: types.FilterHard}
	out := sampleOutput()

	require.NoError(t, WriteQueryFile(path, "zero-shot learning", f, out))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zero-shot learning", qf.Topic)
	assert.Equal(t, f, qf.Filters)
	assert.Equal(t, 2, qf.Summary.Total)
	assert.Equal(t, "run-1", qf.Summary.RunID)
	assert.True(t, qf.Summary.Relaxed)
	assert.False(t, qf.Summary.Timestamp.IsZero())

	reloaded := qf.Output()
	require.Len(t, reloaded.Papers, 2)
	assert.Equal(t, out.Papers[0].Title, reloaded.Papers[0].Title)
	assert.Equal(t, out.Papers[0].Provenance, reloaded.Papers[0].Provenance)
	assert.Equal(t, out.Diagnostics.DedupeStats, reloaded.Diagnostics.DedupeStats)
	assert.Equal(t, out.Diagnostics.SourceErrors, reloaded.Diagnostics.SourceErrors)
	assert.Equal(t, types.FilterHard, reloaded.Diagnostics.FilterMode)
	assert.Equal(t, 2, reloaded.Diagnostics.Returned)
}

func TestReadQueryFileErrors(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading query file")
}
