// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperfuse/internal/search"
	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

func newFilterCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addFilterFlags(cmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestFilterFromFlags(t *testing.T) {
	cmd := newFilterCmd(t,
		"--start-year", "2018", "--end-year", "2024",
		"--include", "attention,transformer", "--exclude", "survey",
		"--venue", "NeurIPS", "--limit", "5",
		"--require-pdf", "--open-access",
		"--review-filter", "hard", "--mode", "hard",
	)

	f := filterFromFlags(cmd)
	assert.Equal(t, types.FilterSpec{
		StartYear:       2018,
		EndYear:         2024,
		IncludeKeywords: []string{"attention", "transformer"},
		ExcludeKeywords: []string{"survey"},
		Venues:          []string{"NeurIPS"},
		Limit:           5,
		RequirePDF:      true,
		OpenAccessOnly:  true,
		ReviewFilter:    types.ReviewHard,
		Mode:            types.FilterHard,
	}, f)
	require.NoError(t, f.Validate())
}

func TestFilterFromFlagsDefaults(t *testing.T) {
	f := filterFromFlags(newFilterCmd(t))
	assert.Equal(t, types.DefaultLimit, f.Limit)
	assert.Empty(t, f.IncludeKeywords)
	assert.Empty(t, f.Mode)
}

func TestWriteOutputFormats(t *testing.T) {
	out := search.Output{Papers: []*types.Paper{{ID: "W1", Source: "openalex", Title: "Sparse Attention"}}}

	for _, format := range []string{"table", "json", "csl"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			cmd := newFilterCmd(t, "--format", format)
			require.NoError(t, writeOutput(cmd, out, &buf))
			assert.Contains(t, buf.String(), "Sparse Attention")
		})
	}

	var buf bytes.Buffer
	err := writeOutput(newFilterCmd(t, "--format", "xml"), out, &buf)
	assert.ErrorContains(t, err, "unknown format")
}

func TestCredentialNote(t *testing.T) {
	cfg := types.SourcesConfig{SemanticScholarAPIKey: "k", SerperKey: "s"}
	assert.Equal(t, "API key set", credentialNote(sources.SemanticScholar, cfg))
	assert.Equal(t, "polite-pool email not set", credentialNote(sources.OpenAlex, cfg))
	assert.Equal(t, "provider serpapi, SerpAPI key not set, Serper key set", credentialNote(sources.Scholar, cfg))
	assert.Equal(t, "-", credentialNote(sources.Arxiv, cfg))
}
