// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pdiddy/paperfuse/internal/search"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// addFilterFlags registers the FilterSpec flags shared by search and semantic.
func addFilterFlags(fs *pflag.FlagSet) {
	fs.Int("start-year", 0, "earliest publication year (inclusive)")
	fs.Int("end-year", 0, "latest publication year (inclusive)")
	fs.StringSlice("include", nil, "keywords that must appear in title or abstract (comma-separated)")
	fs.StringSlice("exclude", nil, "keywords that must not appear (comma-separated)")
	fs.StringSlice("venue", nil, "allowed venues, matched case-insensitively (comma-separated)")
	fs.Int("limit", types.DefaultLimit, "maximum number of results to return")
	fs.Bool("require-pdf", false, "only return papers with a PDF link")
	fs.Bool("open-access", false, "only return open-access papers")
	fs.String("review-filter", "", "review paper handling: off, soft, hard")
	fs.String("mode", "", "filter mode: soft relaxes include keywords when nothing matches, hard never relaxes")
	fs.String("format", "table", "output format: table, json, csl")
}

// filterFromFlags reads the flags registered by addFilterFlags.
func filterFromFlags(cmd *cobra.Command) types.FilterSpec {
	fs := cmd.Flags()
	var f types.FilterSpec
	f.StartYear, _ = fs.GetInt("start-year")
	f.EndYear, _ = fs.GetInt("end-year")
	f.IncludeKeywords, _ = fs.GetStringSlice("include")
	f.ExcludeKeywords, _ = fs.GetStringSlice("exclude")
	f.Venues, _ = fs.GetStringSlice("venue")
	f.Limit, _ = fs.GetInt("limit")
	f.RequirePDF, _ = fs.GetBool("require-pdf")
	f.OpenAccessOnly, _ = fs.GetBool("open-access")
	review, _ := fs.GetString("review-filter")
	f.ReviewFilter = types.ReviewFilterMode(review)
	mode, _ := fs.GetString("mode")
	f.Mode = types.FilterMode(mode)
	return f
}

// writeOutput renders out in the format named by the --format flag.
func writeOutput(cmd *cobra.Command, out search.Output, w io.Writer) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "":
		search.FormatTable(out, w)
		return nil
	case "json":
		return search.FormatJSON(out, w)
	case "csl":
		return search.FormatCSL(out, w)
	default:
		return fmt.Errorf("unknown format %q (want table, json, or csl)", format)
	}
}
