// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// Output is a finished search as presented to the user.
type Output struct {
	Papers      []*types.Paper    `json:"papers" yaml:"papers"`
	Diagnostics types.Diagnostics `json:"diagnostics" yaml:"diagnostics"`
}

var (
	header  = color.New(color.Bold)
	faint   = color.New(color.Faint)
	warning = color.New(color.FgYellow)
)

// FormatTable writes papers as a human-readable table to w, followed by a
// summary line and any source failures.
func FormatTable(out Output, w io.Writer) {
	if len(out.Papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		writeSourceErrors(out.Diagnostics, w)
		return
	}

	header.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "Sources")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, p := range out.Papers {
		year := ""
		if p.Year > 0 {
			year = fmt.Sprintf("%d", p.Year)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.3f  %s\n",
			i+1, truncate(p.Title, 60), formatAuthors(p.Authors), year, p.Scores.Final, p.SourceLabel())
		for _, r := range p.Reasons {
			faint.Fprintf(w, "      %s\n", r)
		}
	}

	d := out.Diagnostics
	fmt.Fprintf(w, "\n%d results", len(out.Papers))
	if removed := d.DedupeStats.RemovedByDOI + d.DedupeStats.RemovedByTitle; removed > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", removed)
	}
	if d.Relaxed {
		fmt.Fprint(w, ", include keywords relaxed")
	}
	if d.Duration > 0 {
		fmt.Fprintf(w, " in %s", d.Duration.Round(10*time.Millisecond))
	}
	fmt.Fprintln(w)
	writeSourceErrors(d, w)
}

func writeSourceErrors(d types.Diagnostics, w io.Writer) {
	for _, e := range d.SourceErrors {
		warning.Fprintf(w, "warning: %s (%s) failed: %s\n", e.Source, e.Variant, e.Message)
	}
}

// FormatJSON writes papers and diagnostics as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
