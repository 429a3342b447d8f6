// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfuse/internal/search"
	"github.com/pdiddy/paperfuse/pkg/types"
)

var semanticCmd = &cobra.Command{
	Use:   "semantic [query]",
	Short: "Search the local embedding index by meaning",
	Long: `Semantic embeds the query and returns the closest papers from the local
index built with "paperfuse index add". Filters apply in hard mode.

With --hybrid the query is treated as a paper title: a full multi-source
search runs alongside the index lookup and the two result sets are merged.
--description adds a longer description of the paper being written, which
shifts the hybrid weighting toward the semantic side.`,
	Args: cobra.ExactArgs(1),
	RunE: runSemantic,
}

func init() {
	fs := semanticCmd.Flags()
	addFilterFlags(fs)
	fs.Bool("hybrid", false, "combine the index lookup with a live multi-source search")
	fs.String("description", "", "paper description for hybrid search")

	rootCmd.AddCommand(semanticCmd)
}

func runSemantic(cmd *cobra.Command, args []string) error {
	query := args[0]
	f := filterFromFlags(cmd)
	hybrid, _ := cmd.Flags().GetBool("hybrid")
	description, _ := cmd.Flags().GetString("description")

	engine, closeEngine, err := newEngine(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var out search.Output
	if hybrid || description != "" {
		papers, diag, err := engine.HybridSearch(ctx, query, description, f)
		if err != nil {
			return err
		}
		out = search.Output{Papers: papers, Diagnostics: diag}
	} else {
		papers, err := engine.SemanticSearch(ctx, query, f)
		if err != nil {
			return err
		}
		out = search.Output{
			Papers: papers,
			Diagnostics: types.Diagnostics{
				Topic:      query,
				FilterMode: types.FilterHard,
				Returned:   len(papers),
			},
		}
	}

	fmt.Fprintf(os.Stderr, "Found %d papers for %q\n", len(out.Papers), query)
	return writeOutput(cmd, out, cmd.OutOrStdout())
}
