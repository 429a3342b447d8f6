// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfuse/internal/embed"
	"github.com/pdiddy/paperfuse/internal/search"
	"github.com/pdiddy/paperfuse/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the local embedding index",
	Long: `Index manages the sqlite-backed embedding index used by the semantic
subcommand. Papers are added from saved query files or from a fresh search.`,
}

// --- add subcommand ---

var indexAddCmd = &cobra.Command{
	Use:   "add [query-file...]",
	Short: "Embed papers and add them to the index",
	Long: `Add embeds the title and abstract of each paper and stores the vectors in
the index at embedding.index_path. Papers already in the index are replaced.

Pass saved query files as arguments, or use --topic to run a search and index
its results directly.`,
	RunE: runIndexAdd,
}

// --- stats subcommand ---

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index size and papers per source",
	RunE:  runIndexStats,
}

func init() {
	indexAddCmd.Flags().String("topic", "", "run a search for this topic and index the results")
	indexAddCmd.Flags().Int("limit", 100, "maximum results to index when using --topic")
	indexStatsCmd.Flags().String("format", "yaml", "output format: yaml or json")

	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexStatsCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexAdd(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" && len(args) == 0 {
		return fmt.Errorf("pass query files or --topic")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, closeEngine, err := newEngine(ctx, true)
	if err != nil {
		return err
	}
	defer closeEngine()

	var papers []*types.Paper
	for _, path := range args {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Read %d papers from %s\n", len(qf.Papers), path)
		papers = append(papers, qf.Papers...)
	}
	if topic != "" {
		limit, _ := cmd.Flags().GetInt("limit")
		found, _, err := engine.RunSearch(ctx, topic, types.FilterSpec{Limit: limit})
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Search for %q returned %d papers\n", topic, len(found))
		papers = append(papers, found...)
	}

	n, err := engine.IndexPapers(ctx, papers)
	if err != nil {
		return fmt.Errorf("indexing papers: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Indexed %d papers into %s\n", n, appConfig.Embedding.IndexPath)
	return nil
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	store, err := embed.OpenStore(appConfig.Embedding.IndexPath)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer store.Close()

	ix := embed.NewIndex(nil, store)
	if err := ix.Load(cmd.Context()); err != nil {
		return fmt.Errorf("loading index: %w", err)
	}
	stats := ix.Stats()

	format, _ := cmd.Flags().GetString("format")
	w := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(stats); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
