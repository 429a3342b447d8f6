// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfuse/internal/observability"
	"github.com/pdiddy/paperfuse/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [topic]",
	Short: "Search every enabled source and print fused, ranked results",
	Long: `Search expands the topic into exact, expanded and domain query variants,
sends each variant to every enabled source concurrently, merges and
deduplicates the results by DOI and title, ranks them, and applies the
filters given on the command line.

A source that fails is reported as a warning; the search still returns
whatever the other sources found.

Use --save to keep the results in a query file and --load to print a saved
query file again without contacting any source.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	fs := searchCmd.Flags()
	addFilterFlags(fs)
	fs.String("save", "", "write the results to this query file (YAML)")
	fs.String("load", "", "print a saved query file instead of searching")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address while the search runs (e.g. :9090)")
	fs.Bool("metrics-dump", false, "print collected metrics to stderr after the search")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("load"); path != "" {
		qf, err := search.ReadQueryFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded %d papers for %q from %s\n", len(qf.Papers), qf.Topic, path)
		return writeOutput(cmd, qf.Output(), cmd.OutOrStdout())
	}

	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("a topic is required (or use --load)")
	}
	topic := args[0]
	f := filterFromFlags(cmd)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg)

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		stop := serveMetrics(addr, reg)
		defer stop()
	}

	engine, closeEngine, err := newEngine(cmd.Context(), false, search.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer closeEngine()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Searching %d sources for %q\n", engine.Registry().Len(), topic)
	papers, diag, err := engine.RunSearch(ctx, topic, f)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("search interrupted")
		}
		return err
	}

	out := search.Output{Papers: papers, Diagnostics: diag}
	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := search.WriteQueryFile(path, topic, f, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved %d papers to %s\n", len(papers), path)
	}
	if err := writeOutput(cmd, out, cmd.OutOrStdout()); err != nil {
		return err
	}

	if dump, _ := cmd.Flags().GetBool("metrics-dump"); dump {
		return dumpMetrics(reg)
	}
	return nil
}

// serveMetrics starts a /metrics endpoint and returns a func that shuts it down.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func dumpMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), observability.Namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
