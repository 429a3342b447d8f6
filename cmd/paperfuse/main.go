// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paperfuse CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfuse/internal/config"
	"github.com/pdiddy/paperfuse/internal/embed"
	"github.com/pdiddy/paperfuse/internal/observability"
	"github.com/pdiddy/paperfuse/internal/secrets"
	"github.com/pdiddy/paperfuse/internal/search"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// appConfig is the resolved configuration, available after PersistentPreRunE.
	appConfig types.Config

	// logger writes to stderr unless logging.output says otherwise.
	logger = zerolog.Nop()

	// configErr holds a config file error from initConfig until a command runs.
	configErr error
)

// rootCmd is the base command for the paperfuse CLI.
var rootCmd = &cobra.Command{
	Use:   "paperfuse",
	Short: "Multi-source academic paper search with fused ranking",
	Long: `paperfuse searches many academic providers at once (OpenAlex, Semantic
Scholar, arXiv, PubMed, Crossref, Europe PMC, bioRxiv, medRxiv, DBLP and
Google Scholar), merges and deduplicates their results, and ranks them with
reciprocal rank fusion, BM25, recency, dense similarity and venue authority.

Papers from a search can be added to a local embedding index and queried
with the semantic subcommand.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		logger = observability.NewLogger(cfg.Logging)

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		config.ApplySecrets(&cfg, s)
		appConfig = cfg
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./paperfuse.yaml or ~/.config/paperfuse/paperfuse.yaml)")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("output-dir", "", "base directory for debug snapshots (default outputs)")
	pf.Bool("debug", false, "write query bundles and search reports under <output-dir>/debug")

	_ = viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("output.dir", pf.Lookup("output-dir"))
	_ = viper.BindPFlag("output.debug", pf.Lookup("debug"))
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	used, err := config.ReadFile(v, cfgFile)
	if err != nil {
		configErr = err
		return
	}
	if used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
}

// newEngine builds a search engine from appConfig. When withIndex is set the
// embedding index is opened and loaded; the returned closer releases it.
func newEngine(ctx context.Context, withIndex bool, opts ...search.Option) (*search.Engine, func(), error) {
	closer := func() {}
	base := []search.Option{search.WithLogger(logger)}

	emb, err := embed.FromConfig(appConfig.Embedding, appConfig.HTTP)
	switch {
	case err == nil:
		base = append(base, search.WithEmbedder(emb))
	case errors.Is(err, types.ErrEmbeddingUnavailable):
		logger.Debug().Msg("no embedding API key, dense scoring disabled")
	default:
		return nil, closer, err
	}

	if withIndex {
		store, err := embed.OpenStore(appConfig.Embedding.IndexPath)
		if err != nil {
			return nil, closer, fmt.Errorf("opening index: %w", err)
		}
		closer = func() { store.Close() }
		ix := embed.NewIndex(emb, store)
		if err := ix.Load(ctx); err != nil {
			closer()
			return nil, func() {}, fmt.Errorf("loading index: %w", err)
		}
		base = append(base, search.WithIndex(ix))
	}

	e, err := search.NewFromConfig(appConfig, append(base, opts...)...)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return e, closer, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
