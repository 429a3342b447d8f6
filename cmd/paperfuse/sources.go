// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List known sources and whether each is enabled",
	Long: `Sources lists every provider paperfuse can search, whether it is enabled
in the current configuration, and the credential it uses when one applies.
Enable or disable a source with sources.<name>.enabled in paperfuse.yaml or
PAPERFUSE_SOURCES_<NAME>_ENABLED.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	on := color.New(color.FgGreen)
	off := color.New(color.Faint)

	fmt.Fprintf(w, "%-18s  %-8s  %s\n", "Source", "Enabled", "Credentials")
	for _, name := range sources.Known() {
		enabled := appConfig.Sources.Enabled[name]
		state := off.Sprintf("%-8s", "no")
		if enabled {
			state = on.Sprintf("%-8s", "yes")
		}
		fmt.Fprintf(w, "%-18s  %s  %s\n", name, state, credentialNote(name, appConfig.Sources))
	}
	return nil
}

// credentialNote describes the credential a source uses, if any.
func credentialNote(name string, cfg types.SourcesConfig) string {
	set := func(v string) string {
		if v == "" {
			return "not set"
		}
		return "set"
	}
	switch name {
	case sources.OpenAlex:
		return "polite-pool email " + set(cfg.OpenAlexEmail)
	case sources.SemanticScholar:
		return "API key " + set(cfg.SemanticScholarAPIKey)
	case sources.PubMed:
		return "NCBI API key " + set(cfg.PubMedAPIKey)
	case sources.Scholar:
		provider := cfg.ScholarProvider
		if provider == "" {
			provider = "serpapi"
		}
		return fmt.Sprintf("provider %s, SerpAPI key %s, Serper key %s",
			provider, set(cfg.SerpAPIKey), set(cfg.SerperKey))
	default:
		return "-"
	}
}
