// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config assembles a types.Config from defaults, the paperfuse.yaml
// file, PAPERFUSE_* environment variables, and the .secrets/ directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/paperfuse/internal/embed"
	"github.com/pdiddy/paperfuse/internal/httputil"
	"github.com/pdiddy/paperfuse/internal/secrets"
	"github.com/pdiddy/paperfuse/internal/sources"
	"github.com/pdiddy/paperfuse/pkg/types"
)

// Name is the config file base name, searched in "." and ~/.config/paperfuse.
const Name = "paperfuse"

// EnvPrefix prefixes environment overrides, e.g. PAPERFUSE_SEARCH_MAX_PER_SOURCE.
const EnvPrefix = "PAPERFUSE"

// Flat credential keys. They sit outside the sources section so that each
// provider's settings read naturally in the YAML file.
const (
	keyOpenAlexEmail   = "openalex.email"
	keySemanticScholar = "semantic_scholar.api_key"
	keyPubMed          = "pubmed.api_key"
	keyScholarProvider = "scholar.provider"
	keySerpAPI         = "scholar.serpapi_key"
	keySerper          = "scholar.serper_key"
)

// SetDefaults registers every configuration key with its default value.
// Keys must be registered for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http.timeout", "30s")
	v.SetDefault("http.user_agent", httputil.DefaultUserAgent)
	v.SetDefault("http.requests_per_minute", 60)
	v.SetDefault("http.retry_attempts", 3)
	v.SetDefault("http.retry_delay", "1s")

	v.SetDefault("search.max_per_source", sources.DefaultMaxPerSource)
	v.SetDefault("search.fusion_top_k", 200)
	v.SetDefault("search.strict_filters", false)
	v.SetDefault("search.weights.rrf", 0.45)
	v.SetDefault("search.weights.bm25", 0.2)
	v.SetDefault("search.weights.dense", 0.2)
	v.SetDefault("search.weights.recency", 0.15)

	// Scholar scrapes a paid API and stays off until enabled.
	for _, name := range sources.Known() {
		v.SetDefault(enabledKey(name), name != sources.Scholar)
	}
	v.SetDefault(keyOpenAlexEmail, "")
	v.SetDefault(keySemanticScholar, "")
	v.SetDefault(keyPubMed, "")
	v.SetDefault(keyScholarProvider, "")
	v.SetDefault(keySerpAPI, "")
	v.SetDefault(keySerper, "")

	v.SetDefault("embedding.model", embed.DefaultModel)
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.base_url", embed.DefaultBaseURL)
	v.SetDefault("embedding.cache_size", embed.DefaultCacheSize)
	v.SetDefault("embedding.index_path", embed.DefaultIndexPath)

	v.SetDefault("output.dir", "outputs")
	v.SetDefault("output.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
}

// BindEnv enables PAPERFUSE_* overrides, with "." in keys mapped to "_".
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadFile reads path, or searches for paperfuse.yaml when path is empty.
// It returns the file used, or "" when the search found nothing.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

var validate = validator.New()

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Sources.Enabled = make(map[string]bool, len(sources.Known()))
	for _, name := range sources.Known() {
		cfg.Sources.Enabled[name] = v.GetBool(enabledKey(name))
	}
	cfg.Sources.OpenAlexEmail = v.GetString(keyOpenAlexEmail)
	cfg.Sources.SemanticScholarAPIKey = v.GetString(keySemanticScholar)
	cfg.Sources.PubMedAPIKey = v.GetString(keyPubMed)
	cfg.Sources.ScholarProvider = v.GetString(keyScholarProvider)
	cfg.Sources.SerpAPIKey = v.GetString(keySerpAPI)
	cfg.Sources.SerperKey = v.GetString(keySerper)

	if err := validate.Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplySecrets fills credentials left empty by the config file and the
// environment from the secrets directory.
func ApplySecrets(cfg *types.Config, s secrets.Secrets) {
	cfg.Embedding.APIKey = s.Get(secrets.OpenAIAPIKey, cfg.Embedding.APIKey)
	cfg.Sources.SemanticScholarAPIKey = s.Get(secrets.SemanticScholarAPIKey, cfg.Sources.SemanticScholarAPIKey)
	cfg.Sources.SerpAPIKey = s.Get(secrets.SerpAPIKey, cfg.Sources.SerpAPIKey)
	cfg.Sources.SerperKey = s.Get(secrets.SerperKey, cfg.Sources.SerperKey)
	cfg.Sources.OpenAlexEmail = s.Get(secrets.OpenAlexEmail, cfg.Sources.OpenAlexEmail)
	cfg.Sources.PubMedAPIKey = s.Get(secrets.NCBIAPIKey, cfg.Sources.PubMedAPIKey)
}

func enabledKey(source string) string {
	return "sources." + source + ".enabled"
}
