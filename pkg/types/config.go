// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by every source adapter and the
// embedding client.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paperfuse/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// RequestsPerMinute caps the request rate per source (default 60).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute" validate:"gte=0"`

	// RetryAttempts is the number of retries on 429 and 5xx (default 3).
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=0,lte=10"`

	// RetryDelay is the base backoff delay, doubled on each attempt (default 1s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`
}

// SearchConfig holds settings for the retrieval and ranking pipeline.
type SearchConfig struct {
	// MaxPerSource is the number of results requested from each source (default 50).
	MaxPerSource int `json:"max_per_source" yaml:"max_per_source" mapstructure:"max_per_source" validate:"gte=0,lte=1000"`

	// FusionTopK is the shortlist size for dense re-ranking (default 200).
	FusionTopK int `json:"fusion_top_k" yaml:"fusion_top_k" mapstructure:"fusion_top_k" validate:"gte=0"`

	// StrictFilters selects hard filtering when a request does not choose a mode.
	StrictFilters bool `json:"strict_filters" yaml:"strict_filters" mapstructure:"strict_filters"`

	// Weights are the composite score weights; they must sum to 1.
	Weights WeightsConfig `json:"weights" yaml:"weights" mapstructure:"weights"`
}

// WeightsConfig holds the four primary-signal weights.
type WeightsConfig struct {
	RRF     float64 `json:"rrf" yaml:"rrf" mapstructure:"rrf"`
	BM25    float64 `json:"bm25" yaml:"bm25" mapstructure:"bm25"`
	Dense   float64 `json:"dense" yaml:"dense" mapstructure:"dense"`
	Recency float64 `json:"recency" yaml:"recency" mapstructure:"recency"`
}

// SourcesConfig holds per-source toggles and credentials.
type SourcesConfig struct {
	// Enabled maps a source name to whether it participates in fan-out.
	Enabled map[string]bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// OpenAlexEmail is sent as mailto for the OpenAlex and Crossref polite pools.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`
	PubMedAPIKey          string `json:"pubmed_api_key,omitempty" yaml:"pubmed_api_key,omitempty" mapstructure:"pubmed_api_key"`

	// ScholarProvider selects "serpapi" or "serper"; empty picks whichever has a key.
	ScholarProvider string `json:"scholar_provider,omitempty" yaml:"scholar_provider,omitempty" mapstructure:"scholar_provider" validate:"omitempty,oneof=serpapi serper"`
	SerpAPIKey      string `json:"serpapi_key,omitempty" yaml:"serpapi_key,omitempty" mapstructure:"serpapi_key"`
	SerperKey       string `json:"serper_key,omitempty" yaml:"serper_key,omitempty" mapstructure:"serper_key"`
}

// EmbeddingConfig holds settings for the embedding provider and index.
type EmbeddingConfig struct {
	// Model is the embedding model identifier (default "text-embedding-3-large").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the embeddings endpoint. Dense scoring is
	// skipped when it is empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL is the OpenAI-compatible API root (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// CacheSize is the number of embeddings kept in the in-memory LRU (default 4096).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size" validate:"gte=0"`

	// IndexPath is the SQLite file backing the semantic-search index.
	IndexPath string `json:"index_path" yaml:"index_path" mapstructure:"index_path"`
}

// OutputConfig controls where debug snapshots are written.
type OutputConfig struct {
	// Dir is the base output directory (default "outputs").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Debug enables the query bundle and search report snapshots.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "json" or "console".
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console pretty"`

	// Output is "stderr" (default) or "stdout".
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"omitempty,oneof=stderr stdout"`
}

// Config groups all paperfuse settings.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http" mapstructure:"http"`
	Search    SearchConfig    `json:"search" yaml:"search" mapstructure:"search"`
	Sources   SourcesConfig   `json:"sources" yaml:"sources" mapstructure:"sources"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Output    OutputConfig    `json:"output" yaml:"output" mapstructure:"output"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}
