// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// QueryFile is a saved search: the request, its ranked papers, and a
// summary of the run. Reloading it reproduces the output without querying
// any source.
type QueryFile struct {
	Topic   string           `yaml:"topic"`
	Filters types.FilterSpec `yaml:"filters"`
	Papers  []*types.Paper   `yaml:"papers"`
	Summary QuerySummary     `yaml:"summary"`
}

// QuerySummary stores run statistics and a timestamp.
type QuerySummary struct {
	RunID           string              `yaml:"run_id"`
	Total           int                 `yaml:"total"`
	DedupeStats     types.DedupeStats   `yaml:"dedupe_stats"`
	PerSourceCounts map[string]int      `yaml:"per_source_counts"`
	SourceErrors    []types.SourceError `yaml:"source_errors,omitempty"`
	Relaxed         bool                `yaml:"relaxed,omitempty"`
	Timestamp       time.Time           `yaml:"timestamp"`
}

// WriteQueryFile saves a finished search to path as YAML.
func WriteQueryFile(path, topic string, f types.FilterSpec, out Output) error {
	d := out.Diagnostics
	qf := QueryFile{
		Topic:   topic,
		Filters: f,
		Papers:  out.Papers,
		Summary: QuerySummary{
			RunID:           d.RunID,
			Total:           len(out.Papers),
			DedupeStats:     d.DedupeStats,
			PerSourceCounts: d.PerSourceCounts,
			SourceErrors:    d.SourceErrors,
			Relaxed:         d.Relaxed,
			Timestamp:       time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating query file directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}

// Output rebuilds the presentable form of a saved search.
func (qf *QueryFile) Output() Output {
	return Output{
		Papers: qf.Papers,
		Diagnostics: types.Diagnostics{
			RunID:           qf.Summary.RunID,
			Topic:           qf.Topic,
			PerSourceCounts: qf.Summary.PerSourceCounts,
			SourceErrors:    qf.Summary.SourceErrors,
			DedupeStats:     qf.Summary.DedupeStats,
			FilterMode:      qf.Filters.Mode,
			Relaxed:         qf.Summary.Relaxed,
			Returned:        len(qf.Papers),
		},
	}
}
