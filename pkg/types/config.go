// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ParserConfig holds settings for template compilation and spectrum parsing.
type ParserConfig struct {
	// Markers are the region, toggle and variable characters, in that
	// order (default "/*%").
	Markers string `json:"markers" yaml:"markers"`

	// Workers bounds the records matched concurrently (default GOMAXPROCS).
	Workers int `json:"workers" yaml:"workers"`

	// CollectErrors keeps parsing after a record error and reports all of
	// them together.
	CollectErrors bool `json:"collect_errors" yaml:"collect_errors"`
}

// StoreConfig holds settings for the spectrum store.
type StoreConfig struct {
	// Dir is the directory holding nmr.db.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// OutputFormat selects how parsed spectra are printed.
type OutputFormat string

const (
	OutputSummary OutputFormat = "summary"
	OutputYAML    OutputFormat = "yaml"
	OutputJSON    OutputFormat = "json"
)

// Config groups every setting read from nmr-reporter.yaml.
type Config struct {
	Parser ParserConfig `json:"parser" yaml:"parser"`
	Store  StoreConfig  `json:"store" yaml:"store"`
	Output OutputFormat `json:"output" yaml:"output"`
}
