// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the serializable forms shared by the CLI, the store
// and exports. Styles are dropped; values are plain text.
package types

// Signal is one parsed record of a spectrum.
type Signal struct {
	// Index is the zero-based position of the record in its spectrum.
	Index int `json:"index" yaml:"index"`

	// Hypothesis is the text of the hypothesis the record matched.
	Hypothesis string `json:"hypothesis" yaml:"hypothesis"`

	// Text is the record as it appeared in the document.
	Text string `json:"text" yaml:"text"`

	// Fields maps variable codes (e.g. "%c") to values.
	Fields map[string]string `json:"fields" yaml:"fields"`
}

// Spectrum is a parsed spectrum block.
type Spectrum struct {
	// Cypher identifies the spectrum within its document.
	Cypher string `json:"cypher" yaml:"cypher"`

	// Source is the document the spectrum was read from.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Head maps head variable codes (e.g. "%f") to values.
	Head map[string]string `json:"head,omitempty" yaml:"head,omitempty"`

	Signals []Signal `json:"signals" yaml:"signals"`
}
