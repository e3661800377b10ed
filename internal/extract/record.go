// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Fields maps variable codes to the styled text extracted for them.
type Fields map[cue.Code]span.Span

// Has reports whether a value was extracted for code.
func (f Fields) Has(code cue.Code) bool {
	_, ok := f[code]
	return ok
}

// Record is one repeat-unit occurrence resolved against a hypothesis.
type Record struct {
	Text       span.Span
	Hypothesis template.Section
	Fields     Fields
}

// Get returns the value for code.
func (r *Record) Get(code cue.Code) (span.Span, bool) {
	v, ok := r.Fields[code]
	return v, ok
}

// Codes returns the codes with values, in hypothesis order.
func (r *Record) Codes() []cue.Code {
	var codes []cue.Code
	for _, c := range r.Hypothesis.Codes() {
		if r.Fields.Has(c) {
			codes = append(codes, c)
		}
	}
	return codes
}

// Available returns the codes whose values are not empty.
func (r *Record) Available() map[cue.Code]bool {
	have := make(map[cue.Code]bool, len(r.Fields))
	for c, v := range r.Fields {
		if !v.IsEmpty() {
			have[c] = true
		}
	}
	return have
}

// Spectrum is a parsed block of records with its head fields.
type Spectrum struct {
	Cypher  string
	Head    Fields
	Records []*Record
}
