// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"github.com/pdiddy/nmr-reporter/internal/extract"
	"github.com/pdiddy/nmr-reporter/pkg/types"
)

// FromSpectrum converts a parsed spectrum to its stored form.
func FromSpectrum(s *extract.Spectrum) types.Spectrum {
	out := types.Spectrum{Cypher: s.Cypher}
	if len(s.Head) > 0 {
		out.Head = fieldStrings(s.Head)
	}
	for i, rec := range s.Records {
		out.Signals = append(out.Signals, types.Signal{
			Index:      i,
			Hypothesis: rec.Hypothesis.Text(),
			Text:       rec.Text.String(),
			Fields:     fieldStrings(rec.Fields),
		})
	}
	return out
}

func fieldStrings(f extract.Fields) map[string]string {
	m := make(map[string]string, len(f))
	for code, v := range f {
		m[string(code)] = v.String()
	}
	return m
}
