// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render writes parsed spectra back out through an output template,
// which may differ from the template the spectra were read with.
//
// Each record is written through the first hypothesis of the output
// template, fullest group first, whose codes the record can all supply. An
// output template may therefore drop fields but never demand fields the
// input lacks. Constants keep the output template's style and values keep
// the style they were read with.
package render

import (
	"fmt"

	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/extract"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// FormatError reports an output template that demands data a spectrum does
// not provide.
type FormatError struct {
	Cypher string
	Record int
	Code   cue.Code
	Msg    string
}

func (e *FormatError) Error() string {
	where := "head"
	if e.Record >= 0 {
		where = fmt.Sprintf("record %d", e.Record+1)
	}
	if e.Code != "" {
		return fmt.Sprintf("format spectrum %s %s: %s %s", e.Cypher, where, e.Code, e.Msg)
	}
	return fmt.Sprintf("format spectrum %s %s: %s", e.Cypher, where, e.Msg)
}

// Renderer renders spectra through one output template.
type Renderer struct {
	tpl *template.Template
}

// New creates a Renderer for tpl.
func New(tpl *template.Template) *Renderer {
	return &Renderer{tpl: tpl}
}

// Render writes the head, the records separated by the delimiter, and the
// end of the output template.
func (r *Renderer) Render(s *extract.Spectrum) (span.Span, error) {
	out, err := r.head(s)
	if err != nil {
		return span.Span{}, err
	}
	for i, rec := range s.Records {
		if i > 0 {
			out = out.Concat(plain(r.tpl.Delimiter))
		}
		h, err := r.Choose(rec)
		if err != nil {
			return span.Span{}, locate(err, s.Cypher, i)
		}
		for _, it := range h.Items() {
			if it.Kind != template.Variable {
				out = out.Concat(plain(it.Text))
				continue
			}
			for _, code := range it.Codes {
				v, ok := rec.Get(code)
				if !ok || v.IsEmpty() {
					return span.Span{}, &FormatError{Cypher: s.Cypher, Record: i, Code: code, Msg: "has no value"}
				}
				out = out.Concat(v)
			}
		}
	}
	return out.Concat(plain(r.tpl.End)), nil
}

// Choose returns the first hypothesis whose codes are all available in rec.
func (r *Renderer) Choose(rec *extract.Record) (template.Section, error) {
	have := rec.Available()
	for _, g := range r.tpl.Groups() {
		for _, h := range g.Hypotheses {
			if h.SubsetOf(have) {
				return h, nil
			}
		}
	}
	return template.Section{}, &FormatError{Record: -1, Msg: "the output template requires data the input does not provide"}
}

func (r *Renderer) head(s *extract.Spectrum) (span.Span, error) {
	var out span.Span
	for _, it := range r.tpl.Head.Items() {
		switch it.Kind {
		case template.Toggle:
			continue
		case template.Constant:
			out = out.Concat(plain(it.Text))
			continue
		}
		code := it.Code()
		if c, ok := r.tpl.Cues().Lookup(code); ok && c.Scope != cue.Head {
			return span.Span{}, &FormatError{Cypher: s.Cypher, Record: -1, Code: code, Msg: "cannot be used in the head"}
		}
		v, ok := s.Head[code]
		if !ok || v.IsEmpty() {
			return span.Span{}, &FormatError{Cypher: s.Cypher, Record: -1, Code: code, Msg: "has no value"}
		}
		out = out.Concat(v)
	}
	return out, nil
}

func locate(err error, cypher string, record int) error {
	if fe, ok := err.(*FormatError); ok {
		located := *fe
		located.Cypher = cypher
		located.Record = record
		return &located
	}
	return err
}

func plain(s span.Span) span.Span { return s.WithFlags(false, false) }
