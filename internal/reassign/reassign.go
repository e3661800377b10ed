// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reassign replaces record assignments by spectrum cypher.
//
// A table lists "old = new" pairs for one spectrum, or for every spectrum
// when its cypher is "*". Tables for a named spectrum run before the
// wildcard tables, so a general rule cannot claim a record that a specific
// rule was written for. Within a spectrum each pair rewrites the first
// record whose assignment was old when the table started.
package reassign

import (
	"context"
	"fmt"

	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/extract"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Wildcard is the cypher of a table that applies to every spectrum.
const Wildcard = "*"

// Assignment is the code reassigned.
const Assignment cue.Code = "%a"

// valuesTemplate parses new values joined by "$", one record each.
const valuesTemplate = " /%a/$/"

// Pair is one "old = new" reassignment.
type Pair struct {
	Old string
	New span.Span
}

// Table holds the reassignments for one cypher.
type Table struct {
	Cypher string
	Pairs  []Pair
}

// Builder turns document lines into tables.
type Builder struct {
	parser *extract.Parser
}

// NewBuilder creates a Builder. cfg configures the parser of new values.
func NewBuilder(cfg extract.Config) (*Builder, error) {
	tpl, err := template.CompileText(valuesTemplate)
	if err != nil {
		return nil, fmt.Errorf("compiling values template: %w", err)
	}
	return &Builder{parser: extract.NewParser(tpl, cfg)}, nil
}

// Table parses the new values of pairs as read from a document, one record
// each, and returns the table holding the parsed values.
func (b *Builder) Table(ctx context.Context, cypher string, pairs []Pair) (*Table, error) {
	t := &Table{Cypher: cypher}
	if len(pairs) == 0 {
		return t, nil
	}

	var joined span.Span
	for i, p := range pairs {
		if i > 0 {
			joined = joined.Concat(span.New("$"))
		}
		joined = joined.Concat(p.New)
	}
	s, err := b.parser.ParseRecords(ctx, cypher, joined)
	if err != nil {
		return nil, fmt.Errorf("parsing assignments for %s: %w", cypher, err)
	}
	if len(s.Records) != len(pairs) {
		return nil, fmt.Errorf("assignments for %s: %d lines gave %d values", cypher, len(pairs), len(s.Records))
	}

	for i, rec := range s.Records {
		v, _ := rec.Get(Assignment)
		t.Pairs = append(t.Pairs, Pair{Old: pairs[i].Old, New: v})
	}
	return t, nil
}

// Apply runs the tables against spectra, named tables first, and returns
// the number of assignments replaced.
func Apply(spectra []*extract.Spectrum, tables []*Table) int {
	n := 0
	for _, t := range tables {
		if t.Cypher == Wildcard {
			continue
		}
		for _, s := range spectra {
			if s.Cypher == t.Cypher {
				n += applyTable(s, t)
			}
		}
	}
	for _, t := range tables {
		if t.Cypher != Wildcard {
			continue
		}
		for _, s := range spectra {
			n += applyTable(s, t)
		}
	}
	return n
}

func applyTable(s *extract.Spectrum, t *Table) int {
	current := make([]string, len(s.Records))
	for i, rec := range s.Records {
		if v, ok := rec.Get(Assignment); ok {
			current[i] = v.String()
		}
	}

	n := 0
	for _, p := range t.Pairs {
		for i, old := range current {
			if old != p.Old {
				continue
			}
			rec := s.Records[i]
			if rec.Fields == nil {
				rec.Fields = make(extract.Fields)
			}
			rec.Fields[Assignment] = p.New
			n++
			break
		}
	}
	return n
}
