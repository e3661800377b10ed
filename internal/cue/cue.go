// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cue defines the recognized variable codes of the template language
// and the characters each code accepts during field extraction.
package cue

import (
	"sort"
	"strings"
	"unicode"
)

// Code is a two-character variable code such as "%c".
type Code string

// Scope tells whether a code belongs to the head of a spectrum or to its
// repeating records.
type Scope int

const (
	Record Scope = iota
	Head
)

func (s Scope) String() string {
	if s == Head {
		return "head"
	}
	return "record"
}

// Cue describes one recognized code. An empty Accepted set means the field is
// free-form and any character is taken verbatim.
type Cue struct {
	Code     Code
	Name     string
	Scope    Scope
	Accepted string
}

// FreeForm reports whether the cue accepts every character.
func (c Cue) FreeForm() bool { return c.Accepted == "" }

// Accepts reports whether r may appear in a field of this cue.
func (c Cue) Accepts(r rune) bool {
	return c.FreeForm() || strings.ContainsRune(c.Accepted, r)
}

// Table maps codes to their cues.
type Table map[Code]Cue

const digits = "0123456789"

// Default is the table of the NMR reporting domain.
var Default = NewTable(
	Cue{Code: "%n", Name: "nuclide", Scope: Head},
	Cue{Code: "%s", Name: "solvent", Scope: Head},
	Cue{Code: "%f", Name: "frequency", Scope: Head, Accepted: digits + "."},
	Cue{Code: "%c", Name: "chemical shift"},
	Cue{Code: "%i", Name: "integral", Accepted: digits},
	Cue{Code: "%m", Name: "multiplicity", Accepted: "sdtqpxhbrm*"},
	Cue{Code: "%j", Name: "coupling constants", Accepted: digits + ". ,"},
	Cue{Code: "%a", Name: "assignment"},
)

// NewTable builds a table from cues.
func NewTable(cues ...Cue) Table {
	t := make(Table, len(cues))
	for _, c := range cues {
		t[c.Code] = c
	}
	return t
}

// Lookup returns the cue for code.
func (t Table) Lookup(code Code) (Cue, bool) {
	c, ok := t[code]
	return c, ok
}

// Codes returns the table's codes in sorted order.
func (t Table) Codes() []Code {
	codes := make([]Code, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}

// MakeCode builds the code for a variable letter. The letter is case-folded
// so that "%C" and "%c" name the same field. Codes are spelled with "%"
// whatever introducer the template uses.
func MakeCode(letter rune) Code {
	return Code("%" + string(unicode.ToLower(letter)))
}
