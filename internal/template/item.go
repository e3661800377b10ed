// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package template

import (
	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
)

// Kind tells what an Item stands for.
type Kind int

const (
	Constant Kind = iota
	Variable
	Toggle
)

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Toggle:
		return "toggle"
	}
	return "constant"
}

// Item is one compiled template token. Constants hold literal text, variables
// hold their code text ("%c") and the codes they stand for, toggles are empty
// and carry only the optional state that follows them.
type Item struct {
	Kind  Kind
	Text  span.Span
	Codes []cue.Code
}

func constantItem(text span.Span, optional bool) Item {
	return Item{Kind: Constant, Text: text.WithFlags(optional, false)}
}

func variableItem(text span.Span, code cue.Code, optional bool) Item {
	return Item{Kind: Variable, Text: text.WithFlags(optional, true), Codes: []cue.Code{code}}
}

func toggleItem(optional bool) Item {
	return Item{Kind: Toggle, Text: span.New("").WithFlags(optional, false)}
}

// Optional reports whether the item sits inside an optional region.
func (it Item) Optional() bool { return it.Text.Optional }

// Code returns the first code of a variable item, or "" for other kinds.
func (it Item) Code() cue.Code {
	if len(it.Codes) == 0 {
		return ""
	}
	return it.Codes[0]
}

// String returns the item's plain text.
func (it Item) String() string { return it.Text.String() }

// splice joins b onto a. Both must be of the same variable-ness.
func splice(a, b Item) Item {
	out := Item{Kind: a.Kind, Text: a.Text.Concat(b.Text)}
	if a.Kind == Variable {
		out.Codes = append(append([]cue.Code(nil), a.Codes...), b.Codes...)
	}
	return out
}
