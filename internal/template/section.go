// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package template

import (
	"strings"

	"github.com/pdiddy/nmr-reporter/internal/cue"
)

// Section is an immutable list of items with derived views. Hypotheses also
// record the set of codes they contain.
type Section struct {
	items    []Item
	contains map[cue.Code]bool
}

// NewSection builds a section from a copy of items.
func NewSection(items []Item) Section {
	return Section{items: append([]Item(nil), items...)}
}

func newHypothesis(items []Item) Section {
	s := NewSection(items)
	s.contains = make(map[cue.Code]bool)
	for _, it := range s.items {
		for _, c := range it.Codes {
			s.contains[c] = true
		}
	}
	return s
}

// Items returns a copy of the items.
func (s Section) Items() []Item { return append([]Item(nil), s.items...) }

// Len returns the number of items.
func (s Section) Len() int { return len(s.items) }

// Item returns the i-th item.
func (s Section) Item(i int) Item { return s.items[i] }

// Last returns the last item, if any.
func (s Section) Last() (Item, bool) {
	if len(s.items) == 0 {
		return Item{}, false
	}
	return s.items[len(s.items)-1], true
}

func (s Section) filter(keep func(Item) bool) []Item {
	var out []Item
	for _, it := range s.items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Constants returns the literal items. Toggles are not constants.
func (s Section) Constants() []Item {
	return s.filter(func(it Item) bool { return it.Kind == Constant })
}

// Variables returns the variable items.
func (s Section) Variables() []Item {
	return s.filter(func(it Item) bool { return it.Kind == Variable })
}

// Obligatories returns the non-toggle items outside optional regions.
func (s Section) Obligatories() []Item {
	return s.filter(func(it Item) bool { return it.Kind != Toggle && !it.Optional() })
}

// Optionals returns the non-toggle items inside optional regions.
func (s Section) Optionals() []Item {
	return s.filter(func(it Item) bool { return it.Kind != Toggle && it.Optional() })
}

// Strings returns the plain text of items.
func Strings(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.String())
	}
	return out
}

// ConstantTexts returns the plain text of the constants.
func (s Section) ConstantTexts() []string { return Strings(s.Constants()) }

// Codes returns every variable code in item order.
func (s Section) Codes() []cue.Code {
	var codes []cue.Code
	for _, it := range s.items {
		codes = append(codes, it.Codes...)
	}
	return codes
}

// Text returns the concatenated plain text of all items.
func (s Section) Text() string {
	var b strings.Builder
	for _, it := range s.items {
		b.WriteString(it.String())
	}
	return b.String()
}

// Contains reports whether a hypothesis holds a variable with code c.
func (s Section) Contains(c cue.Code) bool { return s.contains[c] }

// SubsetOf reports whether every code of the hypothesis is in have.
func (s Section) SubsetOf(have map[cue.Code]bool) bool {
	for c := range s.contains {
		if !have[c] {
			return false
		}
	}
	return true
}
