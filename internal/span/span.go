// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package span models styled text: a sequence of characters, each carrying
// its own style, with span-level optional and variable flags.
//
// A Span is an immutable value. Slicing, concatenation and the other
// transformations return new spans and never modify their receiver, so spans
// can be shared freely between goroutines. Searching is by character value
// only and ignores style.
package span

import (
	"strings"
)

// Flag is a tri-state style attribute. Unset means the source did not say.
type Flag int8

const (
	Unset Flag = iota
	Off
	On
)

// Attr indexes a Style.
type Attr int

const (
	Italic Attr = iota
	Bold
	Underline
	Subscript
	Superscript
)

// NumAttrs is the number of style attributes.
const NumAttrs = 5

// Style holds the five style attributes of a character.
type Style [NumAttrs]Flag

// With returns a copy of s with attribute a set on or off.
func (s Style) With(a Attr, on bool) Style {
	if on {
		s[a] = On
	} else {
		s[a] = Off
	}
	return s
}

// Has reports whether attribute a is set on.
func (s Style) Has(a Attr) bool { return s[a] == On }

// Char is a single styled character.
type Char struct {
	Rune  rune
	Style Style
}

// Span is a sequence of styled characters plus two flags. Optional marks
// text that may be absent from matched input; Variable marks a typed field
// rather than literal text.
type Span struct {
	chars    []Char
	Optional bool
	Variable bool
}

// New builds an unstyled span from text.
func New(text string) Span {
	return Styled(text, Style{})
}

// Styled builds a span from text with every character in style st.
func Styled(text string, st Style) Span {
	chars := make([]Char, 0, len(text))
	for _, r := range text {
		chars = append(chars, Char{Rune: r, Style: st})
	}
	return Span{chars: chars}
}

// FromChars builds a span from a copy of chars.
func FromChars(chars []Char) Span {
	return Span{chars: append([]Char(nil), chars...)}
}

// WithFlags returns s with its flags replaced.
func (s Span) WithFlags(optional, variable bool) Span {
	s.Optional = optional
	s.Variable = variable
	return s
}

// Len returns the number of characters.
func (s Span) Len() int { return len(s.chars) }

// IsEmpty reports whether s has no characters.
func (s Span) IsEmpty() bool { return len(s.chars) == 0 }

// At returns the i-th character.
func (s Span) At(i int) Char { return s.chars[i] }

// Chars returns a copy of the characters.
func (s Span) Chars() []Char { return append([]Char(nil), s.chars...) }

// String returns the plain text of s.
func (s Span) String() string {
	var b strings.Builder
	b.Grow(len(s.chars))
	for _, c := range s.chars {
		b.WriteRune(c.Rune)
	}
	return b.String()
}

// Slice returns the characters in [i, j). Bounds are clamped to the span the
// way slice expressions on text usually behave, so out-of-range bounds yield
// a shorter or empty span instead of panicking. Flags are kept.
func (s Span) Slice(i, j int) Span {
	n := len(s.chars)
	i = clamp(i, n)
	j = clamp(j, n)
	if j < i {
		j = i
	}
	s.chars = s.chars[i:j:j]
	return s
}

// From returns the characters from i to the end.
func (s Span) From(i int) Span { return s.Slice(i, len(s.chars)) }

// To returns the first j characters.
func (s Span) To(j int) Span { return s.Slice(0, j) }

func clamp(i, n int) int {
	switch {
	case i < 0:
		return 0
	case i > n:
		return n
	}
	return i
}

// Concat returns s followed by o. The result carries the flags of s.
func (s Span) Concat(o Span) Span {
	chars := make([]Char, 0, len(s.chars)+len(o.chars))
	chars = append(chars, s.chars...)
	chars = append(chars, o.chars...)
	s.chars = chars
	return s
}

// Append returns s followed by the character c.
func (s Span) Append(c Char) Span {
	chars := make([]Char, 0, len(s.chars)+1)
	chars = append(chars, s.chars...)
	s.chars = append(chars, c)
	return s
}

// Reverse returns s with its characters in reverse order.
func (s Span) Reverse() Span {
	n := len(s.chars)
	chars := make([]Char, n)
	for i, c := range s.chars {
		chars[n-1-i] = c
	}
	s.chars = chars
	return s
}

// TrimLeadingSpace drops a single leading space character, if present.
func (s Span) TrimLeadingSpace() Span {
	if len(s.chars) > 0 && s.chars[0].Rune == ' ' {
		return s.From(1)
	}
	return s
}

// TrimSuffix drops a trailing occurrence of sub, if present.
func (s Span) TrimSuffix(sub string) Span {
	if sub != "" && s.HasSuffix(sub) {
		return s.To(len(s.chars) - runeCount(sub))
	}
	return s
}

// Equal reports whether s and o have the same characters, styles included,
// and the same flags.
func (s Span) Equal(o Span) bool {
	if s.Optional != o.Optional || s.Variable != o.Variable || len(s.chars) != len(o.chars) {
		return false
	}
	for i := range s.chars {
		if s.chars[i] != o.chars[i] {
			return false
		}
	}
	return true
}

// Run is a maximal stretch of characters sharing one style.
type Run struct {
	Text  string
	Style Style
}

// Runs groups consecutive characters of equal style.
func (s Span) Runs() []Run {
	var (
		runs []Run
		b    strings.Builder
	)
	for i, c := range s.chars {
		if i > 0 && c.Style != s.chars[i-1].Style {
			runs = append(runs, Run{Text: b.String(), Style: s.chars[i-1].Style})
			b.Reset()
		}
		b.WriteRune(c.Rune)
	}
	if len(s.chars) > 0 {
		runs = append(runs, Run{Text: b.String(), Style: s.chars[len(s.chars)-1].Style})
	}
	return runs
}
