// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package template compiles the record template language into ranked
// hypotheses.
//
// A template is styled text split by three region markers into a head, a
// repeating signal unit, a delimiter and an end:
//
//	<head> /<signal>/<delimiter>/<end>
//
// Inside the head and signal regions a variable introducer followed by one
// letter names a field (%c, %m, ...) and a pair of toggle markers encloses an
// optional part. Compile checks the structure, tokenizes the regions into
// items, cuts the signal into alternating obligatory and optional pieces and
// builds one hypothesis per combination of optional pieces. Hypotheses are
// grouped by how many optional pieces they hold, fullest group first.
//
// A compiled Template is immutable and may be shared across goroutines.
package template

import (
	"unicode"

	"github.com/pdiddy/nmr-reporter/internal/cue"
	"github.com/pdiddy/nmr-reporter/internal/span"
)

// Markers are the three reserved characters of the template language.
type Markers struct {
	Region   rune
	Toggle   rune
	Variable rune
}

// DefaultMarkers are "/", "*" and "%".
var DefaultMarkers = Markers{Region: '/', Toggle: '*', Variable: '%'}

type options struct {
	markers Markers
	cues    cue.Table
}

// Option configures Compile.
type Option func(*options)

// WithMarkers overrides the reserved characters.
func WithMarkers(m Markers) Option {
	return func(o *options) { o.markers = m }
}

// WithCues overrides the table of recognized codes.
func WithCues(t cue.Table) Option {
	return func(o *options) { o.cues = t }
}

// Group holds every hypothesis with exactly N optional pieces, in
// combination order.
type Group struct {
	N          int
	Hypotheses []Section
}

// Template is a compiled template.
type Template struct {
	Head      Section
	Signal    Section
	Delimiter span.Span
	End       span.Span

	pieces [][]Item
	groups []Group
	cues   cue.Table
}

// Compile compiles raw into a Template. A malformed template yields an
// *Error naming the violated rule.
func Compile(raw span.Span, opts ...Option) (*Template, error) {
	o := options{markers: DefaultMarkers, cues: cue.Default}
	for _, opt := range opts {
		opt(&o)
	}
	m := o.markers

	var regions []int
	for i := 0; i < raw.Len(); i++ {
		if raw.At(i).Rune == m.Region {
			regions = append(regions, i)
		}
	}
	if len(regions) != 3 {
		return nil, errorf(RuleRegionMarkers, -1, string(m.Region),
			"want exactly three %q markers, found %d", m.Region, len(regions))
	}
	if n := raw.Count(string(m.Toggle)); n%2 != 0 {
		return nil, errorf(RuleToggleMarkers, -1, string(m.Toggle),
			"odd number of %q markers (%d)", m.Toggle, n)
	}
	first := regions[0]
	if first == 0 || !unicode.IsSpace(raw.At(first-1).Rune) {
		return nil, errorf(RuleLeadingSpace, first, string(m.Region),
			"the first region marker must follow a whitespace character")
	}

	c := &compiler{options: o, seen: make(map[cue.Code]bool)}
	head, err := c.tokenize(raw.To(first), 0)
	if err != nil {
		return nil, err
	}
	signal, err := c.tokenize(raw.Slice(first+1, regions[1]), first+1)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Head:      NewSection(head),
		Signal:    NewSection(signal),
		Delimiter: raw.Slice(regions[1]+1, regions[2]).WithFlags(false, false),
		End:       raw.From(regions[2]+1).WithFlags(false, false),
		cues:      o.cues,
	}
	t.pieces = cutPieces(signal)
	t.groups = buildGroups(t.pieces)
	return t, nil
}

// CompileText compiles an unstyled template.
func CompileText(raw string, opts ...Option) (*Template, error) {
	return Compile(span.New(raw), opts...)
}

type compiler struct {
	options
	seen map[cue.Code]bool
}

// tokenize turns one region into items. base is the region's offset in the
// raw template and is used only for error positions.
func (c *compiler) tokenize(region span.Span, base int) ([]Item, error) {
	var (
		items    []Item
		pending  []span.Char
		optional bool
	)
	flush := func() {
		if len(pending) > 0 {
			items = append(items, constantItem(span.FromChars(pending), optional))
			pending = nil
		}
	}

	chars := region.Chars()
	for i := 0; i < len(chars); i++ {
		ch := chars[i]
		switch ch.Rune {
		case c.markers.Toggle:
			flush()
			optional = !optional
			items = append(items, toggleItem(optional))

		case c.markers.Variable:
			flush()
			if i+1 >= len(chars) {
				return nil, errorf(RuleDanglingMarker, base+i, string(ch.Rune),
					"variable marker without a code letter")
			}
			token := string([]rune{ch.Rune, chars[i+1].Rune})
			code := cue.MakeCode(chars[i+1].Rune)
			if _, ok := c.cues.Lookup(code); !ok {
				return nil, errorf(RuleUnknownCode, base+i, token, "unrecognized variable code")
			}
			if c.seen[code] {
				return nil, errorf(RuleDuplicateCode, base+i, token, "variable code used more than once")
			}
			if prev, ok := lastNonToggle(items); ok && prev.Kind == Variable {
				return nil, errorf(RuleAdjacentVars, base+i, token,
					"variable follows %s without a constant in between", prev.String())
			}
			c.seen[code] = true
			items = append(items, variableItem(span.FromChars(chars[i:i+2]), code, optional))
			i++

		default:
			pending = append(pending, ch)
		}
	}
	flush()
	return items, nil
}

func lastNonToggle(items []Item) (Item, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Kind != Toggle {
			return items[i], true
		}
	}
	return Item{}, false
}

// Cues returns the table the template was compiled with.
func (t *Template) Cues() cue.Table { return t.cues }

// Pieces returns the signal pieces. Even indices are obligatory, odd indices
// optional.
func (t *Template) Pieces() [][]Item {
	out := make([][]Item, len(t.pieces))
	for i, p := range t.pieces {
		out[i] = append([]Item(nil), p...)
	}
	return out
}

// OptionalPieces returns the number of optional pieces.
func (t *Template) OptionalPieces() int { return len(t.pieces) / 2 }

// Groups returns the hypothesis groups, fullest first.
func (t *Template) Groups() []Group { return t.groups }

// Fullest returns the first hypothesis of the fullest group.
func (t *Template) Fullest() Section { return t.groups[0].Hypotheses[0] }

// NumHypotheses returns the total number of hypotheses.
func (t *Template) NumHypotheses() int {
	n := 0
	for _, g := range t.groups {
		n += len(g.Hypotheses)
	}
	return n
}

// TrailingConstant returns the last signal item when it is an obligatory
// constant. Record boundaries often lose it when input is split.
func (t *Template) TrailingConstant() (Item, bool) {
	last, ok := t.Signal.Last()
	if !ok || last.Kind != Constant || last.Optional() {
		return Item{}, false
	}
	return last, true
}

// EffectiveDelimiter is the text that separates records in input. When the
// signal ends in an obligatory constant, that constant precedes the
// delimiter.
func (t *Template) EffectiveDelimiter() string {
	if last, ok := t.TrailingConstant(); ok {
		return last.String() + t.Delimiter.String()
	}
	return t.Delimiter.String()
}
