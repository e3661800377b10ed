// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"

	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Split cuts the record block text into one span per record.
//
// When the fullest hypothesis never contains the effective delimiter, the
// delimiter only ever separates records and a direct split is exact; each
// slice then loses a trailing end marker. Otherwise the delimiter also
// occurs inside records and records are bounded by anchors (see
// splitAnchored). Either way a record gets back the closing constant the
// delimiter swallowed, and blank slices are dropped.
func Split(tpl *template.Template, text span.Span) []span.Span {
	delim := tpl.EffectiveDelimiter()
	end := tpl.End.String()

	var parts []span.Span
	switch {
	case delim == "":
		parts = []span.Span{text.TrimSuffix(end)}
	case strings.Contains(tpl.Fullest().Text(), delim):
		parts = splitAnchored(tpl, text, delim)
	default:
		for _, part := range text.Split(delim) {
			parts = append(parts, part.TrimSuffix(end))
		}
	}
	return closeRecords(tpl, parts)
}

func closeRecords(tpl *template.Template, parts []span.Span) []span.Span {
	closing, hasClosing := tpl.TrailingConstant()
	var out []span.Span
	for _, part := range parts {
		if isBlank(part) {
			continue
		}
		if hasClosing && !part.HasSuffix(closing.String()) {
			part = part.Concat(span.New(closing.String()))
		}
		out = append(out, part)
	}
	return out
}

// splitAnchored bounds records by the first and last constants of the
// signal. The left boundary is the end of the last delimiter before the left
// anchor; the right boundary is the first delimiter after the right anchor.
// Text before the left boundary belongs to no record and is dropped.
// Whenever the anchors or the delimiter run out, the rest is split directly.
func splitAnchored(tpl *template.Template, text span.Span, delim string) []span.Span {
	consts := tpl.Signal.ConstantTexts()
	text = text.TrimSuffix(tpl.End.String())

	var out []span.Span
	for !text.IsEmpty() {
		if len(consts) == 0 {
			return append(out, text.Split(delim)...)
		}
		li := 0
		for li < len(consts)-1 && !text.Contains(consts[li]) {
			li++
		}
		ri := len(consts) - 1
		for ri > li && !text.Contains(consts[ri]) {
			ri--
		}
		left, right := consts[li], consts[ri]

		if (!text.Contains(left) && !text.Contains(right)) ||
			(left == delim && right == delim) ||
			!text.Contains(delim) {
			return append(out, text.Split(delim)...)
		}

		for text.Contains(left) && text.Contains(right) && text.Contains(delim) {
			la := anchorIndex(text, left, right, delim)
			ra := anchorIndex(text, right, left, delim)

			l := 0
			if d := text.To(la).LastIndex(delim); d >= 0 {
				l = d + runes(delim)
			}
			from := ra + runes(right)
			if from < l {
				from = l
			}
			r := text.Len()
			if d := text.IndexFrom(delim, from); d >= 0 {
				r = d
			}
			out = append(out, text.Slice(l, r))

			before := text.Len()
			text = text.From(r + runes(delim))
			if text.Len() >= before {
				return append(out, text.Split(delim)...)
			}
		}
	}
	return out
}

// anchorIndex locates anchor, or other when anchor is the delimiter itself.
func anchorIndex(text span.Span, anchor, other, delim string) int {
	if anchor == delim {
		return text.Index(other)
	}
	return text.Index(anchor)
}

func runes(s string) int { return len([]rune(s)) }

func isBlank(s span.Span) bool { return strings.TrimSpace(s.String()) == "" }
