// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/nmr-reporter/internal/span"
)

// tags maps inline markup to style attributes, in the order tags are opened
// when writing.
var tags = []struct {
	name string
	attr span.Attr
}{
	{"i", span.Italic},
	{"b", span.Bold},
	{"u", span.Underline},
	{"sub", span.Subscript},
	{"sup", span.Superscript},
}

func attrOf(name string) (span.Attr, bool) {
	for _, t := range tags {
		if t.name == name {
			return t.attr, true
		}
	}
	return 0, false
}

// ParseMarkup reads one paragraph of inline markup into a styled span.
// Text is NFC-normalized and entities are decoded. Unknown tags are kept
// as literal text.
func ParseMarkup(line string) (span.Span, error) {
	z := html.NewTokenizer(strings.NewReader(line))
	var (
		depth [span.NumAttrs]int
		chars []span.Char
	)
	appendText := func(text string, st span.Style) {
		for _, r := range norm.NFC.String(text) {
			chars = append(chars, span.Char{Rune: r, Style: st})
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return span.FromChars(chars), nil
			}
			return span.Span{}, fmt.Errorf("reading markup: %w", z.Err())

		case html.TextToken:
			appendText(string(z.Text()), styleOf(depth))

		case html.StartTagToken, html.EndTagToken:
			name, _ := z.TagName()
			attr, ok := attrOf(string(name))
			if !ok {
				appendText(string(z.Raw()), styleOf(depth))
				continue
			}
			if tt == html.StartTagToken {
				depth[attr]++
			} else if depth[attr] > 0 {
				depth[attr]--
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if _, ok := attrOf(string(name)); !ok {
				appendText(string(z.Raw()), styleOf(depth))
			}
		}
	}
}

func styleOf(depth [span.NumAttrs]int) span.Style {
	var st span.Style
	for a, d := range depth {
		if d > 0 {
			st[a] = span.On
		}
	}
	return st
}

// FormatMarkup writes s as inline markup, one tagged run per stretch of
// equal style.
func FormatMarkup(s span.Span) string {
	var b strings.Builder
	for _, run := range s.Runs() {
		for _, t := range tags {
			if run.Style.Has(t.attr) {
				b.WriteString("<" + t.name + ">")
			}
		}
		b.WriteString(html.EscapeString(run.Text))
		for i := len(tags) - 1; i >= 0; i-- {
			if run.Style.Has(tags[i].attr) {
				b.WriteString("</" + tags[i].name + ">")
			}
		}
	}
	return b.String()
}
