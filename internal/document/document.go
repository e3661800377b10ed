// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document reads and writes the host document: UTF-8 text with one
// paragraph per line and inline style markup (<i>, <b>, <u>, <sub>, <sup>).
//
// Paragraphs starting with a keyword carry meaning:
//
//	Input format: <template>
//	Output format: <template>
//	Task: reassign convert
//	Spectrum: <cypher>        the next paragraph is the spectrum text
//	Assignments: <cypher|*>   followed by "old = new" paragraphs
//
// Literal "<" and "&" in text are written as &lt; and &amp;.
package document

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/nmr-reporter/internal/reassign"
	"github.com/pdiddy/nmr-reporter/internal/span"
)

// Paragraph keywords.
const (
	InputFormat  = "Input format: "
	OutputFormat = "Output format: "
	TaskKey      = "Task:"
	SpectrumKey  = "Spectrum:"
	AssignKey    = "Assignments:"
)

// Tasks a document can request.
const (
	TaskReassign = "reassign"
	TaskConvert  = "convert"
)

const assignSep = " = "

const maxLine = 1 << 20

// Document is a parsed host document.
type Document struct {
	Paragraphs []span.Span
}

// RawSpectrum is a spectrum paragraph and its cypher.
type RawSpectrum struct {
	Cypher string
	Text   span.Span
}

// AssignmentBlock is one "Assignments:" section.
type AssignmentBlock struct {
	Cypher string
	Pairs  []reassign.Pair
}

// Read parses a document from r.
func Read(r io.Reader) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	d := &Document{}
	for n := 1; sc.Scan(); n++ {
		p, err := ParseMarkup(strings.TrimSuffix(sc.Text(), "\r"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		d.Paragraphs = append(d.Paragraphs, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return d, nil
}

// ReadFile parses the document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Template returns the text after keyword in the first paragraph that
// starts with it.
func (d *Document) Template(keyword string) (span.Span, bool) {
	for _, p := range d.Paragraphs {
		if strings.HasPrefix(p.String(), keyword) {
			return p.From(len([]rune(keyword))), true
		}
	}
	return span.Span{}, false
}

// Tasks returns the words of the first "Task:" paragraph.
func (d *Document) Tasks() []string {
	for _, p := range d.Paragraphs {
		words := strings.Fields(p.String())
		if len(words) > 0 && words[0] == TaskKey {
			return words[1:]
		}
	}
	return nil
}

// HasTask reports whether the document requests task.
func (d *Document) HasTask(task string) bool {
	for _, t := range d.Tasks() {
		if t == task {
			return true
		}
	}
	return false
}

// Spectra returns every "Spectrum:" paragraph with the paragraph after it.
func (d *Document) Spectra() ([]RawSpectrum, error) {
	var out []RawSpectrum
	for i, p := range d.Paragraphs {
		cypher, ok := keyed(p, SpectrumKey)
		if !ok {
			continue
		}
		if i+1 >= len(d.Paragraphs) {
			return nil, fmt.Errorf("spectrum %s has no text", cypher)
		}
		out = append(out, RawSpectrum{Cypher: cypher, Text: d.Paragraphs[i+1]})
	}
	return out, nil
}

// Assignments returns every "Assignments:" block. A block ends at the first
// paragraph without " = ".
func (d *Document) Assignments() []AssignmentBlock {
	var out []AssignmentBlock
	for i, p := range d.Paragraphs {
		cypher, ok := keyed(p, AssignKey)
		if !ok {
			continue
		}
		b := AssignmentBlock{Cypher: cypher}
		for _, q := range d.Paragraphs[i+1:] {
			at := q.Index(assignSep)
			if at < 0 {
				break
			}
			b.Pairs = append(b.Pairs, reassign.Pair{
				Old: q.To(at).String(),
				New: q.From(at + len(assignSep)),
			})
		}
		out = append(out, b)
	}
	return out
}

// keyed returns the rest of a paragraph whose first word is key.
func keyed(p span.Span, key string) (string, bool) {
	text := strings.TrimRight(p.String(), " \t")
	rest, ok := strings.CutPrefix(text, key)
	if !ok || (rest != "" && rest[0] != ' ') {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Writer writes a host document.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

func (w *Writer) line(s string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s+"\n")
}

// Template writes a keyword paragraph holding a template.
func (w *Writer) Template(keyword string, raw span.Span) error {
	w.line(keyword + FormatMarkup(raw))
	return w.err
}

// Spectrum writes the cypher paragraph and the spectrum paragraph.
func (w *Writer) Spectrum(cypher string, text span.Span) error {
	w.line(SpectrumKey + " " + cypher)
	w.line(FormatMarkup(text))
	return w.err
}
