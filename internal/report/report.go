// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report runs the tasks a host document asks for: it parses every
// spectrum through the input format, applies reassignment tables and writes
// the spectra back through the input format, or through the output format
// when the document asks to convert.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pdiddy/nmr-reporter/internal/document"
	"github.com/pdiddy/nmr-reporter/internal/extract"
	"github.com/pdiddy/nmr-reporter/internal/reassign"
	"github.com/pdiddy/nmr-reporter/internal/render"
	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
	"github.com/pdiddy/nmr-reporter/pkg/types"
)

// Options configures a report run.
type Options struct {
	Parser types.ParserConfig

	// Logger receives progress events. Nil disables logging.
	Logger *zerolog.Logger
}

// Summary holds counts from a run.
type Summary struct {
	Spectra    int
	Signals    int
	Reassigned int
	Skipped    int
	Converted  bool
}

// Report is a document with its spectra parsed.
type Report struct {
	Doc     *document.Document
	Input   *template.Template
	Spectra []*extract.Spectrum

	// Errors holds the record errors skipped when collecting errors.
	Errors []error

	inputRaw span.Span
	opts     Options
	log      zerolog.Logger
}

// Markers converts the configured marker string to template markers. An
// empty string selects the defaults.
func Markers(s string) (template.Markers, error) {
	if s == "" {
		return template.DefaultMarkers, nil
	}
	r := []rune(s)
	if len(r) != 3 || r[0] == r[1] || r[1] == r[2] || r[0] == r[2] {
		return template.Markers{}, fmt.Errorf("markers %q: want three distinct characters", s)
	}
	return template.Markers{Region: r[0], Toggle: r[1], Variable: r[2]}, nil
}

func (o Options) compile(raw span.Span) (*template.Template, error) {
	m, err := Markers(o.Parser.Markers)
	if err != nil {
		return nil, err
	}
	return template.Compile(raw, template.WithMarkers(m))
}

func (o Options) extractConfig() extract.Config {
	return extract.Config{
		Workers:       o.Parser.Workers,
		CollectErrors: o.Parser.CollectErrors,
		Logger:        o.Logger,
	}
}

// Load compiles the document's input format and parses every spectrum.
func Load(ctx context.Context, doc *document.Document, opts Options) (*Report, error) {
	r := &Report{Doc: doc, opts: opts, log: zerolog.Nop()}
	if opts.Logger != nil {
		r.log = *opts.Logger
	}

	raw, ok := doc.Template(document.InputFormat)
	if !ok {
		return nil, fmt.Errorf("document has no %q paragraph", document.InputFormat)
	}
	tpl, err := opts.compile(raw)
	if err != nil {
		return nil, fmt.Errorf("input format: %w", err)
	}
	r.Input, r.inputRaw = tpl, raw
	r.log.Debug().Int("hypotheses", tpl.NumHypotheses()).Msg("compiled input format")

	raws, err := doc.Spectra()
	if err != nil {
		return nil, err
	}
	parser := extract.NewParser(tpl, opts.extractConfig())
	for _, rs := range raws {
		s, err := parser.Parse(ctx, rs.Cypher, rs.Text)
		if err != nil {
			if s == nil || !opts.Parser.CollectErrors {
				return nil, err
			}
			r.log.Warn().Err(err).Str("cypher", rs.Cypher).Msg("records skipped")
			r.Errors = append(r.Errors, err)
		}
		r.log.Debug().Str("cypher", rs.Cypher).Int("signals", len(s.Records)).Msg("parsed spectrum")
		r.Spectra = append(r.Spectra, s)
	}
	return r, nil
}

// Signals returns the number of parsed records across all spectra.
func (r *Report) Signals() int {
	n := 0
	for _, s := range r.Spectra {
		n += len(s.Records)
	}
	return n
}

// Reassign applies the document's assignment tables and returns the number
// of assignments replaced.
func (r *Report) Reassign(ctx context.Context) (int, error) {
	b, err := reassign.NewBuilder(r.opts.extractConfig())
	if err != nil {
		return 0, err
	}
	var tables []*reassign.Table
	for _, block := range r.Doc.Assignments() {
		t, err := b.Table(ctx, block.Cypher, block.Pairs)
		if err != nil {
			return 0, err
		}
		tables = append(tables, t)
	}
	n := reassign.Apply(r.Spectra, tables)
	r.log.Debug().Int("tables", len(tables)).Int("replaced", n).Msg("reassigned")
	return n, nil
}

// Write renders every spectrum through the output format when convert is
// set, or through the input format otherwise. The written document starts
// with an "Input format:" paragraph for the template used, so it can be
// read back.
func (r *Report) Write(w io.Writer, convert bool) error {
	tpl, raw := r.Input, r.inputRaw
	if convert {
		outRaw, ok := r.Doc.Template(document.OutputFormat)
		if !ok {
			return fmt.Errorf("document has no %q paragraph", document.OutputFormat)
		}
		out, err := r.opts.compile(outRaw)
		if err != nil {
			return fmt.Errorf("output format: %w", err)
		}
		tpl, raw = out, outRaw
	}

	dw := document.NewWriter(w)
	if err := dw.Template(document.InputFormat, raw); err != nil {
		return err
	}
	rd := render.New(tpl)
	for _, s := range r.Spectra {
		text, err := rd.Render(s)
		if err != nil {
			return err
		}
		if err := dw.Spectrum(s.Cypher, text); err != nil {
			return err
		}
	}
	return nil
}

// Run performs the document's tasks and writes the result to w.
func Run(ctx context.Context, doc *document.Document, w io.Writer, opts Options) (Summary, error) {
	r, err := Load(ctx, doc, opts)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{Spectra: len(r.Spectra), Signals: r.Signals(), Skipped: len(r.Errors)}

	if doc.HasTask(document.TaskReassign) {
		n, err := r.Reassign(ctx)
		if err != nil {
			return sum, err
		}
		sum.Reassigned = n
	}

	sum.Converted = doc.HasTask(document.TaskConvert)
	if err := r.Write(w, sum.Converted); err != nil {
		return sum, err
	}
	return sum, nil
}
