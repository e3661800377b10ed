// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract parses spectrum text against a compiled template.
//
// A spectrum block is parsed in three steps: the head constants are consumed
// in order to fill the head variables, the remaining text is split into
// records (Split), and each record is matched to a hypothesis (Match) whose
// constants then bound its field values (Extract). Records are independent
// and are matched on a bounded pool of goroutines.
package extract

import (
	"context"
	"errors"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/nmr-reporter/internal/span"
	"github.com/pdiddy/nmr-reporter/internal/template"
)

// Config controls a Parser.
type Config struct {
	// Workers bounds the number of records matched at once (default GOMAXPROCS).
	Workers int

	// CollectErrors keeps parsing after a bad record. The records that parsed
	// are returned together with the joined record errors.
	CollectErrors bool

	// Logger receives debug output. Nil disables logging.
	Logger *zerolog.Logger
}

// Parser parses spectra with one template. It is safe for concurrent use.
type Parser struct {
	tpl     *template.Template
	workers int
	collect bool
	log     zerolog.Logger
}

// NewParser creates a Parser for tpl.
func NewParser(tpl *template.Template, cfg Config) *Parser {
	p := &Parser{
		tpl:     tpl,
		workers: cfg.Workers,
		collect: cfg.CollectErrors,
		log:     zerolog.Nop(),
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Logger != nil {
		p.log = *cfg.Logger
	}
	return p
}

// Template returns the parser's template.
func (p *Parser) Template() *template.Template { return p.tpl }

// Parse parses one spectrum block: its head followed by its records.
func (p *Parser) Parse(ctx context.Context, cypher string, text span.Span) (*Spectrum, error) {
	head, rest, err := p.parseHead(text)
	if err != nil {
		return nil, at(err, cypher, HeadRecord)
	}
	s, err := p.ParseRecords(ctx, cypher, rest)
	if s != nil {
		s.Head = head
	}
	return s, err
}

// ParseRecords parses text that holds records only, without a head.
func (p *Parser) ParseRecords(ctx context.Context, cypher string, text span.Span) (*Spectrum, error) {
	parts := Split(p.tpl, text)
	p.log.Debug().Str("cypher", cypher).Int("records", len(parts)).Msg("split spectrum")

	records := make([]*Record, len(parts))
	errs := make([]error, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := p.Record(part)
			if err != nil {
				errs[i] = at(err, cypher, i)
				if p.collect {
					return nil
				}
				return errs[i]
			}
			records[i] = rec
			return nil
		})
	}
	werr := g.Wait()

	if !p.collect {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	if werr != nil {
		return nil, werr
	}

	s := &Spectrum{Cypher: cypher, Head: make(Fields)}
	for _, rec := range records {
		if rec != nil {
			s.Records = append(s.Records, rec)
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		p.log.Debug().Str("cypher", cypher).Err(err).Msg("records skipped")
	}
	return s, err
}

// Record matches and extracts a single record.
func (p *Parser) Record(text span.Span) (*Record, error) {
	h, n, err := Match(p.tpl, text)
	if err != nil {
		return nil, err
	}
	fields, err := Extract(h, text, p.tpl.Cues())
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("optional", n).Str("record", text.String()).Msg("matched")
	return &Record{Text: text, Hypothesis: h, Fields: fields}, nil
}

// parseHead consumes the head constants in order. Text before a constant is
// the value of the head variable just before it; text before a constant
// that follows no variable is dropped. A missing optional constant is
// skipped and its variable runs on to the next constant. A head of
// whitespace only consumes nothing.
func (p *Parser) parseHead(text span.Span) (Fields, span.Span, error) {
	fields := make(Fields)
	if strings.TrimSpace(p.tpl.Head.Text()) == "" {
		return fields, text, nil
	}

	items := p.tpl.Head.Items()
	work := text
	var prev *template.Item
	for i := range items {
		it := items[i]
		switch it.Kind {
		case template.Toggle:
			continue
		case template.Variable:
			prev = &items[i]
			continue
		}

		c := it.String()
		pos := work.Index(c)
		if pos < 0 {
			if it.Optional() {
				continue
			}
			return nil, span.Span{}, inputErrorf(text.String(), "head constant %q not found", c)
		}
		if prev != nil {
			v, err := takeField(work.To(pos), c, lookup(p.tpl.Cues(), prev.Code()))
			if err != nil {
				return nil, span.Span{}, err
			}
			fields[prev.Code()] = v
		}
		prev = nil
		work = work.From(pos + runes(c))
	}
	return fields, work, nil
}
