// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/nmr-reporter/pkg/types"
)

// QueryOptions holds the filters of a signal query. All set filters apply.
type QueryOptions struct {
	// Cypher restricts results to one spectrum.
	Cypher string

	// Code keeps signals with a value for this variable code (e.g. "%j").
	Code string

	// Contains keeps signals whose text, or whose Code value when Code is
	// set, contains this substring.
	Contains string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Cypher == "" && q.Code == "" && q.Contains == ""
}

// QueryResult is a stored signal with its spectrum.
type QueryResult struct {
	types.Signal
	Cypher string `json:"cypher" yaml:"cypher"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// fieldPath is the JSON path of code inside the fields column.
func fieldPath(code string) string {
	return `$."` + code + `"`
}

// Query returns signals matching opts ordered by cypher and position.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT g.cypher, sp.source, g.idx, g.hypothesis, g.text, g.fields
		FROM signals g
		JOIN spectra sp ON sp.cypher = g.cypher
		WHERE 1=1`)

	if opts.Cypher != "" {
		qb.WriteString(` AND g.cypher = ?`)
		args = append(args, opts.Cypher)
	}

	if opts.Code != "" {
		qb.WriteString(` AND json_extract(g.fields, ?) IS NOT NULL`)
		args = append(args, fieldPath(opts.Code))
	}

	if opts.Contains != "" {
		if opts.Code != "" {
			qb.WriteString(` AND instr(json_extract(g.fields, ?), ?) > 0`)
			args = append(args, fieldPath(opts.Code), opts.Contains)
		} else {
			qb.WriteString(` AND instr(g.text, ?) > 0`)
			args = append(args, opts.Contains)
		}
	}

	qb.WriteString(` ORDER BY g.cypher, g.idx LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying signals: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr         QueryResult
			source     sql.NullString
			hypothesis sql.NullString
			text       sql.NullString
			fieldsJSON sql.NullString
		)
		if err := rows.Scan(&qr.Cypher, &source, &qr.Index, &hypothesis, &text, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		qr.Source = source.String
		qr.Hypothesis = hypothesis.String
		qr.Text = text.String
		if fieldsJSON.Valid {
			json.Unmarshal([]byte(fieldsJSON.String), &qr.Fields)
		}
		results = append(results, qr)
	}
	return results, rows.Err()
}
