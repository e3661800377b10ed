// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/nmr-reporter/pkg/types"
)

const exportLimit = 1000000

// ExportYAML writes the spectra holding signals that match opts as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts QueryOptions) error {
	spectra, err := s.exportSpectra(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(spectra)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes the spectra holding signals that match opts as JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts QueryOptions) error {
	spectra, err := s.exportSpectra(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(spectra); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// exportSpectra groups matching signals by spectrum. Only matching signals
// are included.
func (s *Store) exportSpectra(ctx context.Context, opts QueryOptions) ([]types.Spectrum, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = exportLimit
	}
	results, err := s.Query(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	spectra := []types.Spectrum{}
	for _, r := range results {
		if n := len(spectra); n == 0 || spectra[n-1].Cypher != r.Cypher {
			sp, err := s.head(ctx, r.Cypher)
			if err != nil {
				return nil, err
			}
			sp.Source = r.Source
			spectra = append(spectra, sp)
		}
		last := &spectra[len(spectra)-1]
		last.Signals = append(last.Signals, r.Signal)
	}
	return spectra, nil
}

func (s *Store) head(ctx context.Context, cypher string) (types.Spectrum, error) {
	sp := types.Spectrum{Cypher: cypher}
	var headJSON []byte
	if err := s.db.QueryRowContext(ctx,
		`SELECT coalesce(head, '') FROM spectra WHERE cypher = ?`, cypher,
	).Scan(&headJSON); err != nil {
		return sp, fmt.Errorf("reading head of %s: %w", cypher, err)
	}
	if len(headJSON) > 0 {
		json.Unmarshal(headJSON, &sp.Head)
	}
	return sp, nil
}
