// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists parsed spectra in SQLite and exports them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/nmr-reporter/pkg/types"
)

const (
	dbFile            = "nmr.db"
	defaultMaxResults = 50
)

// ErrNotFound is returned when a cypher has no stored spectrum.
var ErrNotFound = errors.New("spectrum not found")

// Store manages the spectrum SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// New opens or creates the database at cfg.Dir/nmr.db and creates the
// schema if it does not exist.
func New(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dir: cfg.Dir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS spectra (
			cypher TEXT PRIMARY KEY,
			source TEXT,
			head TEXT,
			saved_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS signals (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			cypher TEXT NOT NULL REFERENCES spectra(cypher) ON DELETE CASCADE,
			idx INTEGER NOT NULL,
			hypothesis TEXT,
			text TEXT,
			fields TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_cypher ON signals(cypher, idx)`,
		`CREATE INDEX IF NOT EXISTS idx_spectra_source ON spectra(source)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			source TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save writes spectra in one transaction. A cypher already stored has its
// signals replaced.
func (s *Store) Save(ctx context.Context, spectra []types.Spectrum) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveSpectra(ctx, tx, spectra); err != nil {
		return err
	}
	return tx.Commit()
}

func saveSpectra(ctx context.Context, tx *sql.Tx, spectra []types.Spectrum) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO signals (cypher, idx, hypothesis, text, fields) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, sp := range spectra {
		headJSON, _ := json.Marshal(sp.Head)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO spectra (cypher, source, head, saved_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(cypher) DO UPDATE SET
				source=excluded.source, head=excluded.head, saved_at=excluded.saved_at`,
			sp.Cypher, sp.Source, string(headJSON), now,
		); err != nil {
			return fmt.Errorf("upserting spectrum %s: %w", sp.Cypher, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM signals WHERE cypher = ?`, sp.Cypher); err != nil {
			return fmt.Errorf("deleting old signals of %s: %w", sp.Cypher, err)
		}

		for _, sig := range sp.Signals {
			fieldsJSON, _ := json.Marshal(sig.Fields)
			if _, err := stmt.ExecContext(ctx,
				sp.Cypher, sig.Index, sig.Hypothesis, sig.Text, string(fieldsJSON),
			); err != nil {
				return fmt.Errorf("inserting signal %d of %s: %w", sig.Index, sp.Cypher, err)
			}
		}
	}
	return nil
}

// Get returns the stored spectrum for cypher.
func (s *Store) Get(ctx context.Context, cypher string) (*types.Spectrum, error) {
	var (
		sp       = types.Spectrum{Cypher: cypher}
		source   sql.NullString
		headJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT source, head FROM spectra WHERE cypher = ?`, cypher,
	).Scan(&source, &headJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", cypher, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up spectrum: %w", err)
	}
	sp.Source = source.String
	if headJSON.Valid {
		json.Unmarshal([]byte(headJSON.String), &sp.Head)
	}

	results, err := s.Query(ctx, QueryOptions{Cypher: cypher, MaxResults: exportLimit})
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		sp.Signals = append(sp.Signals, r.Signal)
	}
	return &sp, nil
}

// IngestSummary holds counts from an ingest run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// LoadFunc parses the spectra of one document.
type LoadFunc func(ctx context.Context, path string) ([]types.Spectrum, error)

// Ingest loads each document with load and saves its spectra. Documents
// unchanged since their last ingest are skipped; a changed document
// replaces every spectrum it stored before.
func (s *Store) Ingest(ctx context.Context, paths []string, load LoadFunc, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE source = ?`, path,
		).Scan(&storedModTime)
		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", path)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		spectra, err := load(ctx, path)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}
		for i := range spectra {
			spectra[i].Source = path
		}

		if err := s.ingestDocument(ctx, path, spectra, modTime); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", path, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d spectra)\n", path, len(spectra))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d spectra)\n", path, len(spectra))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)
	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, path string, spectra []types.Spectrum, modTime string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM spectra WHERE source = ?`, path); err != nil {
		return fmt.Errorf("deleting old spectra: %w", err)
	}
	if err := saveSpectra(ctx, tx, spectra); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ingest_status (source, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(source) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTime,
	)
	if err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}
	return tx.Commit()
}
