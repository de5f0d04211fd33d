// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists reconciled catalog runs in SQLite. Records are
// keyed by (catalog, cycle, sku); ingesting a cycle again replaces its
// records, conflicts and unmatched items.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

const dbFile = "catalog.db"

// timeLayout is fixed width so ingested_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var now = time.Now

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
}

// Open opens or creates the catalog database at cfg.Dir/catalog.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join("output", "store")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, dir: dir, maxResults: maxResults}
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

// Dir returns the directory holding the database and exports.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			catalog TEXT NOT NULL,
			cycle TEXT NOT NULL,
			source TEXT,
			ingested_at TEXT NOT NULL,
			records INTEGER NOT NULL,
			unmatched INTEGER NOT NULL,
			conflicts INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			catalog TEXT NOT NULL,
			cycle TEXT NOT NULL,
			sku TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			name TEXT,
			description TEXT,
			variant TEXT,
			data TEXT NOT NULL,
			PRIMARY KEY (catalog, cycle, sku)
		)`,
		`CREATE TABLE IF NOT EXISTS conflicts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			catalog TEXT NOT NULL,
			cycle TEXT NOT NULL,
			sku TEXT NOT NULL,
			field TEXT NOT NULL,
			data TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS unmatched (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL REFERENCES runs(id),
			catalog TEXT NOT NULL,
			cycle TEXT NOT NULL,
			page INTEGER,
			name TEXT,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conflicts_cycle ON conflicts(catalog, cycle)`,
		`CREATE INDEX IF NOT EXISTS idx_unmatched_cycle ON unmatched(catalog, cycle)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run describes one ingested merge result.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	Catalog    string    `json:"catalog" yaml:"catalog"`
	Cycle      string    `json:"cycle" yaml:"cycle"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	IngestedAt time.Time `json:"ingested_at" yaml:"ingested_at"`
	Records    int       `json:"records" yaml:"records"`
	Unmatched  int       `json:"unmatched" yaml:"unmatched"`
	Conflicts  int       `json:"conflicts" yaml:"conflicts"`
}

// Ingest stores res as a new run, replacing any earlier data for the same
// catalog and cycle. source records where the result was read from.
func (s *Store) Ingest(ctx context.Context, res types.MergeResult, source string) (Run, error) {
	if res.Catalog == "" || res.Cycle == "" {
		return Run{}, fmt.Errorf("merge result needs a catalog and a cycle")
	}
	run := Run{
		ID:         uuid.NewString(),
		Catalog:    res.Catalog,
		Cycle:      res.Cycle,
		Source:     source,
		IngestedAt: now().UTC(),
		Records:    len(res.BySKU),
		Unmatched:  len(res.Unmatched),
		Conflicts:  len(res.Conflicts),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"records", "conflicts", "unmatched"} {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE catalog = ? AND cycle = ?`, run.Catalog, run.Cycle,
		); err != nil {
			return Run{}, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, catalog, cycle, source, ingested_at, records, unmatched, conflicts)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Catalog, run.Cycle, run.Source, run.IngestedAt.Format(timeLayout),
		run.Records, run.Unmatched, run.Conflicts,
	); err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (catalog, cycle, sku, run_id, name, description, variant, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Run{}, fmt.Errorf("preparing record insert: %w", err)
	}
	defer recStmt.Close()

	for _, sku := range res.SKUs() {
		rec := res.BySKU[sku]
		data, err := json.Marshal(rec)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling record %s: %w", sku, err)
		}
		if _, err := recStmt.ExecContext(ctx,
			run.Catalog, run.Cycle, sku, run.ID, rec.Name, rec.Description, rec.Variant, string(data),
		); err != nil {
			return Run{}, fmt.Errorf("inserting record %s: %w", sku, err)
		}
	}

	for _, c := range res.Conflicts {
		data, err := json.Marshal(c)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling conflict %s/%s: %w", c.SKU, c.Field, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conflicts (run_id, catalog, cycle, sku, field, data) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.Catalog, run.Cycle, c.SKU, c.Field, string(data),
		); err != nil {
			return Run{}, fmt.Errorf("inserting conflict %s/%s: %w", c.SKU, c.Field, err)
		}
	}

	for _, item := range res.Unmatched {
		data, err := json.Marshal(item)
		if err != nil {
			return Run{}, fmt.Errorf("marshaling unmatched item: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO unmatched (run_id, catalog, cycle, page, name, data) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.Catalog, run.Cycle, item.SourcePage, item.Name, string(data),
		); err != nil {
			return Run{}, fmt.Errorf("inserting unmatched item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("committing run: %w", err)
	}
	return run, nil
}

// Runs lists ingested runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, catalog, cycle, source, ingested_at, records, unmatched, conflicts
		 FROM runs ORDER BY ingested_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r      Run
			source sql.NullString
			at     string
		)
		if err := rows.Scan(&r.ID, &r.Catalog, &r.Cycle, &source, &at, &r.Records, &r.Unmatched, &r.Conflicts); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Source = source.String
		if r.IngestedAt, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing ingest time of run %s: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
