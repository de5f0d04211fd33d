// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/catalog-engine/pkg/types"
)

// QueryOptions holds parameters for catalog queries.
type QueryOptions struct {
	// Query matches name, description, variant or SKU as a
	// case-insensitive substring.
	Query string

	Catalog string
	Cycle   string
	SKU     string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Catalog == "" && q.Cycle == "" && q.SKU == ""
}

// where builds the shared filter clause and its arguments.
func (q QueryOptions) where() (string, []any) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(` WHERE 1=1`)
	if q.Catalog != "" {
		qb.WriteString(` AND catalog = ?`)
		args = append(args, q.Catalog)
	}
	if q.Cycle != "" {
		qb.WriteString(` AND cycle = ?`)
		args = append(args, q.Cycle)
	}
	if q.SKU != "" {
		qb.WriteString(` AND sku = ?`)
		args = append(args, strings.TrimSpace(q.SKU))
	}
	if term := strings.TrimSpace(q.Query); term != "" {
		like := "%" + escapeLike(term) + "%"
		qb.WriteString(` AND (name LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR variant LIKE ? ESCAPE '\' OR sku LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like)
	}
	return qb.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Query returns canonical records matching opts, ordered by catalog,
// cycle and numeric SKU.
func (s *Store) Query(ctx context.Context, opts QueryOptions) ([]types.CanonicalRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	where, args := opts.where()
	q := `SELECT data FROM records` + where +
		` ORDER BY catalog, cycle, (sku GLOB '[0-9]*') DESC, CAST(sku AS INTEGER), sku LIMIT ?`
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []types.CanonicalRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var rec types.CanonicalRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Conflicts returns the logged conflicts for the catalog, cycle and SKU
// filters of opts in ingest order. The text query is ignored.
func (s *Store) Conflicts(ctx context.Context, opts QueryOptions) ([]types.ConflictRecord, error) {
	opts.Query = ""
	where, args := opts.where()
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM conflicts`+where+` ORDER BY rowid`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conflicts: %w", err)
	}
	defer rows.Close()

	var out []types.ConflictRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var c types.ConflictRecord
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return nil, fmt.Errorf("decoding conflict: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Unmatched returns the unmatched items for the catalog and cycle filters
// of opts, ordered by page.
func (s *Store) Unmatched(ctx context.Context, opts QueryOptions) ([]types.ProductEntity, error) {
	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT data FROM unmatched WHERE 1=1`)
	if opts.Catalog != "" {
		qb.WriteString(` AND catalog = ?`)
		args = append(args, opts.Catalog)
	}
	if opts.Cycle != "" {
		qb.WriteString(` AND cycle = ?`)
		args = append(args, opts.Cycle)
	}
	qb.WriteString(` ORDER BY page, rowid`)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying unmatched items: %w", err)
	}
	defer rows.Close()

	var out []types.ProductEntity
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var item types.ProductEntity
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			return nil, fmt.Errorf("decoding unmatched item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
