package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cparchive/internal/problem"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// SQLite stores each record as a JSON document keyed by id.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: every ":memory:" connection is a separate database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return NewSQLite(db), nil
}

// NewSQLite wraps an open database that already has the schema.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) FindByCanonicalURL(ctx context.Context, canonicalURL string) (*problem.Record, error) {
	query := `SELECT record, created_at, updated_at FROM problems WHERE url = ? ORDER BY updated_at DESC LIMIT 1`
	return s.find(ctx, query, canonicalURL)
}

func (s *SQLite) FindByID(ctx context.Context, id string) (*problem.Record, error) {
	query := `SELECT record, created_at, updated_at FROM problems WHERE id = ?`
	return s.find(ctx, query, id)
}

func (s *SQLite) find(ctx context.Context, query string, arg any) (*problem.Record, error) {
	var (
		doc                  string
		createdAt, updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&doc, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}

	r := &problem.Record{}
	if err := json.Unmarshal([]byte(doc), r); err != nil {
		return nil, fmt.Errorf("failed to decode problem: %w", err)
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if r.SampleTests == nil {
		r.SampleTests = []problem.SampleTest{}
	}
	return r, nil
}

func (s *SQLite) Upsert(ctx context.Context, r *problem.Record) (*problem.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	saved := clone(r)
	var createdAt int64
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM problems WHERE id = ?`, r.ID).Scan(&createdAt)
	switch {
	case err == nil:
		saved.CreatedAt = time.UnixMilli(createdAt).UTC()
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("failed to get problem: %w", err)
	}
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now()
	}
	saved.CreatedAt = saved.CreatedAt.UTC().Truncate(time.Millisecond)
	saved.UpdatedAt = saved.UpdatedAt.UTC().Truncate(time.Millisecond)

	doc, err := json.Marshal(saved)
	if err != nil {
		return nil, fmt.Errorf("failed to encode problem: %w", err)
	}

	query := `INSERT INTO problems (id, source, source_problem_id, url, record, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			record = excluded.record,
			updated_at = excluded.updated_at`
	_, err = tx.ExecContext(ctx, query,
		saved.ID, string(saved.Source), saved.SourceProblemID, saved.URL, string(doc),
		saved.CreatedAt.UnixMilli(), saved.UpdatedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to save problem: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit problem: %w", err)
	}
	return saved, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
