package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000000000"

// SQLiteStore implements Store using SQLite via modernc.org/sqlite (pure Go).
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the history database at dbPath.
// Use ":memory:" for testing.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("session: open database: %w", err)
	}
	// Each connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: ping database: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id          TEXT PRIMARY KEY,
			domain      TEXT NOT NULL,
			record_json TEXT NOT NULL,
			platforms   TEXT DEFAULT '',
			admin_hits  INTEGER DEFAULT 0,
			created_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scans_domain ON scans(domain)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("session: create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Save persists rec. An empty ID is replaced with a new UUID and a zero
// CreatedAt with the current time.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}

	query := `
		INSERT INTO scans (id, domain, record_json, platforms, admin_hits, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain      = excluded.domain,
			record_json = excluded.record_json,
			platforms   = excluded.platforms,
			admin_hits  = excluded.admin_hits
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Domain,
		string(data),
		strings.Join(rec.Platforms(), ","),
		len(rec.AdminHits),
		rec.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("session: save record: %w", err)
	}
	return nil
}

// Load returns the most recent record for domain, or (nil, nil).
func (s *SQLiteStore) Load(ctx context.Context, domain string) (*Record, error) {
	query := `
		SELECT record_json FROM scans
		WHERE domain = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.loadOne(ctx, query, domain)
}

// LoadByID returns the record with the given ID, or (nil, nil).
func (s *SQLiteStore) LoadByID(ctx context.Context, id string) (*Record, error) {
	return s.loadOne(ctx, `SELECT record_json FROM scans WHERE id = ?`, id)
}

func (s *SQLiteStore) loadOne(ctx context.Context, query string, args ...any) (*Record, error) {
	var data string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: scan row: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("session: unmarshal record: %w", err)
	}
	return &rec, nil
}

// List returns summaries newest first. A non-empty domain filters the list.
func (s *SQLiteStore) List(ctx context.Context, domain string) ([]*Summary, error) {
	query := `SELECT id, domain, platforms, admin_hits, created_at FROM scans`
	var args []any
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("session: list scans: %w", err)
	}
	defer rows.Close()

	var summaries []*Summary
	for rows.Next() {
		var (
			sum       Summary
			platforms string
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Domain, &platforms, &sum.AdminHits, &createdAt); err != nil {
			return nil, fmt.Errorf("session: scan summary row: %w", err)
		}
		if platforms != "" {
			sum.Platforms = strings.Split(platforms, ",")
		}
		t, err := time.ParseInLocation(timeLayout, createdAt, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("session: parse created_at %q: %w", createdAt, err)
		}
		sum.CreatedAt = t
		summaries = append(summaries, &sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("session: iterate rows: %w", err)
	}
	return summaries, nil
}

// Delete removes a record by ID and reports whether it existed.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("session: delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("session: rows affected: %w", err)
	}
	return n > 0, nil
}

// Cleanup removes records created more than maxAge ago and returns how
// many were deleted.
func (s *SQLiteStore) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge).Format(timeLayout)

	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: cleanup: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: rows affected: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
