// Package sqlite stores handovers in a single SQLite file. It backs local
// installations and the store tests; production uses the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

//go:embed schema.sql
var schema string

// Verify interface compliance
var _ driven.HandoverStore = (*Store)(nil)

const handoverColumns = `id, user_id, yacht_id, solution_id, system_name, fault_code, symptoms,
	actions_taken, duration_minutes, linked_document, auto_filled_fields, confidence,
	status, created_at, updated_at`

const upsertHandover = `
	INSERT INTO handovers (` + handoverColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_id, solution_id, yacht_id) DO UPDATE SET
		system_name = excluded.system_name,
		fault_code = excluded.fault_code,
		symptoms = excluded.symptoms,
		actions_taken = excluded.actions_taken,
		duration_minutes = excluded.duration_minutes,
		linked_document = excluded.linked_document,
		auto_filled_fields = excluded.auto_filled_fields,
		confidence = excluded.confidence,
		status = excluded.status,
		updated_at = excluded.updated_at
	RETURNING ` + handoverColumns

// Store implements driven.HandoverStore on SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the clock used for created_at and updated_at
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (or creates) the database file at path and applies the schema.
// Pass ":memory:" for an in-memory database (used by tests).
func Open(path string, opts ...Option) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// A single connection avoids "database is locked" and keeps ":memory:" one database
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode=WAL"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the tables. It is idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert creates or overwrites the handover for the record's key
func (s *Store) Upsert(ctx context.Context, record *domain.HandoverRecord) (*domain.HandoverRecord, error) {
	autoFilled := record.AutoFilledFields
	if autoFilled == nil {
		autoFilled = []string{}
	}
	fields, err := json.Marshal(autoFilled)
	if err != nil {
		return nil, fmt.Errorf("encoding auto-filled fields: %w", err)
	}

	var duration sql.NullInt64
	if record.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*record.DurationMinutes), Valid: true}
	}

	now := formatTime(s.now())
	row := s.db.QueryRowContext(ctx, upsertHandover,
		uuid.NewString(),
		record.UserID,
		record.YachtID,
		record.SolutionID,
		record.System,
		record.FaultCode,
		record.Symptoms,
		record.ActionsTaken,
		duration,
		record.LinkedDocument,
		string(fields),
		record.Confidence,
		string(record.Status),
		now,
		now,
	)

	stored, err := scanHandover(row)
	if err != nil {
		return nil, fmt.Errorf("upsert handover: %w", err)
	}
	return stored, nil
}

// Get retrieves a handover by its identity key
func (s *Store) Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
	query := `SELECT ` + handoverColumns + `
		FROM handovers
		WHERE user_id = ? AND solution_id = ? AND yacht_id = ?`

	record, err := scanHandover(s.db.QueryRowContext(ctx, query, key.UserID, key.SolutionID, key.YachtID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ListByUser lists a user's handovers on a yacht, most recently updated first
func (s *Store) ListByUser(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
	query := `SELECT ` + handoverColumns + `
		FROM handovers
		WHERE user_id = ? AND yacht_id = ?
		ORDER BY updated_at DESC, id
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, yachtID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.HandoverRecord, 0)
	for rows.Next() {
		record, err := scanHandover(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Ping checks the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Count returns the number of stored handovers
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM handovers").Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandover(row rowScanner) (*domain.HandoverRecord, error) {
	var r domain.HandoverRecord
	var duration sql.NullInt64
	var fields, status, createdAt, updatedAt string

	err := row.Scan(
		&r.ID,
		&r.UserID,
		&r.YachtID,
		&r.SolutionID,
		&r.System,
		&r.FaultCode,
		&r.Symptoms,
		&r.ActionsTaken,
		&duration,
		&r.LinkedDocument,
		&fields,
		&r.Confidence,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if duration.Valid {
		d := int(duration.Int64)
		r.DurationMinutes = &d
	}
	r.AutoFilledFields = []string{}
	if fields != "" {
		if err := json.Unmarshal([]byte(fields), &r.AutoFilledFields); err != nil {
			return nil, fmt.Errorf("decoding auto-filled fields: %w", err)
		}
	}
	r.Status = domain.HandoverStatus(status)

	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Timestamps are stored as fixed-width UTC text so they sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
