package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.HandoverStore = (*HandoverStore)(nil)

const handoverColumns = `id, user_id, yacht_id, solution_id, system_name, fault_code, symptoms,
	actions_taken, duration_minutes, linked_document, auto_filled_fields, confidence,
	status, created_at, updated_at`

// upsertHandover writes every non-identity column and keeps id and
// created_at of an existing row
const upsertHandover = `
	INSERT INTO handovers (` + handoverColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
	ON CONFLICT (user_id, solution_id, yacht_id) DO UPDATE SET
		system_name = EXCLUDED.system_name,
		fault_code = EXCLUDED.fault_code,
		symptoms = EXCLUDED.symptoms,
		actions_taken = EXCLUDED.actions_taken,
		duration_minutes = EXCLUDED.duration_minutes,
		linked_document = EXCLUDED.linked_document,
		auto_filled_fields = EXCLUDED.auto_filled_fields,
		confidence = EXCLUDED.confidence,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + handoverColumns

// HandoverStore implements driven.HandoverStore using PostgreSQL
type HandoverStore struct {
	db  *DB
	now func() time.Time
}

// NewHandoverStore creates a new HandoverStore
func NewHandoverStore(db *DB) *HandoverStore {
	return &HandoverStore{db: db, now: time.Now}
}

// Upsert creates or overwrites the handover for the record's key
func (s *HandoverStore) Upsert(ctx context.Context, record *domain.HandoverRecord) (*domain.HandoverRecord, error) {
	autoFilled := record.AutoFilledFields
	if autoFilled == nil {
		autoFilled = []string{}
	}

	row := s.db.QueryRowContext(ctx, upsertHandover,
		uuid.NewString(),
		record.UserID,
		record.YachtID,
		record.SolutionID,
		record.System,
		record.FaultCode,
		record.Symptoms,
		record.ActionsTaken,
		NullInt(record.DurationMinutes),
		record.LinkedDocument,
		pq.Array(autoFilled),
		record.Confidence,
		string(record.Status),
		s.now().UTC(),
	)

	stored, err := scanHandover(row)
	if err != nil {
		return nil, fmt.Errorf("upsert handover: %w", err)
	}
	return stored, nil
}

// Get retrieves a handover by its identity key
func (s *HandoverStore) Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
	query := `SELECT ` + handoverColumns + `
		FROM handovers
		WHERE user_id = $1 AND solution_id = $2 AND yacht_id = $3`

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
func (s *HandoverStore) ListByUser(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
	query := `SELECT ` + handoverColumns + `
		FROM handovers
		WHERE user_id = $1 AND yacht_id = $2
		ORDER BY updated_at DESC, id
		LIMIT $3`

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
func (s *HandoverStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanHandover(row rowScanner) (*domain.HandoverRecord, error) {
	var r domain.HandoverRecord
	var duration sql.NullInt64
	var autoFilled pq.StringArray
	var status string

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
		&autoFilled,
		&r.Confidence,
		&status,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.DurationMinutes = IntPtr(duration)
	r.AutoFilledFields = []string(autoFilled)
	if r.AutoFilledFields == nil {
		r.AutoFilledFields = []string{}
	}
	r.Status = domain.HandoverStatus(status)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
