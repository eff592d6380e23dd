package driven

import (
	"context"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// HandoverStore handles handover persistence (PostgreSQL or SQLite)
type HandoverStore interface {
	// Upsert creates the record for its key or overwrites the existing one in a
	// single statement. It returns the stored row: id and created_at come from
	// the first save, updated_at from this one.
	Upsert(ctx context.Context, record *domain.HandoverRecord) (*domain.HandoverRecord, error)

	// Get retrieves a record by its identity key
	Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error)

	// ListByUser lists a user's records on a yacht, most recently updated first
	ListByUser(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error)

	// Ping checks the store is reachable
	Ping(ctx context.Context) error
}
