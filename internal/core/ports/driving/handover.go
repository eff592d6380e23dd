package driving

import (
	"context"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// SaveHandoverRequest is a user's save of a handover form
type SaveHandoverRequest struct {
	Key    domain.HandoverKey    `json:"-"`
	Draft  domain.HandoverDraft  `json:"draft"`
	Status domain.HandoverStatus `json:"status,omitempty"`
	State  domain.EditState      `json:"state"`
}

// SaveHandoverResponse echoes the stored record and the new form state
type SaveHandoverResponse struct {
	Record *domain.HandoverRecord `json:"record"`
	State  domain.EditState       `json:"state"`
}

// EditHandoverRequest unlocks a saved handover for editing
type EditHandoverRequest struct {
	Key   domain.HandoverKey `json:"-"`
	State domain.EditState   `json:"state"`
}

// EditHandoverResponse carries the new state and the stored record to edit
type EditHandoverResponse struct {
	Record *domain.HandoverRecord `json:"record"`
	State  domain.EditState       `json:"state"`
}

// HandoverService handles the handover lifecycle
type HandoverService interface {
	// Save upserts the handover for its key. Store failures are *domain.SaveError.
	Save(ctx context.Context, req SaveHandoverRequest) (*SaveHandoverResponse, error)

	// Edit moves a saved handover into the editing state. It never writes.
	Edit(ctx context.Context, req EditHandoverRequest) (*EditHandoverResponse, error)

	// Get retrieves a handover by key
	Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error)

	// List lists a user's handovers on a yacht, newest first
	List(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error)
}
