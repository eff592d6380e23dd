package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
	"github.com/custodia-labs/handover-core/internal/metrics"
)

// Ensure handoverService implements HandoverService
var _ driving.HandoverService = (*handoverService)(nil)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// handoverService implements the HandoverService interface
type handoverService struct {
	store   driven.HandoverStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewHandoverService creates a new HandoverService
func NewHandoverService(store driven.HandoverStore, m *metrics.Metrics, logger *zap.Logger) driving.HandoverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &handoverService{
		store:   store,
		metrics: m,
		logger:  logger.Named("handover"),
	}
}

// Save validates the form and upserts it for its key. It is the only
// operation that writes.
func (s *handoverService) Save(ctx context.Context, req driving.SaveHandoverRequest) (*driving.SaveHandoverResponse, error) {
	next, err := req.State.Save()
	if err != nil {
		return nil, err
	}
	req.Key = req.Key.Normalize()
	if err := req.Key.Validate(); err != nil {
		return nil, err
	}
	if err := req.Draft.Validate(); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = domain.HandoverStatusSaved
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	stored, err := s.store.Upsert(ctx, domain.NewHandoverRecord(req.Key, req.Draft, status))
	if err != nil {
		s.metrics.RecordSave("error")
		s.logger.Error("handover save failed",
			zap.String("user_id", req.Key.UserID),
			zap.String("solution_id", req.Key.SolutionID),
			zap.String("yacht_id", req.Key.YachtID),
			zap.Error(err),
		)
		return nil, &domain.SaveError{Key: req.Key, Draft: req.Draft, Err: err}
	}

	s.metrics.RecordSave("ok")
	s.logger.Debug("handover saved",
		zap.String("id", stored.ID),
		zap.String("solution_id", stored.SolutionID),
		zap.String("status", string(stored.Status)),
	)

	return &driving.SaveHandoverResponse{Record: stored, State: next}, nil
}

// Edit unlocks a saved handover. The stored record is returned unchanged.
func (s *handoverService) Edit(ctx context.Context, req driving.EditHandoverRequest) (*driving.EditHandoverResponse, error) {
	next, err := req.State.Edit()
	if err != nil {
		return nil, err
	}
	req.Key = req.Key.Normalize()
	if err := req.Key.Validate(); err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, req.Key)
	if err != nil {
		return nil, err
	}

	return &driving.EditHandoverResponse{Record: record, State: next}, nil
}

// Get retrieves a handover by key
func (s *handoverService) Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
	key = key.Normalize()
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, key)
}

// List lists a user's handovers on a yacht, newest first
func (s *handoverService) List(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(yachtID) == "" {
		return nil, fmt.Errorf("%w: userId and yachtId are required", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	records, err := s.store.ListByUser(ctx, userID, yachtID, limit)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []*domain.HandoverRecord{}
	}
	return records, nil
}
