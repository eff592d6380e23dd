package mocks

import (
	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Ensure MockNormaliser implements ResultNormaliser
var _ driven.ResultNormaliser = (*MockNormaliser)(nil)

// MockNormaliser is a mock implementation of ResultNormaliser for testing
type MockNormaliser struct {
	Kind        domain.SourceKind
	PriorityFn  func() int
	NormaliseFn func(record domain.SourceRecord) (domain.Result, error)
}

func NewMockNormaliser(kind domain.SourceKind) *MockNormaliser {
	return &MockNormaliser{Kind: kind}
}

func (m *MockNormaliser) Normalise(record domain.SourceRecord) (domain.Result, error) {
	if m.NormaliseFn != nil {
		return m.NormaliseFn(record)
	}
	return domain.Result{ID: "mock", DisplayName: "Untitled", SourceKind: m.Kind}, nil
}

func (m *MockNormaliser) SourceKind() domain.SourceKind {
	return m.Kind
}

func (m *MockNormaliser) Priority() int {
	if m.PriorityFn != nil {
		return m.PriorityFn()
	}
	return 100
}
