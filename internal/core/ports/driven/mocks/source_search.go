package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

var (
	_ driven.DocumentSearcher = (*MockDocumentSearcher)(nil)
	_ driven.EmailSearcher    = (*MockEmailSearcher)(nil)
	_ driven.EntityExtractor  = (*MockEntityExtractor)(nil)
)

// MockDocumentSearcher returns a fixed set of document hits
type MockDocumentSearcher struct {
	mu      sync.Mutex
	Records []*domain.DocumentRecord
	Err     error
	Calls   int
	Last    domain.SearchQuery
}

func NewMockDocumentSearcher(records ...*domain.DocumentRecord) *MockDocumentSearcher {
	return &MockDocumentSearcher{Records: records}
}

func (m *MockDocumentSearcher) SearchDocuments(ctx context.Context, q domain.SearchQuery) ([]*domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Last = q
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// MockEmailSearcher returns a fixed set of email hits
type MockEmailSearcher struct {
	mu      sync.Mutex
	Records []*domain.EmailRecord
	Err     error
	Calls   int
}

func NewMockEmailSearcher(records ...*domain.EmailRecord) *MockEmailSearcher {
	return &MockEmailSearcher{Records: records}
}

func (m *MockEmailSearcher) SearchEmails(ctx context.Context, q domain.SearchQuery) ([]*domain.EmailRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Records, nil
}

// MockEntityExtractor returns a fixed entity list
type MockEntityExtractor struct {
	mu       sync.Mutex
	Entities []domain.Entity
	Err      error
	Calls    int
}

func NewMockEntityExtractor(entities ...domain.Entity) *MockEntityExtractor {
	return &MockEntityExtractor{Entities: entities}
}

func (m *MockEntityExtractor) Extract(ctx context.Context, query string) ([]domain.Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Entities, nil
}
