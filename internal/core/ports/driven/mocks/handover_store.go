package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Ensure MockHandoverStore implements HandoverStore
var _ driven.HandoverStore = (*MockHandoverStore)(nil)

// MockHandoverStore is an in-memory HandoverStore with upsert semantics
type MockHandoverStore struct {
	mu      sync.RWMutex
	records map[domain.HandoverKey]*domain.HandoverRecord
	seq     int

	// Now is the clock used for timestamps
	Now func() time.Time

	// UpsertErr, when set, fails every Upsert
	UpsertErr error
	// PingErr is returned by Ping
	PingErr error

	// Writes counts Upsert calls that reached the map
	Writes int
}

// NewMockHandoverStore creates a new MockHandoverStore
func NewMockHandoverStore() *MockHandoverStore {
	return &MockHandoverStore{
		records: make(map[domain.HandoverKey]*domain.HandoverRecord),
		Now:     time.Now,
	}
}

func (m *MockHandoverStore) Upsert(ctx context.Context, record *domain.HandoverRecord) (*domain.HandoverRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpsertErr != nil {
		return nil, m.UpsertErr
	}

	now := m.Now().UTC()
	stored := *record
	stored.AutoFilledFields = append([]string{}, record.AutoFilledFields...)

	if existing, ok := m.records[record.Key()]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		m.seq++
		stored.ID = fmt.Sprintf("handover-%d", m.seq)
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	m.records[record.Key()] = &stored
	m.Writes++

	out := stored
	return &out, nil
}

func (m *MockHandoverStore) Get(ctx context.Context, key domain.HandoverKey) (*domain.HandoverRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *record
	return &out, nil
}

func (m *MockHandoverStore) ListByUser(ctx context.Context, userID, yachtID string, limit int) ([]*domain.HandoverRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.HandoverRecord
	for _, r := range m.records {
		if r.UserID == userID && r.YachtID == yachtID {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockHandoverStore) Ping(ctx context.Context) error {
	return m.PingErr
}

// Count returns the number of stored rows
func (m *MockHandoverStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
