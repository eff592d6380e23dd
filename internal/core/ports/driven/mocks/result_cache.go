package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Ensure MockResultCache implements ResultCache
var _ driven.ResultCache = (*MockResultCache)(nil)

// MockResultCache stores JSON copies of responses in memory. TTLs are recorded, not enforced.
type MockResultCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	TTLs    map[string]time.Duration
	GetErr  error
}

func NewMockResultCache() *MockResultCache {
	return &MockResultCache{
		entries: make(map[string][]byte),
		TTLs:    make(map[string]time.Duration),
	}
}

func (m *MockResultCache) Get(ctx context.Context, key string) (*domain.AggregateResponse, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	var resp domain.AggregateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (m *MockResultCache) Set(ctx context.Context, key string, resp *domain.AggregateResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	m.TTLs[key] = ttl
	return nil
}

// Len returns the number of cached entries
func (m *MockResultCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
