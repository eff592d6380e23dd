package mocks

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
)

// Ensure MockAuthAdapter implements AuthAdapter
var _ driven.AuthAdapter = (*MockAuthAdapter)(nil)

// MockAuthAdapter issues opaque tokens backed by an in-memory claims table.
// Expiry is left to the caller, as with the JWT adapter.
type MockAuthAdapter struct {
	mu     sync.Mutex
	tokens map[string]domain.TokenClaims
	seq    int
}

// NewMockAuthAdapter creates a new MockAuthAdapter
func NewMockAuthAdapter() *MockAuthAdapter {
	return &MockAuthAdapter{tokens: make(map[string]domain.TokenClaims)}
}

// GenerateToken stores the claims under a new token
func (m *MockAuthAdapter) GenerateToken(claims *domain.TokenClaims) (string, error) {
	if claims == nil {
		return "", fmt.Errorf("%w: nil claims", domain.ErrInvalidInput)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	token := fmt.Sprintf("mock-token-%d", m.seq)
	m.tokens[token] = *claims
	return token, nil
}

// ParseToken returns a copy of the claims stored for token
func (m *MockAuthAdapter) ParseToken(token string) (*domain.TokenClaims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	claims, ok := m.tokens[token]
	if !ok {
		return nil, domain.ErrTokenInvalid
	}
	return &claims, nil
}

// Issued returns the number of tokens generated so far
func (m *MockAuthAdapter) Issued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq
}
