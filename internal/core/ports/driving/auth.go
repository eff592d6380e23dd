package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
)

// IssueTokenRequest describes a development token
type IssueTokenRequest struct {
	UserID  string
	YachtID string
	Email   string
	Role    domain.Role
	TTL     time.Duration
}

// AuthService validates bearer tokens
type AuthService interface {
	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)

	// IssueToken mints a signed token for local development and tests
	IssueToken(ctx context.Context, req IssueTokenRequest) (string, error)
}
