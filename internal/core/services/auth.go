package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

// DefaultTokenTTL is the lifetime of an issued token when none is requested
const DefaultTokenTTL = 24 * time.Hour

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		authAdapter: authAdapter,
		now:         time.Now,
	}
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	// Parse and validate JWT
	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, err
		}
		return nil, domain.ErrTokenInvalid
	}

	// Check expiration
	if claims.ExpiresAt != 0 && s.now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}

	// Handovers are keyed by user and yacht, both must be present
	if claims.UserID == "" || claims.YachtID == "" {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		UserID:  claims.UserID,
		YachtID: claims.YachtID,
		Email:   claims.Email,
		Role:    claims.Role,
	}, nil
}

// IssueToken mints a token for local development and tests
func (s *authService) IssueToken(ctx context.Context, req driving.IssueTokenRequest) (string, error) {
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.YachtID) == "" {
		return "", fmt.Errorf("%w: user and yacht are required", domain.ErrInvalidInput)
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	role := req.Role
	if role == "" {
		role = domain.RoleEngineer
	}
	if !role.Valid() {
		return "", fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	now := s.now()
	return s.authAdapter.GenerateToken(&domain.TokenClaims{
		UserID:    req.UserID,
		YachtID:   req.YachtID,
		Email:     req.Email,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
}
