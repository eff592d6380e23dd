package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/handover-core/internal/core/domain"
	"github.com/custodia-labs/handover-core/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/handover-core/internal/core/ports/driving"
)

func newTestAuthService() (*mocks.MockAuthAdapter, *authService) {
	authAdapter := mocks.NewMockAuthAdapter()
	svc := NewAuthService(authAdapter).(*authService)
	return authAdapter, svc
}

func TestAuthService_IssueAndValidate(t *testing.T) {
	_, svc := newTestAuthService()

	token, err := svc.IssueToken(context.Background(), driving.IssueTokenRequest{
		UserID:  "user-123",
		YachtID: "yacht-9",
		Email:   "chief@example.com",
		Role:    domain.RoleCaptain,
	})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	ac, err := svc.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if ac.UserID != "user-123" {
		t.Errorf("expected user ID user-123, got %s", ac.UserID)
	}
	if ac.YachtID != "yacht-9" {
		t.Errorf("expected yacht ID yacht-9, got %s", ac.YachtID)
	}
	if ac.Role != domain.RoleCaptain {
		t.Errorf("expected role captain, got %s", ac.Role)
	}
}

func TestAuthService_IssueDefaults(t *testing.T) {
	adapter, svc := newTestAuthService()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, err := svc.IssueToken(context.Background(), driving.IssueTokenRequest{UserID: "u", YachtID: "y"})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := adapter.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Role != domain.RoleEngineer {
		t.Errorf("expected default role engineer, got %s", claims.Role)
	}
	if claims.ExpiresAt-claims.IssuedAt != int64(DefaultTokenTTL/time.Second) {
		t.Errorf("expected default ttl, got %ds", claims.ExpiresAt-claims.IssuedAt)
	}
}

func TestAuthService_IssueValidation(t *testing.T) {
	_, svc := newTestAuthService()

	tests := []struct {
		name string
		req  driving.IssueTokenRequest
	}{
		{"missing user", driving.IssueTokenRequest{YachtID: "y"}},
		{"missing yacht", driving.IssueTokenRequest{UserID: "u"}},
		{"unknown role", driving.IssueTokenRequest{UserID: "u", YachtID: "y", Role: "bosun"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.IssueToken(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("IssueToken() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestAuthService_ValidateToken(t *testing.T) {
	adapter, svc := newTestAuthService()
	now := time.Now()

	token := func(c domain.TokenClaims) string {
		s, err := adapter.GenerateToken(&c)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		return s
	}

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty token", "", domain.ErrTokenInvalid},
		{"garbage", "not-a-token", domain.ErrTokenInvalid},
		{
			"expired",
			token(domain.TokenClaims{UserID: "u", YachtID: "y", ExpiresAt: now.Add(-time.Minute).Unix()}),
			domain.ErrTokenExpired,
		},
		{
			"missing yacht",
			token(domain.TokenClaims{UserID: "u", ExpiresAt: now.Add(time.Hour).Unix()}),
			domain.ErrTokenInvalid,
		},
		{
			"valid",
			token(domain.TokenClaims{UserID: "u", YachtID: "y", ExpiresAt: now.Add(time.Hour).Unix()}),
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), tt.token)
			if err != tt.wantErr {
				t.Errorf("ValidateToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
