package driven

import "github.com/custodia-labs/handover-core/internal/core/domain"

// AuthAdapter handles bearer token cryptography.
// Tokens are issued elsewhere; GenerateToken exists for development tooling.
type AuthAdapter interface {
	GenerateToken(claims *domain.TokenClaims) (string, error)
	ParseToken(token string) (*domain.TokenClaims, error)
}
