package domain

// Role is the crew role carried in a bearer token
type Role string

const (
	RoleEngineer Role = "engineer"
	RoleCaptain  Role = "captain"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known crew role
func (r Role) Valid() bool {
	switch r {
	case RoleEngineer, RoleCaptain, RoleAdmin:
		return true
	}
	return false
}

// AuthContext contains authenticated user info for request context
type AuthContext struct {
	UserID  string `json:"user_id"`
	YachtID string `json:"yacht_id"`
	Email   string `json:"email"`
	Role    Role   `json:"role"`
}


// TokenClaims represents the JWT token payload
type TokenClaims struct {
	UserID    string `json:"user_id"`
	YachtID   string `json:"yacht_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
