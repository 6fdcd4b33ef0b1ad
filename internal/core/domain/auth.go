package domain

// Role is the permission level carried by an admin token
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// AuthContext contains the authenticated caller for request context
type AuthContext struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
}

// IsAdmin checks if the caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
