package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// DeviceID names the device whose call history the bearer may read; it is always present.
// Role-based checks live in internal/rbac.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	DeviceID  string    `json:"device_id"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
