package auth

import (
	"errors"
	"fmt"
	"time"

	"callhistory/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is the leeway applied to exp/iat checks.
const clockSkew = 30 * time.Second

// Manager issues and verifies HS256 tokens bound to one device.
type Manager struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return &Manager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

type TokenPair struct {
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

// IssuePair signs an access token carrying role and a refresh token without it.
func (m *Manager) IssuePair(now time.Time, userID, deviceID, role string) (TokenPair, error) {
	access, err := m.sign(now, Claims{UserID: userID, DeviceID: deviceID, Role: role, TokenType: TokenTypeAccess}, m.accessTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := m.sign(now, Claims{UserID: userID, DeviceID: deviceID, TokenType: TokenTypeRefresh}, m.refreshTTL)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}
	return TokenPair{
		AccessToken:     access,
		RefreshToken:    refresh,
		AccessExpiresAt: now.Add(m.accessTTL),
	}, nil
}

// Verify parses tokenString and checks signature, registered claims as of now,
// and that the token is of the expected type with its identity claims set.
func (m *Manager) Verify(tokenString string, expected TokenType, now time.Time) (Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	var claims Claims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return Claims{}, err
	}

	switch {
	case claims.TokenType != expected:
		return Claims{}, errors.New("token_type mismatch")
	case claims.UserID == "":
		return Claims{}, errors.New("user_id missing")
	case claims.DeviceID == "":
		return Claims{}, errors.New("device_id missing")
	case expected == TokenTypeAccess && claims.Role == "":
		return Claims{}, errors.New("role missing in access token")
	}
	return claims, nil
}

func (m *Manager) sign(now time.Time, claims Claims, ttl time.Duration) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}
