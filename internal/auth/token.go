// Package auth issues and verifies the HMAC-signed JWTs carried by staff
// sessions, and provides the middleware enforcing them.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims issued at login.
type Claims struct {
	StaffID  int64  `json:"staff_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and parses session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager. It panics on an empty secret so a
// misconfigured deployment fails at startup rather than issuing forgeable
// tokens.
func NewManager(secret string, ttl time.Duration) *Manager {
	if secret == "" {
		panic("auth: jwt secret required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the staff member.
func (m *Manager) Issue(staffID int64, username, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		StaffID:  staffID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", staffID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry and returns the claims.
func (m *Manager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}
