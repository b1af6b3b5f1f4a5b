// Package auth – session tokens
//
// Sessions are carried in a signed JWT (HS256) holding the session ID and
// the principal's UID. Signing keeps the cookie tamper-proof; the token is
// also how a session survives a process restart (see Manager.Resolve).
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every way a presented token can be unusable:
// malformed, bad signature, expired, or missing claims.
var ErrInvalidToken = errors.New("invalid session token")

// TokenIssuer signs and verifies session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer with the given HMAC secret and token
// lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// sessionClaims are the JWT claims carried by a session token.
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Issue signs a token binding sessionID to uid.
func (t *TokenIssuer) Issue(sessionID, uid string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses and validates a token, returning (sessionID, uid).
func (t *TokenIssuer) Verify(token string) (sessionID, uid string, err error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", "", ErrInvalidToken
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.SessionID, claims.Subject, nil
}
