// Package token issues and verifies the signed session tokens that carry a
// caller's identity between requests. Tokens are stateless: the signature is
// the sole proof of identity and verification never consults the user store.
package token

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails verification:
// malformed, signed with a different secret, expired, or missing a subject.
// Callers get no finer detail than this.
var ErrInvalidToken = errors.New("invalid token")

// Codec signs and verifies session tokens with a fixed process-wide secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed token binding the given username. Each call embeds
// a fresh token ID and issue time, so tokens for the same username differ in
// bytes but verify to the same identity.
func (c *Codec) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify decodes a token and returns the username it binds. Any failure is
// reported as ErrInvalidToken.
func (c *Codec) Verify(raw string) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	username := strings.TrimSpace(claims.Subject)
	if username == "" {
		return "", ErrInvalidToken
	}
	return username, nil
}
