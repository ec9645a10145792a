// Package auth verifies and issues the bearer tokens hub staff use.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/resolvd/internal/ports/primary"
	"github.com/example/resolvd/internal/ports/secondary"
)

// Claims are the resolvd staff token claims. Subject carries the user id.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTVerifier implements secondary.IdentityVerifier for HMAC-signed tokens.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier. An empty secret rejects every token.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses token and returns the staff identity it names. Every failure
// wraps primary.ErrUnauthorized.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*secondary.StaffIdentity, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: token verification is not configured", primary.ErrUnauthorized)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: missing token", primary.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", primary.ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", primary.ErrUnauthorized)
	}

	username := claims.Username
	if username == "" {
		username = claims.Subject
	}
	return &secondary.StaffIdentity{UserID: claims.Subject, Username: username}, nil
}

// Issuer signs staff tokens. It backs `resolvd token issue` and tests.
type Issuer struct {
	secret []byte
	issuer string
	nowFn  func() time.Time
}

// NewIssuer creates an Issuer.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer, nowFn: time.Now}
}

// Issue signs a token for userID valid for ttl.
func (i *Issuer) Issue(userID, username string, ttl time.Duration) (string, error) {
	if len(i.secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	if userID == "" {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	now := i.nowFn()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

var _ secondary.IdentityVerifier = (*JWTVerifier)(nil)
