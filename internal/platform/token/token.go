// Package token issues and validates principal bearer tokens.
//
// Principals are the parties that call this service: issuers registering
// credentials, verifiers consuming proofs, and administrators managing issuer
// trust. The token carries the principal identity and role; verifier identity
// recorded in nullifier ledger entries comes from here.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "zkkyc/pkg/domain-errors"
)

// Role classifies a principal.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleIssuer   Role = "issuer"
	RoleVerifier Role = "verifier"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleIssuer, RoleVerifier:
		return Role(s), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
}

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	ID   string
	Role Role
}

// Claims are the JWT claims for principal tokens.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

// Service handles principal token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewService creates a token service with an HMAC signing key.
func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     "zkkyc",
		ttl:        ttl,
	}
}

// Generate mints a signed token for the given principal.
func (s *Service) Generate(principalID string, role Role, now time.Time) (string, error) {
	if principalID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "principal ID is required")
	}
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// Validate parses and verifies a token, returning the principal it names.
func (s *Service) Validate(tokenString string) (*Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token role")
	}
	return &Principal{ID: claims.Subject, Role: claims.Role}, nil
}
