// Package token mints and validates the HS256 access tokens used by the API.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "atrium/pkg/domain"
	dErrors "atrium/pkg/domain-errors"
	authmw "atrium/pkg/platform/middleware/auth"
)

// Claims carries the principal, tenant scope, and role of a session.
type Claims struct {
	PrincipalID string `json:"principal_id"`
	TenantID    string `json:"tenant_id,omitempty"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

// Service signs and validates access tokens. It implements the auth
// middleware's TokenValidator.
type Service struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewService(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     "atrium",
		ttl:        ttl,
	}
}

// TTL returns the configured token lifetime. Revocation entries use it as
// their expiry floor.
func (s *Service) TTL() time.Duration { return s.ttl }

// Generate mints a signed access token for the principal.
func (s *Service) Generate(principalID id.PrincipalID, tenantID id.TenantID, role id.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		PrincipalID: principalID.String(),
		Role:        role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !tenantID.IsNil() {
		claims.TenantID = tenantID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "token signing failed")
	}
	return signed, nil
}

// ValidateToken parses and verifies a token and returns middleware claims.
func (s *Service) ValidateToken(tokenString string) (*authmw.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	principalID, err := id.ParsePrincipalID(claims.PrincipalID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	out := &authmw.Claims{
		PrincipalID: principalID,
		Role:        id.Role(claims.Role),
	}
	if claims.TenantID != "" {
		tenantID, err := id.ParseTenantID(claims.TenantID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		out.TenantID = tenantID
	}
	return out, nil
}
