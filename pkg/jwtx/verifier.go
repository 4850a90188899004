package jwtx

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a raw bearer token and returns its claims.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// HS256Verifier validates tokens signed with a shared secret by the platform
// session service.
type HS256Verifier struct {
	Secret []byte
	Issuer string // expected iss claim; empty disables the check
}

func NewHS256Verifier(secret []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{Secret: secret, Issuer: issuer}
}

func (v *HS256Verifier) Verify(raw string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return v.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrTokenMalformed
		default:
			return Claims{}, ErrTokenInvalid
		}
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrTokenInvalid
	}

	claims := Claims{}

	if sub, err := mc.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if iss, err := mc.GetIssuer(); err == nil {
		claims.Issuer = iss
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if name, ok := mc["name"].(string); ok {
		claims.Name = name
	}
	if scope, ok := mc["scope"].(string); ok {
		claims.Scopes = strings.Fields(scope)
	}

	if v.Issuer != "" && claims.Issuer != v.Issuer {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return Claims{}, ErrTokenInvalid
	}

	return claims, nil
}
