// Package jwtx verifies the HS256 session tokens minted by the platform's
// identity service. This service never signs tokens itself; it only needs to
// recover the acting admin's id, display name, and scopes from a bearer token.
package jwtx

import (
	"errors"
	"time"
)

var (
	ErrTokenExpired   = errors.New("jwtx: token expired")
	ErrTokenMalformed = errors.New("jwtx: token malformed")
	ErrTokenInvalid   = errors.New("jwtx: token signature or claims invalid")
)

// Claims is the subset of the platform session token this service cares about.
type Claims struct {
	Subject   string   // acting user id
	Name      string   // display name, used as inviter_name in emails
	Scopes    []string // space-delimited "scope" claim, split
	Issuer    string
	ExpiresAt time.Time
}

// ValidateExpiry reports ErrTokenExpired when the token is past its exp claim.
// Tokens without an exp claim are rejected outright.
func (c Claims) ValidateExpiry() error {
	if c.ExpiresAt.IsZero() || time.Now().After(c.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
