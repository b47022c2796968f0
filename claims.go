package store

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the structured view of a verified session token.
type AuthClaims interface {
	Subject() string
	UserID() string
	UserEmail() string
	Admin() bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. The token embeds
// the subject id, email and admin flag; everything else a handler needs is
// re-read from the credential store on every request.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID     string `json:"uid,omitempty"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// UserEmail returns the email embedded in the token
func (c *JWTClaims) UserEmail() string {
	return c.Email
}

// Admin reports the admin flag captured at issue time
func (c *JWTClaims) Admin() bool {
	return c.IsAdmin
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
