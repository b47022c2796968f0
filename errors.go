package store

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// ErrIdentityNotFound is returned for identifiers that resolve to no user.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithTextCode("IDENTITY_NOT_FOUND")

// ErrMismatchedHashAndPassword is the uniform bad-credentials error. Unknown
// user and wrong password intentionally look the same to the caller.
var ErrMismatchedHashAndPassword = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode("INVALID_CREDENTIALS")

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD")

// ErrTooManyLoginAttempts is returned while an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode("TOO_MANY_ATTEMPTS")

// ErrInactiveUser blocks authentication for deactivated accounts.
var ErrInactiveUser = errors.New("inactive user", errors.CategoryAuth).
	WithTextCode("INACTIVE_USER")

// ErrAdminRequired guards admin-only operations.
var ErrAdminRequired = errors.New("insufficient permissions", errors.CategoryAuthz).
	WithTextCode("ADMIN_REQUIRED")

// ErrTokenExpired marks a token past its expiry. It shares the auth category
// with ErrTokenMalformed so the transport answer is identical for both; the
// split exists only for logs.
var ErrTokenExpired = errors.New("invalid authorization token", errors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED")

// ErrTokenMalformed covers every structural or signature problem with a token.
var ErrTokenMalformed = errors.New("invalid authorization token", errors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED")

// ErrUnableToFindSession is returned when a request carries no token at all.
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithTextCode("SESSION_NOT_FOUND")

// ErrUnableToDecodeSession is returned when claims cannot be read back.
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithTextCode("SESSION_DECODE")

// ErrEmptyCart rejects checkout over a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty", errors.CategoryValidation).
	WithTextCode("EMPTY_CART")

// ErrOrderLocked rejects mutation or cancellation of shipped/delivered orders.
var ErrOrderLocked = errors.New("shipped or delivered orders cannot be changed", errors.CategoryValidation).
	WithTextCode("ORDER_LOCKED")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
