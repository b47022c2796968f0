package store

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

const (
	// ClaimsContextKey is where RequireAuth stores the verified claims.
	ClaimsContextKey = "claims"
	// IdentityContextKey is where RequireAuth stores the resolved identity.
	IdentityContextKey = "identity"
	// BearerScheme prefixes both the Authorization header and the cookie value.
	BearerScheme = "Bearer"
)

// RouteAuthenticator wires session handling into fiber: it issues the session
// cookie on login, resolves tokens from header or cookie, and guards routes.
type RouteAuthenticator struct {
	auth           Authenticator
	cfg            Config
	cookieDuration time.Duration
	Logger         Logger
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := 30 * time.Minute
	if cfg.GetTokenExpiration() > 0 {
		cookieDuration = time.Duration(cfg.GetTokenExpiration()) * time.Minute
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	return a, nil
}

func (a *RouteAuthenticator) WithLogger(l Logger) *RouteAuthenticator {
	if l != nil {
		a.Logger = l
	}
	return a
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

// Login authenticates the credentials and sets the session cookie. The token
// is also returned so API clients can use the Authorization header instead.
func (a *RouteAuthenticator) Login(c *fiber.Ctx, identifier, password string) (string, error) {
	token, err := a.auth.Login(c.UserContext(), identifier, password)
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	a.setCookieToken(c, token, a.cookieDuration)
	return token, nil
}

// Logout clears the session cookie. The token itself stays valid until its
// expiry; there is no server side revocation list.
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) {
	a.cookieDel(c, a.cfg.GetCookieName())
}

// TokenFromRequest resolves the raw token, header first, cookie second. Both
// carry the Bearer prefix; the cookie keeps it so the value round-trips
// through clients that replay it as a header.
func (a *RouteAuthenticator) TokenFromRequest(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if token, ok := stripBearer(header); ok {
		return token, nil
	}

	cookie := c.Cookies(a.cfg.GetCookieName())
	if token, ok := stripBearer(cookie); ok {
		return token, nil
	}
	if cookie != "" {
		return cookie, nil
	}

	return "", ErrUnableToFindSession
}

// RequireAuth validates the session and loads the principal behind it. The
// user is re-read from the credential store on every request, so a token
// issued before a deactivation stops working immediately.
func (a *RouteAuthenticator) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := a.TokenFromRequest(c)
		if err != nil {
			return err
		}

		claims, err := a.auth.ClaimsFromToken(token)
		if err != nil {
			return err
		}

		identity, err := a.auth.IdentityFromClaims(c.UserContext(), claims)
		if err != nil {
			if errors.IsNotFound(err) {
				return ErrIdentityNotFound
			}
			return err
		}

		c.Locals(ClaimsContextKey, claims)
		c.Locals(IdentityContextKey, identity)

		return c.Next()
	}
}

// RequireAdmin guards admin-only routes. It runs after RequireAuth and
// answers 403, not 404, so admins misconfiguring clients see the real cause.
func (a *RouteAuthenticator) RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := IdentityFromContext(c)
		if err != nil {
			return err
		}

		if !identity.IsAdmin() {
			return ErrAdminRequired
		}

		return c.Next()
	}
}

// ClaimsFromContext returns the verified claims stored by RequireAuth.
func ClaimsFromContext(c *fiber.Ctx) (AuthClaims, error) {
	claims, ok := c.Locals(ClaimsContextKey).(AuthClaims)
	if !ok || claims == nil {
		return nil, ErrUnableToFindSession
	}
	return claims, nil
}

// IdentityFromContext returns the identity stored by RequireAuth.
func IdentityFromContext(c *fiber.Ctx) (Identity, error) {
	identity, ok := c.Locals(IdentityContextKey).(Identity)
	if !ok || identity == nil {
		return nil, ErrUnableToFindSession
	}
	return identity, nil
}

// UserIDFromContext returns the authenticated user's id.
func UserIDFromContext(c *fiber.Ctx) (uuid.UUID, error) {
	identity, err := IdentityFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(identity.ID())
	if err != nil {
		return uuid.Nil, ErrUnableToDecodeSession
	}

	return id, nil
}

func (a *RouteAuthenticator) setCookieToken(c *fiber.Ctx, token string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetCookieName(),
		Value:    BearerScheme + " " + token,
		Expires:  time.Now().Add(duration),
		MaxAge:   int(duration.Seconds()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func stripBearer(value string) (string, bool) {
	if len(value) > len(BearerScheme)+1 && strings.EqualFold(value[:len(BearerScheme)], BearerScheme) {
		return strings.TrimSpace(value[len(BearerScheme):]), true
	}
	return "", false
}

// ErrorHandler is the central fiber error handler. It maps error categories
// onto HTTP statuses and answers a uniform JSON envelope.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"message": fiberErr.Message,
				},
			})
		}

		var richErr *errors.Error
		if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
				WithCode(errors.CodeInternal)
		}

		status := statusFromError(richErr)

		if status >= http.StatusInternalServerError {
			logger.Error(
				"request failed",
				"error", richErr.Message,
				"category", richErr.Category,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		} else {
			logger.Debug(
				"request rejected",
				"error", richErr.Message,
				"category", richErr.Category,
				"status", status,
			)
		}

		body := fiber.Map{
			"message": richErr.Message,
		}
		if richErr.TextCode != "" {
			body["text_code"] = richErr.TextCode
		}

		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}

func statusFromError(richErr *errors.Error) int {
	if richErr.Code >= http.StatusBadRequest {
		return richErr.Code
	}

	switch richErr.Category {
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusBadRequest
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
