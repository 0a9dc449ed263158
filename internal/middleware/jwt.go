package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authpkg "github.com/octobees/mapleads/internal/auth"
)

// Keys under which JWT claims are stored on the echo context.
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyUserRole  = "user_role"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	ParseToken(token string) (*authpkg.Claims, error)
}

// JWT validates bearer tokens and stores user metadata in the request context.
func JWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return reject(c, http.StatusUnauthorized, "missing authorization header")
			}
			if msg := authenticate(c, parser); msg != "" {
				return reject(c, http.StatusUnauthorized, msg)
			}
			return next(c)
		}
	}
}

// OptionalJWT lets anonymous requests through. A request that does carry an
// Authorization header must carry a valid token.
func OptionalJWT(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			if msg := authenticate(c, parser); msg != "" {
				return reject(c, http.StatusUnauthorized, msg)
			}
			return next(c)
		}
	}
}

// authenticate stores the bearer token's claims on c. It returns a rejection
// message, or "" on success.
func authenticate(c echo.Context, parser TokenParser) string {
	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "invalid authorization header"
	}

	claims, err := parser.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return "invalid token"
	}

	c.Set(ContextKeyUserID, claims.Subject)
	c.Set(ContextKeyUserEmail, claims.Email)
	c.Set(ContextKeyUserRole, claims.Role)
	return ""
}

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(c echo.Context) string {
	if val, ok := c.Get(ContextKeyUserID).(string); ok {
		return val
	}
	return ""
}
