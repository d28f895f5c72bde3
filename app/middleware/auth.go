package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/auth"
	"github.com/vibast-solutions/ms-go-reservations/app/types"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

type tokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// JWTAuth requires a valid bearer token and stores its subject and role in the
// echo context.
func JWTAuth(tokens tokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			if err := authenticate(c, tokens, raw); err != nil {
				return unauthorized(c, "invalid token")
			}
			return next(c)
		}
	}
}

// OptionalJWT lets anonymous requests through. A token that is present but
// invalid is still rejected.
func OptionalJWT(tokens tokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return next(c)
			}
			if err := authenticate(c, tokens, raw); err != nil {
				return unauthorized(c, "invalid token")
			}
			return next(c)
		}
	}
}

// RequireRole must run after JWTAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			current, _ := c.Get(ContextRole).(string)
			if current != role {
				return c.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "insufficient role", Code: "forbidden"})
			}
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if header == "" {
		return "", false
	}
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

func authenticate(c echo.Context, tokens tokenParser, raw string) error {
	claims, err := tokens.Parse(raw)
	if err != nil {
		return err
	}
	c.Set(ContextUserID, claims.Subject)
	c.Set(ContextRole, claims.Role)
	return nil
}

func unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: message, Code: "unauthorized"})
}
