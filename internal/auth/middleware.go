package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// UserContextKey holds the authenticated *User in the echo context.
	UserContextKey = "auth.user"
	// ClaimsContextKey holds the verified *Claims in the echo context.
	ClaimsContextKey = "auth.claims"

	bearerPrefix = "Bearer "
)

type AuthMiddleware struct {
	service *Service
	log     *zap.Logger
}

func NewAuthMiddleware(service *Service, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		service: service,
		log:     log,
	}
}

// Authenticate verifies the bearer token as an access token and resolves its
// subject to a user, storing both in the request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) {
			return respondError(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		}

		user, claims, err := m.service.Authenticate(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			if !errors.Is(err, ErrUnauthorized) {
				m.log.Error("authentication lookup failed", zap.Error(err))
				return respondInternal(c)
			}
			return respondError(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
		}

		c.Set(UserContextKey, user)
		c.Set(ClaimsContextKey, claims)
		return next(c)
	}
}

// RequireScope rejects requests whose access token does not carry the scope.
func (m *AuthMiddleware) RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(ClaimsContextKey).(*Claims)
			if !ok {
				return respondError(c, http.StatusUnauthorized, "unauthorized", "could not validate credentials")
			}
			if !claims.HasScope(scope) {
				return respondError(c, http.StatusForbidden, "forbidden", "not enough permissions")
			}
			return next(c)
		}
	}
}

// UserFromContext returns the authenticated user stored by Authenticate.
func UserFromContext(c echo.Context) (*User, error) {
	user, ok := c.Get(UserContextKey).(*User)
	if !ok {
		return nil, errors.New("user not found in context")
	}
	return user, nil
}
