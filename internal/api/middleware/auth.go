package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// Auth runs the guard for every request and injects the resulting principal
// into the context. A Bearer token in the Authorization header wins; any other
// header value is ignored and the auth cookie is used instead.
func Auth(guard ports.Guard, cookieName string, min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := extractToken(c, cookieName)
			if err != nil {
				return err
			}

			principal, err := guard.Check(c.Request().Context(), raw, min)
			if err != nil {
				return err
			}

			c.Set(handler.PrincipalKey, principal)
			return next(c)
		}
	}
}

func extractToken(c echo.Context, cookieName string) (string, error) {
	if token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization)); ok {
		return token, nil
	}

	if cookieName != "" {
		if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value, nil
		}
	}
	return "", domain.ErrUnauthenticated
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
