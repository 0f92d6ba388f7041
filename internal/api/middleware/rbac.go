package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/core/domain"
)

// RequireRole narrows a group already protected by Auth to principals whose
// role satisfies min.
func RequireRole(min domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := c.Get(handler.PrincipalKey).(domain.Principal)
			if !ok || principal.UserID == "" {
				return domain.ErrUnauthenticated
			}
			if !principal.Role.Satisfies(min) {
				return domain.ErrInsufficientRole
			}
			return next(c)
		}
	}
}
