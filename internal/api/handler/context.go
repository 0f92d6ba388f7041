package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/leadops/dashboard/internal/core/domain"
)

// PrincipalKey is the echo context key under which the Auth middleware stores
// the authenticated domain.Principal.
const PrincipalKey = "principal"

// principalFrom returns the principal injected by the Auth middleware. Its
// absence means a protected handler was mounted without the guard, which is
// reported as unauthenticated rather than served.
func principalFrom(c echo.Context) (domain.Principal, error) {
	p, ok := c.Get(PrincipalKey).(domain.Principal)
	if !ok || p.UserID == "" {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	return p, nil
}

func requestMeta(c echo.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
