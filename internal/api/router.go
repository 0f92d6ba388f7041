package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/api/middleware"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
	opshttp "github.com/leadops/dashboard/internal/infrastructure/http"
	"github.com/leadops/dashboard/internal/infrastructure/http/handlers"
)

// Dependencies groups everything the router needs to build handlers.
type Dependencies struct {
	AuthService  ports.AuthService
	UserService  ports.UserService
	AuditService ports.AuditService
	Guard        ports.Guard
	Cookie       handler.CookieConfig
	CORSOrigins  []string
	HealthChecks map[string]handlers.Pinger
	Logger       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(echoprometheus.NewMiddleware("leads"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService, deps.UserService, deps.Cookie)
	userHandler := handler.NewUserHandler(deps.UserService)
	auditHandler := handler.NewAuditHandler(deps.AuditService)

	api := e.Group("/api")

	// --- Public auth routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// --- Authenticated routes ---
	authed := api.Group("", middleware.Auth(deps.Guard, deps.Cookie.Name, domain.RoleUser))
	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/users/:id", userHandler.Get)
	authed.PUT("/users/:id", userHandler.Update)
	authed.PUT("/users/:id/permissions", userHandler.UpdatePermissions)
	authed.PUT("/users/:id/password", userHandler.ChangePassword)

	// --- Admin-only routes ---
	admin := authed.Group("", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.PATCH("/users/:id/status", userHandler.SetStatus)
	admin.DELETE("/users/:id", userHandler.Delete)
	admin.GET("/audit-events", auditHandler.List)

	// --- Health checks, metrics and docs (no auth required) ---
	opshttp.RegisterOps(e, deps.HealthChecks)

	return e
}
