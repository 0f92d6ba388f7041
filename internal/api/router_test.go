package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
	"github.com/leadops/dashboard/internal/infrastructure/http/handlers"
)

// tokenGuard resolves fixed tokens to principals.
type tokenGuard map[string]domain.Principal

func (g tokenGuard) Check(_ context.Context, raw string, min domain.Role) (domain.Principal, error) {
	p, ok := g[raw]
	if !ok {
		return domain.Principal{}, domain.ErrUnauthenticated
	}
	if !p.Role.Satisfies(min) {
		return domain.Principal{}, domain.ErrInsufficientRole
	}
	return p, nil
}

type routerAuthService struct{}

func (routerAuthService) Register(context.Context, ports.RegisterInput) (*ports.AuthResult, error) {
	return nil, domain.ErrUserExists
}

func (routerAuthService) Login(_ context.Context, in ports.LoginInput) (*ports.AuthResult, error) {
	return nil, domain.ErrInvalidCredentials
}

func (routerAuthService) Logout(context.Context, domain.Principal, domain.RequestMeta) error {
	return nil
}

type routerUserService struct{ ports.UserService }

func (routerUserService) List(context.Context, domain.Principal) ([]*domain.User, error) {
	return []*domain.User{}, nil
}

func (routerUserService) Get(_ context.Context, actor domain.Principal, id string) (*domain.User, error) {
	if !actor.CanActOn(id) {
		return nil, domain.ErrForbidden
	}
	return &domain.User{ID: id, Role: actor.Role, Active: true}, nil
}

type routerAuditService struct{}

func (routerAuditService) List(context.Context, domain.Principal, ports.AuditFilter) ([]*domain.AuditEvent, error) {
	return nil, nil
}

// The Prometheus middleware registers global collectors, so a single router
// is shared across subtests.
func TestRouter(t *testing.T) {
	e := NewRouter(Dependencies{
		AuthService:  routerAuthService{},
		UserService:  routerUserService{},
		AuditService: routerAuditService{},
		Guard: tokenGuard{
			"admin-token": {UserID: "a-1", Role: domain.RoleAdmin, TokenID: "jti-a"},
			"user-token":  {UserID: "u-1", Role: domain.RoleUser, TokenID: "jti-u"},
		},
		Cookie:      handler.CookieConfig{Name: "auth_token", MaxAge: time.Hour},
		CORSOrigins: []string{"http://localhost:3000"},
		HealthChecks: map[string]handlers.Pinger{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: connection refused") },
		},
		Logger: zerolog.Nop(),
	})

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		if token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		want   int
	}{
		{"login with bad payload", http.MethodPost, "/api/auth/login", "", `{"email":"x"}`, http.StatusBadRequest},
		{"login with wrong credentials", http.MethodPost, "/api/auth/login", "", `{"email":"ana@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"register duplicate", http.MethodPost, "/api/auth/register", "", `{"email":"ana@example.com","password":"pass1234","name":"Ana"}`, http.StatusConflict},
		{"me without token", http.MethodGet, "/api/auth/me", "", "", http.StatusUnauthorized},
		{"me with unknown token", http.MethodGet, "/api/auth/me", "forged", "", http.StatusUnauthorized},
		{"me as user", http.MethodGet, "/api/auth/me", "user-token", "", http.StatusOK},
		{"own profile", http.MethodGet, "/api/users/u-1", "user-token", "", http.StatusOK},
		{"other profile as user", http.MethodGet, "/api/users/u-2", "user-token", "", http.StatusForbidden},
		{"other profile as admin", http.MethodGet, "/api/users/u-2", "admin-token", "", http.StatusOK},
		{"list users as user", http.MethodGet, "/api/users", "user-token", "", http.StatusForbidden},
		{"list users as admin", http.MethodGet, "/api/users", "admin-token", "", http.StatusOK},
		{"delete as user", http.MethodDelete, "/api/users/u-2", "user-token", "", http.StatusForbidden},
		{"audit as user", http.MethodGet, "/api/audit-events", "user-token", "", http.StatusForbidden},
		{"audit as admin", http.MethodGet, "/api/audit-events", "admin-token", "", http.StatusOK},
		{"logout", http.MethodPost, "/api/auth/logout", "user-token", "", http.StatusOK},
		{"liveness", http.MethodGet, "/health", "", "", http.StatusOK},
		{"readiness degraded", http.MethodGet, "/health/ready", "", "", http.StatusServiceUnavailable},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("%s %s: expected %d, got %d (%s)", tt.method, tt.path, tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	t.Run("cookie session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "admin-token"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("error envelope", func(t *testing.T) {
		rec := do(http.MethodGet, "/api/users", "user-token", "")
		if got := strings.TrimSpace(rec.Body.String()); got != `{"error":"insufficient role"}` {
			t.Fatalf("unexpected body %s", got)
		}
	})

	t.Run("request id", func(t *testing.T) {
		rec := do(http.MethodGet, "/health", "", "")
		if rec.Header().Get(echo.HeaderXRequestID) == "" {
			t.Fatalf("expected a request id header")
		}
	})
}
