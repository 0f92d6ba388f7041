package ports

import (
	"context"
	"time"

	"github.com/leadops/dashboard/internal/core/domain"
)

// RegisterInput carries self-service registration data.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Meta     domain.RequestMeta
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string
	Password string
	Meta     domain.RequestMeta
}

// AuthResult is returned after a successful login or registration.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// AuthService covers session issuance and teardown.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, in LoginInput) (*AuthResult, error)
	Logout(ctx context.Context, principal domain.Principal, meta domain.RequestMeta) error
}

// Guard authenticates a raw token and checks it against a minimum role.
// The returned error is always a *domain.Error of kind authentication or
// authorization when the request is rejected.
type Guard interface {
	Check(ctx context.Context, rawToken string, min domain.Role) (domain.Principal, error)
}
