package ports

import (
	"context"

	"github.com/leadops/dashboard/internal/core/domain"
)

// CreateUserInput carries admin-side account creation data.
type CreateUserInput struct {
	Email       string
	Password    string
	Name        string
	Role        string
	Permissions []string
	Active      *bool
	Meta        domain.RequestMeta
}

// UpdateProfileInput carries a partial profile edit. Nil fields are left as is.
type UpdateProfileInput struct {
	Name        *string
	Email       *string
	Preferences map[string]any
	Role        *string
	Meta        domain.RequestMeta
}

// UpdatePermissionsInput replaces a user's permission list and optionally role.
type UpdatePermissionsInput struct {
	Permissions []string
	Role        *string
	Meta        domain.RequestMeta
}

// ChangePasswordInput carries a password change. CurrentPassword is required
// when the actor changes their own password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
	Meta            domain.RequestMeta
}

// UserService defines user administration use cases. Every method receives the
// acting principal explicitly.
type UserService interface {
	List(ctx context.Context, actor domain.Principal) ([]*domain.User, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.User, error)
	Create(ctx context.Context, actor domain.Principal, in CreateUserInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Principal, id string, in UpdateProfileInput) (*domain.User, error)
	UpdatePermissions(ctx context.Context, actor domain.Principal, id string, in UpdatePermissionsInput) (*domain.User, error)
	ChangePassword(ctx context.Context, actor domain.Principal, id string, in ChangePasswordInput) error
	SetStatus(ctx context.Context, actor domain.Principal, id string, status string, meta domain.RequestMeta) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Principal, id string, meta domain.RequestMeta) error
}
