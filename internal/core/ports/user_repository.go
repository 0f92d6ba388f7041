package ports

import (
	"context"

	"github.com/leadops/dashboard/internal/core/domain"
)

// UserRepository defines the persistence contract for staff accounts.
// Lookups return domain.ErrUserNotFound when no row matches and Create/Update
// return domain.ErrUserExists on a duplicate email.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error

	// LockByID loads a user and holds a row lock until the surrounding
	// transaction ends. Outside RunInTx it behaves like GetByID.
	LockByID(ctx context.Context, id string) (*domain.User, error)

	// CountActiveAdmins counts active admins other than excludeID, locking the
	// counted rows when called inside RunInTx.
	CountActiveAdmins(ctx context.Context, excludeID string) (int64, error)

	// LockActiveAdmins locks every active admin row in id order. Inside
	// RunInTx it must precede LockByID in any operation that can remove an
	// admin, so concurrent transactions acquire locks in the same order.
	// Outside RunInTx it is a no-op.
	LockActiveAdmins(ctx context.Context) error

	// RunInTx executes fn against a repository bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	RunInTx(ctx context.Context, fn func(repo UserRepository) error) error
}
