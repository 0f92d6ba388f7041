package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// userRow is the persisted shape of a user. Role and Active carry no column
// defaults so gorm writes false and "user" explicitly.
type userRow struct {
	ID           string                      `gorm:"type:uuid;primaryKey"`
	Email        string                      `gorm:"type:varchar(320);uniqueIndex;not null"`
	Name         string                      `gorm:"type:varchar(200);not null"`
	PasswordHash string                      `gorm:"column:password_hash;not null"`
	Role         string                      `gorm:"type:varchar(16);not null;index:idx_users_role_active"`
	Active       bool                        `gorm:"not null;index:idx_users_role_active"`
	Permissions  datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	Preferences  datatypes.JSONMap           `gorm:"type:jsonb"`
	CreatedAt    time.Time                   `gorm:"not null"`
	UpdatedAt    time.Time                   `gorm:"not null"`
}

func (userRow) TableName() string { return "users" }

// UserRepository implements ports.UserRepository on PostgreSQL.
type UserRepository struct {
	db   *gorm.DB
	inTx bool
}

// NewUserRepository creates a UserRepository over db.
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id, false)
}

func (r *UserRepository) LockByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findByID(ctx, id, r.inTx)
}

func (r *UserRepository) findByID(ctx context.Context, id string, lock bool) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row userRow
	if err := q.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := r.db.WithContext(ctx).First(&row, "email = ?", domain.NormalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var rows []userRow
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := fromDomain(user)
	row.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := fromDomain(user)

	res := r.db.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", row.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(&row)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrUserNotFound
	}
	return r.GetByID(ctx, row.ID)
}

// Delete hard-deletes the row so the email can be registered again.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrUserNotFound
	}
	res := r.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CountActiveAdmins counts active admins other than excludeID. Inside a
// transaction the matching rows are locked; Postgres refuses FOR UPDATE on an
// aggregate, so the ids are selected and counted here.
func (r *UserRepository) CountActiveAdmins(ctx context.Context, excludeID string) (int64, error) {
	q := r.db.WithContext(ctx).
		Model(&userRow{}).
		Where("role = ? AND active = ?", string(domain.RoleAdmin), true)
	if _, err := uuid.Parse(excludeID); err == nil {
		q = q.Where("id <> ?", excludeID)
	}

	if !r.inTx {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return 0, fmt.Errorf("count admins: %w", err)
		}
		return n, nil
	}

	var ids []string
	if err := q.Order("id").Clauses(clause.Locking{Strength: "UPDATE"}).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("lock admins: %w", err)
	}
	return int64(len(ids)), nil
}

// LockActiveAdmins locks the active admin rows ordered by id, so two
// transactions demoting each other's admins queue instead of deadlocking.
func (r *UserRepository) LockActiveAdmins(ctx context.Context) error {
	if !r.inTx {
		return nil
	}
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&userRow{}).
		Where("role = ? AND active = ?", string(domain.RoleAdmin), true).
		Order("id").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("lock admins: %w", err)
	}
	return nil
}

func (r *UserRepository) RunInTx(ctx context.Context, fn func(repo ports.UserRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UserRepository{db: tx, inTx: true})
	})
}

func fromDomain(u *domain.User) userRow {
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	var prefs datatypes.JSONMap
	if u.Preferences != nil {
		prefs = datatypes.JSONMap(u.Preferences)
	}
	return userRow{
		ID:           u.ID,
		Email:        domain.NormalizeEmail(u.Email),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Active:       u.Active,
		Permissions:  datatypes.JSONSlice[string](perms),
		Preferences:  prefs,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (row *userRow) toDomain() *domain.User {
	perms := []string(row.Permissions)
	if perms == nil {
		perms = []string{}
	}
	var prefs map[string]any
	if row.Preferences != nil {
		prefs = map[string]any(row.Preferences)
	}
	return &domain.User{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		PasswordHash: row.PasswordHash,
		Role:         domain.Role(row.Role),
		Active:       row.Active,
		Permissions:  perms,
		Preferences:  prefs,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
