package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/leadops/dashboard/internal/api/metrics"
	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

const (
	statusActive   = "active"
	statusInactive = "inactive"
)

// UserService implements user administration with the self-or-admin policy
// and last-admin protection.
type UserService struct {
	repo        ports.UserRepository
	revocations ports.RevocationStore
	audit       ports.AuditRecorder
	log         zerolog.Logger
}

func NewUserService(repo ports.UserRepository, revocations ports.RevocationStore, audit ports.AuditRecorder, log zerolog.Logger) *UserService {
	return &UserService{
		repo:        repo,
		revocations: revocations,
		audit:       recorderOrNop(audit),
		log:         log,
	}
}

// List returns every account. Admin only.
func (s *UserService) List(ctx context.Context, actor domain.Principal) ([]*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrInsufficientRole
	}
	return s.repo.List(ctx)
}

// Get returns a single account to its owner or to an admin.
func (s *UserService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.User, error) {
	if !actor.CanActOn(id) {
		return nil, domain.ErrForbidden
	}
	return s.repo.GetByID(ctx, id)
}

// Create adds an account on behalf of an admin.
func (s *UserService) Create(ctx context.Context, actor domain.Principal, in ports.CreateUserInput) (user *domain.User, err error) {
	ctx, done := s.track(ctx, "create", actor)
	defer func() { done(err) }()

	if !actor.IsAdmin() {
		return nil, domain.ErrInsufficientRole
	}

	email := domain.NormalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, domain.Validation("email, password and name are required")
	}

	role := domain.RoleUser
	if in.Role != "" {
		if role, err = domain.ParseRole(in.Role); err != nil {
			return nil, err
		}
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		Active:       active,
		Permissions:  normalizePermissions(in.Permissions),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(newAuditEvent(domain.AuditUserCreated, actor.UserID, created.ID, created.Email, in.Meta))
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user created")
	return created, nil
}

// UpdateProfile edits name, email, preferences and, for admins, the role.
func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Principal, id string, in ports.UpdateProfileInput) (user *domain.User, err error) {
	ctx, done := s.track(ctx, "update_profile", actor)
	defer func() { done(err) }()

	if !actor.CanActOn(id) {
		return nil, domain.ErrForbidden
	}
	if !actor.IsAdmin() && in.Role != nil {
		return nil, domain.ErrRestrictedField
	}

	var newRole *domain.Role
	if in.Role != nil {
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		newRole = &r
	}

	var name, email *string
	if in.Name != nil {
		n := strings.TrimSpace(*in.Name)
		if n == "" {
			return nil, domain.Validation("name cannot be empty")
		}
		name = &n
	}
	if in.Email != nil {
		e := domain.NormalizeEmail(*in.Email)
		if e == "" {
			return nil, domain.Validation("email cannot be empty")
		}
		email = &e
	}

	err = s.repo.RunInTx(ctx, func(repo ports.UserRepository) error {
		target, err := s.lockTarget(ctx, repo, id, newRole != nil && *newRole != domain.RoleAdmin)
		if err != nil {
			return err
		}
		if newRole != nil {
			if err := s.guardDemotion(ctx, repo, target, *newRole); err != nil {
				return err
			}
			target.Role = *newRole
		}
		if name != nil {
			target.Name = *name
		}
		if email != nil {
			target.Email = *email
		}
		if in.Preferences != nil {
			target.Preferences = in.Preferences
		}
		target.UpdatedAt = time.Now().UTC()

		user, err = repo.Update(ctx, target)
		return err
	})
	if err != nil {
		return nil, s.blocked(err, actor, id, in.Meta)
	}

	s.audit.Record(newAuditEvent(domain.AuditUserUpdated, actor.UserID, user.ID, user.Email, in.Meta))
	return user, nil
}

// UpdatePermissions replaces the permission list and optionally the role.
// Only admins may do this, including on their own account.
func (s *UserService) UpdatePermissions(ctx context.Context, actor domain.Principal, id string, in ports.UpdatePermissionsInput) (user *domain.User, err error) {
	ctx, done := s.track(ctx, "update_permissions", actor)
	defer func() { done(err) }()

	if !actor.CanActOn(id) {
		return nil, domain.ErrForbidden
	}
	if !actor.IsAdmin() {
		return nil, domain.ErrRestrictedField
	}
	if in.Permissions == nil {
		return nil, domain.Validation("permissions is required")
	}

	var newRole *domain.Role
	if in.Role != nil {
		r, err := domain.ParseRole(*in.Role)
		if err != nil {
			return nil, err
		}
		newRole = &r
	}

	err = s.repo.RunInTx(ctx, func(repo ports.UserRepository) error {
		target, err := s.lockTarget(ctx, repo, id, newRole != nil && *newRole != domain.RoleAdmin)
		if err != nil {
			return err
		}
		if newRole != nil {
			if err := s.guardDemotion(ctx, repo, target, *newRole); err != nil {
				return err
			}
			target.Role = *newRole
		}
		target.Permissions = normalizePermissions(in.Permissions)
		target.UpdatedAt = time.Now().UTC()

		user, err = repo.Update(ctx, target)
		return err
	})
	if err != nil {
		return nil, s.blocked(err, actor, id, in.Meta)
	}

	s.audit.Record(newAuditEvent(domain.AuditPermissionsSet, actor.UserID, user.ID, user.Email, in.Meta))
	return user, nil
}

// ChangePassword sets a new password. Changing one's own password requires the
// current one; an admin resetting another account does not.
func (s *UserService) ChangePassword(ctx context.Context, actor domain.Principal, id string, in ports.ChangePasswordInput) (err error) {
	ctx, done := s.track(ctx, "change_password", actor)
	defer func() { done(err) }()

	if !actor.CanActOn(id) {
		return domain.ErrForbidden
	}
	if in.NewPassword == "" {
		return domain.Validation("newPassword is required")
	}

	self := actor.UserID == id
	if self && in.CurrentPassword == "" {
		return domain.Validation("currentPassword is required")
	}

	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if self && !passwordMatches(target.PasswordHash, in.CurrentPassword) {
		return domain.ErrWrongPassword
	}

	hash, err := hashPassword(in.NewPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	target.PasswordHash = hash
	target.UpdatedAt = now
	if _, err := s.repo.Update(ctx, target); err != nil {
		return err
	}

	s.revokeUser(ctx, id, now)
	s.audit.Record(newAuditEvent(domain.AuditPasswordChanged, actor.UserID, id, target.Email, in.Meta))
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", id).Bool("self", self).Msg("password changed")
	return nil
}

// SetStatus activates or deactivates an account. Admin only.
func (s *UserService) SetStatus(ctx context.Context, actor domain.Principal, id string, status string, meta domain.RequestMeta) (user *domain.User, err error) {
	ctx, done := s.track(ctx, "set_status", actor)
	defer func() { done(err) }()

	if !actor.IsAdmin() {
		return nil, domain.ErrInsufficientRole
	}

	var active bool
	switch strings.ToLower(strings.TrimSpace(status)) {
	case statusActive:
		active = true
	case statusInactive:
		active = false
	default:
		return nil, domain.ErrInvalidStatus
	}

	err = s.repo.RunInTx(ctx, func(repo ports.UserRepository) error {
		target, err := s.lockTarget(ctx, repo, id, !active)
		if err != nil {
			return err
		}
		if !active && target.IsActiveAdmin() {
			if err := s.requireOtherActiveAdmin(ctx, repo, target.ID); err != nil {
				return err
			}
		}
		target.Active = active
		target.UpdatedAt = time.Now().UTC()

		user, err = repo.Update(ctx, target)
		return err
	})
	if err != nil {
		return nil, s.blocked(err, actor, id, meta)
	}

	kind := domain.AuditUserActivated
	if !active {
		kind = domain.AuditUserDeactivated
		s.revokeUser(ctx, id, time.Now().UTC())
	}
	s.audit.Record(newAuditEvent(kind, actor.UserID, user.ID, user.Email, meta))
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", id).Bool("active", active).Msg("user status changed")
	return user, nil
}

// Delete removes an account permanently. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor domain.Principal, id string, meta domain.RequestMeta) (err error) {
	ctx, done := s.track(ctx, "delete", actor)
	defer func() { done(err) }()

	if !actor.IsAdmin() {
		return domain.ErrInsufficientRole
	}
	if actor.UserID == id {
		return domain.ErrSelfDeletion
	}

	var email string
	err = s.repo.RunInTx(ctx, func(repo ports.UserRepository) error {
		target, err := s.lockTarget(ctx, repo, id, true)
		if err != nil {
			return err
		}
		if target.Role == domain.RoleAdmin {
			if err := s.requireOtherActiveAdmin(ctx, repo, target.ID); err != nil {
				return err
			}
		}
		email = target.Email
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return s.blocked(err, actor, id, meta)
	}

	s.revokeUser(ctx, id, time.Now().UTC())
	s.audit.Record(newAuditEvent(domain.AuditUserDeleted, actor.UserID, id, email, meta))
	s.log.Info().Str("actor_id", actor.UserID).Str("user_id", id).Msg("user deleted")
	return nil
}

// EnsureBootstrapAdmin guarantees an active admin exists at startup. When none
// does, the account for email is created, or promoted and activated if present.
func (s *UserService) EnsureBootstrapAdmin(ctx context.Context, email, password, name string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.Validation("bootstrap admin email and password are required")
	}
	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}

	return s.repo.RunInTx(ctx, func(repo ports.UserRepository) error {
		n, err := repo.CountActiveAdmins(ctx, "")
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		now := time.Now().UTC()
		existing, err := repo.GetByEmail(ctx, email)
		switch {
		case err == nil:
			existing.Role = domain.RoleAdmin
			existing.Active = true
			existing.UpdatedAt = now
			if _, err := repo.Update(ctx, existing); err != nil {
				return err
			}
			s.log.Warn().Str("user_id", existing.ID).Msg("no active admin found, promoted bootstrap account")
			return nil
		case errors.Is(err, domain.ErrUserNotFound):
			hash, err := hashPassword(password)
			if err != nil {
				return err
			}
			created, err := repo.Create(ctx, &domain.User{
				Email:        email,
				Name:         strings.TrimSpace(name),
				PasswordHash: hash,
				Role:         domain.RoleAdmin,
				Active:       true,
				Permissions:  []string{},
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if err != nil {
				return err
			}
			s.log.Warn().Str("user_id", created.ID).Msg("no active admin found, created bootstrap admin")
			return nil
		default:
			return err
		}
	})
}

// lockTarget row-locks the user being changed. When the change can remove an
// admin, the admin rows are locked first so every such transaction takes its
// locks in the same order.
func (s *UserService) lockTarget(ctx context.Context, repo ports.UserRepository, id string, removesAdmin bool) (*domain.User, error) {
	if removesAdmin {
		if err := repo.LockActiveAdmins(ctx); err != nil {
			return nil, err
		}
	}
	return repo.LockByID(ctx, id)
}

// guardDemotion blocks taking the admin role away from the last active admin.
func (s *UserService) guardDemotion(ctx context.Context, repo ports.UserRepository, target *domain.User, next domain.Role) error {
	if target.IsActiveAdmin() && next != domain.RoleAdmin {
		return s.requireOtherActiveAdmin(ctx, repo, target.ID)
	}
	return nil
}

func (s *UserService) requireOtherActiveAdmin(ctx context.Context, repo ports.UserRepository, excludeID string) error {
	n, err := repo.CountActiveAdmins(ctx, excludeID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrLastAdminProtected
	}
	return nil
}

// blocked records last-admin refusals before handing err back.
func (s *UserService) blocked(err error, actor domain.Principal, targetID string, meta domain.RequestMeta) error {
	if errors.Is(err, domain.ErrLastAdminProtected) {
		metrics.LastAdminBlockedTotal.Inc()
		s.audit.Record(newAuditEvent(domain.AuditLastAdminBlocked, actor.UserID, targetID, "", meta))
		s.log.Warn().Str("actor_id", actor.UserID).Str("user_id", targetID).Msg("last admin protection triggered")
	}
	return err
}

func (s *UserService) revokeUser(ctx context.Context, id string, at time.Time) {
	if s.revocations == nil {
		return
	}
	if err := s.revocations.RevokeUser(ctx, id, at); err != nil {
		s.log.Warn().Err(err).Str("user_id", id).Msg("failed to revoke user tokens")
	}
}

// track opens a span for a mutation and returns the closer that records its
// outcome in metrics.
func (s *UserService) track(ctx context.Context, op string, actor domain.Principal) (context.Context, func(error)) {
	ctx, span := tracer.Start(ctx, "users."+op)
	span.SetAttributes(attribute.String("auth.actor_id", actor.UserID))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = string(domain.KindOf(err))
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.UserMutationsTotal.WithLabelValues(op, result).Inc()
		span.End()
	}
}

// normalizePermissions trims, drops empties and de-duplicates while keeping order.
func normalizePermissions(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
