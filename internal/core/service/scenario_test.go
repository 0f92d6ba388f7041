package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// dashboard wires the auth, user and guard services over one shared store, the
// way main does.
type dashboard struct {
	repo  *stubUserRepo
	auth  *AuthService
	users *UserService
	guard *Guard
}

func newDashboard() *dashboard {
	repo := newStubUserRepo()
	tokens := NewTokenManager(testSecret, time.Hour)
	revocations := newStubRevocations()
	audit := &recordingAudit{}
	return &dashboard{
		repo: repo,
		auth: NewAuthService(repo, tokens, AuthDeps{
			Revocations: revocations,
			Limiter:     newStubLimiter(10),
			Audit:       audit,
		}, zerolog.Nop()),
		users: NewUserService(repo, revocations, audit, zerolog.Nop()),
		guard: NewGuard(tokens, repo, revocations, zerolog.Nop()),
	}
}

// login signs in and runs the resulting token through the guard.
func (d *dashboard) login(t *testing.T, email, password string) (domain.Principal, string) {
	t.Helper()
	res, err := d.auth.Login(context.Background(), ports.LoginInput{Email: email, Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	p, err := d.guard.Check(context.Background(), res.Token, domain.RoleUser)
	if err != nil {
		t.Fatalf("guard rejected fresh token for %s: %v", email, err)
	}
	return p, res.Token
}

func TestScenario_AdminManagesUser(t *testing.T) {
	ctx := context.Background()
	d := newDashboard()
	d.repo.seed(t, "alice@example.com", "alicepass1", domain.RoleAdmin, true)

	alice, _ := d.login(t, "alice@example.com", "alicepass1")

	bobUser, err := d.users.Create(ctx, alice, ports.CreateUserInput{
		Email:    "bob@example.com",
		Password: "bobpass12",
		Name:     "Bob",
		Role:     "user",
	})
	if err != nil {
		t.Fatalf("create bob: %v", err)
	}

	bob, bobToken := d.login(t, "bob@example.com", "bobpass12")
	if bob.Role != domain.RoleUser || bob.UserID != bobUser.ID {
		t.Fatalf("unexpected principal %+v", bob)
	}

	if _, err := d.guard.Check(ctx, bobToken, domain.RoleAdmin); !errors.Is(err, domain.ErrInsufficientRole) {
		t.Fatalf("bob on an admin route: expected ErrInsufficientRole, got %v", err)
	}

	if _, err := d.users.UpdateProfile(ctx, bob, alice.UserID, ports.UpdateProfileInput{Name: strPtr("pwned")}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("bob editing alice: expected ErrForbidden, got %v", err)
	}

	admin := string(domain.RoleAdmin)
	_, err = d.users.UpdatePermissions(ctx, bob, bob.UserID, ports.UpdatePermissionsInput{
		Permissions: []string{"leads:export"},
		Role:        &admin,
	})
	if !errors.Is(err, domain.ErrRestrictedField) {
		t.Fatalf("bob self-promoting: expected ErrRestrictedField, got %v", err)
	}
	if got := d.repo.stored(bob.UserID); got.Role != domain.RoleUser || len(got.Permissions) != 0 {
		t.Fatalf("bob's record changed: %+v", got)
	}

	if err := d.users.Delete(ctx, alice, bob.UserID, domain.RequestMeta{}); err != nil {
		t.Fatalf("alice deleting bob: %v", err)
	}
	if _, err := d.repo.GetByID(ctx, bob.UserID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected bob to be gone, got %v", err)
	}
	if _, err := d.guard.Check(ctx, bobToken, domain.RoleUser); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("deleted user's token: expected ErrUnauthenticated, got %v", err)
	}

	if _, err := d.users.Create(ctx, alice, ports.CreateUserInput{
		Email:    "bob@example.com",
		Password: "bobpass34",
		Name:     "Bob Again",
	}); err != nil {
		t.Fatalf("recreating bob's email: %v", err)
	}
}

func TestScenario_ChangeOwnPassword(t *testing.T) {
	ctx := context.Background()
	d := newDashboard()
	d.repo.seed(t, "bob@example.com", "oldpass12", domain.RoleUser, true)

	bob, _ := d.login(t, "bob@example.com", "oldpass12")

	err := d.users.ChangePassword(ctx, bob, bob.UserID, ports.ChangePasswordInput{
		CurrentPassword: "notmypass",
		NewPassword:     "newpass34",
	})
	if !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	d.login(t, "bob@example.com", "oldpass12")

	if err := d.users.ChangePassword(ctx, bob, bob.UserID, ports.ChangePasswordInput{
		CurrentPassword: "oldpass12",
		NewPassword:     "newpass34",
	}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := d.auth.Login(ctx, ports.LoginInput{Email: "bob@example.com", Password: "oldpass12"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("old password: expected ErrInvalidCredentials, got %v", err)
	}
	d.login(t, "bob@example.com", "newpass34")
}

func TestScenario_SoleAdminIsProtected(t *testing.T) {
	ctx := context.Background()
	d := newDashboard()
	d.repo.seed(t, "alice@example.com", "alicepass1", domain.RoleAdmin, true)
	alice, _ := d.login(t, "alice@example.com", "alicepass1")

	if _, err := d.users.SetStatus(ctx, alice, alice.UserID, "inactive", domain.RequestMeta{}); !errors.Is(err, domain.ErrLastAdminProtected) {
		t.Fatalf("deactivating sole admin: expected ErrLastAdminProtected, got %v", err)
	}

	second := d.repo.seed(t, "carol@example.com", "carolpass1", domain.RoleAdmin, true)
	if _, err := d.users.SetStatus(ctx, alice, second.ID, "inactive", domain.RequestMeta{}); err != nil {
		t.Fatalf("deactivating the second admin: %v", err)
	}
	if _, err := d.users.SetStatus(ctx, alice, second.ID, "active", domain.RequestMeta{}); err != nil {
		t.Fatalf("reactivating the second admin: %v", err)
	}
	if _, err := d.users.SetStatus(ctx, alice, alice.UserID, "inactive", domain.RequestMeta{}); err != nil {
		t.Fatalf("deactivating alice with carol active: %v", err)
	}
}
