package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestRoleSatisfies(t *testing.T) {
	cases := []struct {
		have, min Role
		want      bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleUser, true},
		{RoleUser, RoleUser, true},
		{RoleUser, RoleAdmin, false},
		{Role("root"), RoleUser, false},
		{RoleAdmin, Role("root"), false},
		{Role(""), RoleUser, false},
	}
	for _, tc := range cases {
		if got := tc.have.Satisfies(tc.min); got != tc.want {
			t.Errorf("%q.Satisfies(%q) = %v, want %v", tc.have, tc.min, got, tc.want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Admin "); err != nil || r != RoleAdmin {
		t.Fatalf("expected admin, got %q, %v", r, err)
	}
	if _, err := ParseRole("owner"); KindOf(err) != KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPrincipalCanActOn(t *testing.T) {
	user := Principal{UserID: "u-1", Role: RoleUser}
	admin := Principal{UserID: "a-1", Role: RoleAdmin}

	if !user.CanActOn("u-1") {
		t.Fatalf("user must act on self")
	}
	if user.CanActOn("u-2") {
		t.Fatalf("user must not act on others")
	}
	if !admin.CanActOn("u-2") {
		t.Fatalf("admin must act on anyone")
	}
	if (Principal{Role: RoleUser}).CanActOn("") {
		t.Fatalf("anonymous principal must not match an empty id")
	}
}

func TestUserIsActiveAdmin(t *testing.T) {
	var nilUser *User
	if nilUser.IsActiveAdmin() {
		t.Fatalf("nil user is not an admin")
	}
	if (&User{Role: RoleAdmin, Active: false}).IsActiveAdmin() {
		t.Fatalf("inactive admin does not count")
	}
	if !(&User{Role: RoleAdmin, Active: true}).IsActiveAdmin() {
		t.Fatalf("active admin counts")
	}
}

func TestErrorMatching(t *testing.T) {
	wrapped := Wrap(ErrInvalidToken, errors.New("signature is invalid"))
	if !errors.Is(wrapped, ErrInvalidToken) {
		t.Fatalf("wrapped sentinel must match")
	}
	if errors.Is(wrapped, ErrExpiredToken) {
		t.Fatalf("different sentinel of the same kind must not match")
	}
	outer := fmt.Errorf("repo: %w", ErrUserNotFound)
	if KindOf(outer) != KindNotFound {
		t.Fatalf("expected not_found, got %s", KindOf(outer))
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("foreign errors are internal")
	}
	if ErrTooManyAttempts.Kind != KindRateLimited {
		t.Fatalf("unexpected kind for ErrTooManyAttempts")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Fatalf("unexpected %q", got)
	}
}
