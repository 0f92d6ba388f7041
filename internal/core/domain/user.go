package domain

import (
	"strings"
	"time"
)

// Role gates route access. Only the constants below are valid roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a raw string into a Role, rejecting anything outside the
// closed set.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", Validation("role must be one of: admin, user")
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// Satisfies reports whether a principal holding r may access a route that
// requires min. Unknown roles never satisfy anything.
func (r Role) Satisfies(min Role) bool {
	switch r {
	case RoleAdmin:
		return min == RoleAdmin || min == RoleUser
	case RoleUser:
		return min == RoleUser
	default:
		return false
	}
}

// User models a staff account of the dashboard.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Role         Role           `json:"role"`
	Active       bool           `json:"active"`
	Permissions  []string       `json:"permissions"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsActiveAdmin reports whether u counts towards the active admin quorum.
func (u *User) IsActiveAdmin() bool {
	return u != nil && u.Role == RoleAdmin && u.Active
}

// NormalizeEmail lower-cases and trims an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Principal is the authenticated identity attached to a request after the
// guard has accepted it.
type Principal struct {
	UserID    string
	Email     string
	Role      Role
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanActOn implements the self-or-admin rule for operations targeting a
// specific account.
func (p Principal) CanActOn(targetID string) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == targetID)
}
