package handler

import (
	"time"

	"github.com/leadops/dashboard/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"required,max=200"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      *userResponse `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Users ---

type createUserRequest struct {
	Email       string   `json:"email"       validate:"required,email"`
	Password    string   `json:"password"    validate:"required,min=8,max=72"`
	Name        string   `json:"name"        validate:"required,max=200"`
	Role        string   `json:"role"        validate:"omitempty,oneof=admin user"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required,max=100"`
	Active      *bool    `json:"active"`
}

type updateUserRequest struct {
	Name        *string        `json:"name"        validate:"omitempty,min=1,max=200"`
	Email       *string        `json:"email"       validate:"omitempty,email"`
	Preferences map[string]any `json:"preferences"`
	Role        *string        `json:"role"        validate:"omitempty,oneof=admin user"`
}

type updatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,required,max=100"`
	Role        *string  `json:"role"        validate:"omitempty,oneof=admin user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8,max=72"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type userResponse struct {
	ID          string         `json:"id"`
	Email       string         `json:"email"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	Active      bool           `json:"active"`
	Permissions []string       `json:"permissions"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type listUsersResponse struct {
	Items []userResponse `json:"items"`
	Total int            `json:"total"`
}

// --- Audit ---

type auditEventResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	ActorID    string    `json:"actor_id,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Device     string    `json:"device,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type listAuditEventsResponse struct {
	Items []auditEventResponse `json:"items"`
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	perms := u.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Active:      u.Active,
		Permissions: perms,
		Preferences: u.Preferences,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func toAuditEventResponse(e *domain.AuditEvent) auditEventResponse {
	return auditEventResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		ActorID:    e.ActorID,
		TargetID:   e.TargetID,
		Email:      e.Email,
		IP:         e.IP,
		Device:     e.Device,
		Detail:     e.Detail,
		OccurredAt: e.OccurredAt,
	}
}
