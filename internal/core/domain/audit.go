package domain

import "time"

// AuditEventType names a security-relevant action recorded in the audit trail.
type AuditEventType string

const (
	AuditLoginSucceeded   AuditEventType = "login_succeeded"
	AuditLoginFailed      AuditEventType = "login_failed"
	AuditLogout           AuditEventType = "logout"
	AuditUserRegistered   AuditEventType = "user_registered"
	AuditUserCreated      AuditEventType = "user_created"
	AuditUserUpdated      AuditEventType = "user_updated"
	AuditPermissionsSet   AuditEventType = "permissions_updated"
	AuditPasswordChanged  AuditEventType = "password_changed"
	AuditUserActivated    AuditEventType = "user_activated"
	AuditUserDeactivated  AuditEventType = "user_deactivated"
	AuditUserDeleted      AuditEventType = "user_deleted"
	AuditLastAdminBlocked AuditEventType = "last_admin_blocked"
)

// AuditEvent is an append-only record of who did what to which account.
type AuditEvent struct {
	ID         string         `json:"id"`
	Type       AuditEventType `json:"type"`
	ActorID    string         `json:"actor_id,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	Email      string         `json:"email,omitempty"`
	IP         string         `json:"ip,omitempty"`
	Device     string         `json:"device,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// RequestMeta carries transport details the core records on audit events.
type RequestMeta struct {
	IP        string
	UserAgent string
}
