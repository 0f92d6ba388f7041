package ports

import (
	"context"

	"github.com/leadops/dashboard/internal/core/domain"
)

// AuditRepository persists and queries audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	List(ctx context.Context, filter AuditFilter) ([]*domain.AuditEvent, error)
}

// AuditFilter narrows an audit listing. An empty UserID matches every event.
type AuditFilter struct {
	UserID string
	Limit  int
}

// AuditRecorder accepts audit events for asynchronous persistence.
// Record must not block the request path.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditService exposes the audit trail to administrators.
type AuditService interface {
	List(ctx context.Context, actor domain.Principal, filter AuditFilter) ([]*domain.AuditEvent, error)
}
