package service

import (
	"context"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}

func recorderOrNop(r ports.AuditRecorder) ports.AuditRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func newAuditEvent(kind domain.AuditEventType, actorID, targetID, email string, meta domain.RequestMeta) domain.AuditEvent {
	return domain.AuditEvent{
		Type:       kind,
		ActorID:    actorID,
		TargetID:   targetID,
		Email:      email,
		IP:         meta.IP,
		Device:     deviceLabel(meta.UserAgent),
		OccurredAt: time.Now().UTC(),
	}
}

// deviceLabel turns a User-Agent header into "Browser on OS".
func deviceLabel(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ""
	}
	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	os := parsed.OS()
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}

// AuditService serves the audit trail to administrators.
type AuditService struct {
	repo ports.AuditRepository
}

func NewAuditService(repo ports.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns the most recent audit events, newest first.
func (s *AuditService) List(ctx context.Context, actor domain.Principal, filter ports.AuditFilter) ([]*domain.AuditEvent, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrInsufficientRole
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}
	return s.repo.List(ctx, filter)
}
