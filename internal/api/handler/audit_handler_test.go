package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

type stubAuditService struct {
	got    ports.AuditFilter
	events []*domain.AuditEvent
}

func (s *stubAuditService) List(_ context.Context, _ domain.Principal, f ports.AuditFilter) ([]*domain.AuditEvent, error) {
	s.got = f
	return s.events, nil
}

func TestAuditHandler_List(t *testing.T) {
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	svc := &stubAuditService{events: []*domain.AuditEvent{
		{ID: "e-1", Type: domain.AuditLoginSucceeded, ActorID: "u-1", TargetID: "u-1", Device: "Firefox on Linux", OccurredAt: at},
	}}
	h := NewAuditHandler(svc)
	c, rec := newUserContext(httptest.NewRequest(http.MethodGet, "/api/audit-events?user_id=u-1&limit=10", nil), adminPrincipal, "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if svc.got.UserID != "u-1" || svc.got.Limit != 10 {
		t.Fatalf("unexpected filter: %+v", svc.got)
	}

	var body listAuditEventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Type != string(domain.AuditLoginSucceeded) || !body.Items[0].OccurredAt.Equal(at) {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestAuditHandler_List_BadLimit(t *testing.T) {
	h := NewAuditHandler(&stubAuditService{})

	for _, q := range []string{"limit=abc", "limit=0", "limit=-5"} {
		c, _ := newUserContext(httptest.NewRequest(http.MethodGet, "/api/audit-events?"+q, nil), adminPrincipal, "")
		if err := h.List(c); domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", q, err)
		}
	}
}

func TestAuditHandler_List_EmptyIsArray(t *testing.T) {
	h := NewAuditHandler(&stubAuditService{})
	c, rec := newUserContext(httptest.NewRequest(http.MethodGet, "/api/audit-events", nil), adminPrincipal, "")

	if err := h.List(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if got := rec.Body.String(); got != "{\"items\":[]}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}
