package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/leadops/dashboard/internal/core/domain"
	"github.com/leadops/dashboard/internal/core/ports"
)

// AuditHandler exposes the security audit trail.
type AuditHandler struct {
	service ports.AuditService
}

func NewAuditHandler(service ports.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List handles GET /api/audit-events.
//
// @Summary      List audit events
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  query     string  false  "Only events where this user acted or was acted upon"
// @Param        limit    query     int     false  "Maximum number of events (default 50, max 500)"
// @Success      200      {object}  listAuditEventsResponse
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /api/audit-events [get]
func (h *AuditHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	filter := ports.AuditFilter{UserID: c.QueryParam("user_id")}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return domain.Validation("limit must be a positive integer")
		}
		filter.Limit = n
	}

	events, err := h.service.List(c.Request().Context(), principal, filter)
	if err != nil {
		return err
	}

	items := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		items = append(items, toAuditEventResponse(e))
	}
	return c.JSON(http.StatusOK, listAuditEventsResponse{Items: items})
}
