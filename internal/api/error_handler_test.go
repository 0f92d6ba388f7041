package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/core/domain"
)

func renderError(t *testing.T, method string, err error) (int, errorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(method, "/api/x", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
	}
	return rec.Code, body
}

func TestHTTPErrorHandler_DomainKinds(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.Validation("email is required"), http.StatusBadRequest, "email is required"},
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "authentication required"},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{domain.ErrInsufficientRole, http.StatusForbidden, "insufficient role"},
		{domain.ErrRestrictedField, http.StatusForbidden, "cannot change own role or permissions"},
		{domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{domain.ErrUserExists, http.StatusConflict, "user already exists"},
		{domain.ErrLastAdminProtected, http.StatusBadRequest, "at least one active admin is required"},
		{domain.ErrSelfDeletion, http.StatusBadRequest, "cannot delete your own account"},
		{domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many failed login attempts, try again later"},
	}
	for _, tt := range tests {
		code, body := renderError(t, http.MethodGet, tt.err)
		if code != tt.code || body.Error != tt.msg {
			t.Errorf("%v: got %d %q, want %d %q", tt.err, code, body.Error, tt.code, tt.msg)
		}
	}
}

func TestHTTPErrorHandler_WrappedCauseIsHidden(t *testing.T) {
	err := fmt.Errorf("update user: %w", domain.Wrap(domain.ErrUserExists, errors.New("duplicate key value violates unique constraint")))

	code, body := renderError(t, http.MethodPut, err)
	if code != http.StatusConflict || body.Error != "user already exists" {
		t.Fatalf("got %d %q", code, body.Error)
	}
}

func TestHTTPErrorHandler_EchoError(t *testing.T) {
	code, body := renderError(t, http.MethodGet, echo.ErrNotFound)
	if code != http.StatusNotFound || body.Error != "Not Found" {
		t.Fatalf("got %d %q", code, body.Error)
	}
}

func TestHTTPErrorHandler_UnexpectedError(t *testing.T) {
	code, body := renderError(t, http.MethodGet, errors.New("pq: connection refused"))
	if code != http.StatusInternalServerError || body.Error != "internal server error" {
		t.Fatalf("got %d %q", code, body.Error)
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodHead, "/api/x", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrUnauthenticated, c)

	if rec.Code != http.StatusUnauthorized || rec.Body.Len() != 0 {
		t.Fatalf("got %d with %d body bytes", rec.Code, rec.Body.Len())
	}
}
