package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// requestLines returns the decoded "request" log lines written to buf.
func requestLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not JSON: %q", raw)
		}
		if line["message"] == "request" {
			lines = append(lines, line)
		}
	}
	return lines
}

func serveLogged(t *testing.T, h echo.HandlerFunc, inner ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, []map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.Use(inner...)
	e.GET("/leads", h)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))
	return rec, requestLines(t, &buf)
}

func TestRequestLogger_LogsStatus(t *testing.T) {
	rec, lines := serveLogged(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(lines) != 1 {
		t.Fatalf("expected one request line, got %d", len(lines))
	}
	if lines[0]["status"] != float64(http.StatusNotFound) || lines[0]["level"] != "warn" {
		t.Fatalf("unexpected line %v", lines[0])
	}
}

func TestRequestLogger_LogsPanickedRequest(t *testing.T) {
	panics := func(echo.Context) error { panic(errors.New("nil lead")) }

	tests := []struct {
		name  string
		inner []echo.MiddlewareFunc
	}{
		{"recovered inside", []echo.MiddlewareFunc{echomiddleware.Recover()}},
		{"no recover middleware", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, lines := serveLogged(t, panics, tt.inner...)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("expected 500, got %d", rec.Code)
			}
			if len(lines) != 1 {
				t.Fatalf("expected one request line, got %d", len(lines))
			}
			if lines[0]["status"] != float64(http.StatusInternalServerError) || lines[0]["level"] != "error" {
				t.Fatalf("unexpected line %v", lines[0])
			}
			if lines[0]["path"] != "/leads" {
				t.Fatalf("unexpected path %v", lines[0]["path"])
			}
		})
	}
}
