package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/leadops/dashboard/internal/api/handler"
	"github.com/leadops/dashboard/internal/core/domain"
)

// RequestLogger emits one structured line per request, including requests
// whose handler panicked. Errors are handed to the HTTP error handler first so
// the logged status is the one the client got.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					err, ok := r.(error)
					if !ok {
						err = fmt.Errorf("%v", r)
					}
					log.Error().Err(err).Str("path", c.Path()).Msg("handler panicked")
					c.Error(err)
				}
				logRequest(log, c, start)
			}()

			if err := next(c); err != nil {
				c.Error(err)
			}
			return nil
		}
	}
}

func logRequest(log zerolog.Logger, c echo.Context, start time.Time) {
	req := c.Request()
	res := c.Response()
	status := res.Status

	var evt *zerolog.Event
	switch {
	case status >= 500:
		evt = log.Error()
	case status >= 400:
		evt = log.Warn()
	default:
		evt = log.Info()
	}

	evt = evt.
		Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
		Str("method", req.Method).
		Str("path", c.Path()).
		Int("status", status).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Str("ip", c.RealIP())
	if p, ok := c.Get(handler.PrincipalKey).(domain.Principal); ok {
		evt = evt.Str("user_id", p.UserID)
	}
	evt.Msg("request")
}
