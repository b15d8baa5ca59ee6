package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/platform/auth"
)

// probes are polled by the orchestrator and logged at debug level.
var probes = map[string]bool{"/health": true, "/metrics": true}

// Logger writes one line per request. Server errors log at error level,
// client errors at warn.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the response so the logged status is final.
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			var evt *zerolog.Event
			switch {
			case status >= 500:
				evt = logger.Error()
			case status >= 400:
				evt = logger.Warn()
			case probes[req.URL.Path]:
				evt = logger.Debug()
			default:
				evt = logger.Info()
			}
			if err != nil {
				evt = evt.Err(err)
			}

			rid, _ := c.Get("request_id").(string)
			ctx := req.Context()
			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("route", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Str("staff_id", auth.UserIDFromContext(ctx)).
				Strs("roles", auth.RolesFromContext(ctx)).
				Msg("request")

			return nil
		}
	}
}
