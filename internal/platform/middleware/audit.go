package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/platform/auth"
)

// AuditEntry records which staff member changed what, and for which patient.
type AuditEntry struct {
	StaffID    string
	StaffRoles []string
	Resource   string
	PatientID  string
	Action     string // create, update, delete
	Path       string
	Method     string
	RemoteIP   string
	RequestID  string
	StatusCode int
	Timestamp  time.Time
}

// AuditRecorder receives audit entries in addition to the structured log.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc is a function adapter for AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// Audit logs every mutating request under /api/v1/. Reads are not audited.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path
			if !strings.HasPrefix(path, "/api/v1/") || !isMutation(req.Method) {
				return next(c)
			}

			err := next(c)

			ctx := req.Context()
			entry := AuditEntry{
				StaffID:    auth.UserIDFromContext(ctx),
				StaffRoles: auth.RolesFromContext(ctx),
				Resource:   extractResource(path),
				PatientID:  extractPatientID(c),
				Action:     httpMethodToAction(req.Method),
				Path:       path,
				Method:     req.Method,
				RemoteIP:   c.RealIP(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("staff_id", entry.StaffID).
				Strs("staff_roles", entry.StaffRoles).
				Str("resource", entry.Resource).
				Str("patient_id", entry.PatientID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Int("status", entry.StatusCode).
				Msg("staff_action")

			return err
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// extractResource returns the first path segment after /api/v1/.
func extractResource(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}

// extractPatientID finds a patient identifier in /api/v1/patients/<id>/...
// or in a patient_id query parameter.
func extractPatientID(c echo.Context) string {
	path := c.Request().URL.Path
	if strings.HasPrefix(path, "/api/v1/patients/") {
		segments := strings.Split(strings.TrimPrefix(path, "/api/v1/patients/"), "/")
		if len(segments) > 0 && segments[0] != "" {
			return strings.ToUpper(segments[0])
		}
	}
	return strings.ToUpper(c.QueryParam("patient_id"))
}
