package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Staff roles. Admin passes every role check.
const (
	RoleAdmin     = "admin"
	RoleDoctor    = "doctor"
	RoleLab       = "lab"
	RolePharmacy  = "pharmacy"
	RoleReception = "reception"
	RoleCashier   = "cashier"
)

var knownRoles = map[string]bool{
	RoleAdmin: true, RoleDoctor: true, RoleLab: true,
	RolePharmacy: true, RoleReception: true, RoleCashier: true,
}

// ValidRole reports whether r is one of the staff roles.
func ValidRole(r string) bool {
	return knownRoles[r]
}

// RequireRole returns middleware that checks if the user has at least one of the specified roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRoles := RolesFromContext(c.Request().Context())
			for _, has := range userRoles {
				if has == RoleAdmin {
					return next(c)
				}
				for _, required := range roles {
					if has == required {
						return next(c)
					}
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// HasRole reports whether the request carries the role, admin included.
func HasRole(c echo.Context, role string) bool {
	for _, has := range RolesFromContext(c.Request().Context()) {
		if has == role || has == RoleAdmin {
			return true
		}
	}
	return false
}
