package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/platform/apierr"
	"github.com/stluc/hms/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

var staffRoles = []string{
	auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RoleReception, auth.RoleCashier,
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Every staff member punches in and out and sees the notifications.
	staff := api.Group("", auth.RequireRole(staffRoles...))
	staff.POST("/attendance/check-in", h.CheckIn)
	staff.POST("/attendance/check-out", h.CheckOut)
	staff.GET("/notifications", h.ListNotifications)

	g := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	g.GET("/overview", h.GetOverview)
	g.GET("/alerts", h.ListAlerts)
	g.GET("/attendance", h.ListAttendance)
	g.GET("/employees", h.ListEmployees)
	g.POST("/employees", h.CreateEmployee)
	g.GET("/employees/:id", h.GetEmployee)
	g.PUT("/employees/:id", h.UpdateEmployee)
	g.DELETE("/employees/:id", h.DeleteEmployee)
}

func (h *Handler) CheckIn(c echo.Context) error {
	var req PunchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.CheckIn(c.Request().Context(), req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) CheckOut(c echo.Context) error {
	var req PunchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.CheckOut(c.Request().Context(), req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	items, err := h.svc.Notifications(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetOverview(c echo.Context) error {
	o, err := h.svc.Overview(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListAlerts(c echo.Context) error {
	items, err := h.svc.Alerts(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListAttendance(c echo.Context) error {
	items, err := h.svc.Attendance(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListEmployees(c echo.Context) error {
	items, err := h.svc.ListEmployees(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateEmployee(c echo.Context) error {
	var req EmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.CreateEmployee(c.Request().Context(), &req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) GetEmployee(c echo.Context) error {
	e, err := h.svc.GetEmployee(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(c echo.Context) error {
	var req EmployeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	e, err := h.svc.UpdateEmployee(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *Handler) DeleteEmployee(c echo.Context) error {
	if err := h.svc.DeleteEmployee(c.Request().Context(), c.Param("id")); err != nil {
		return apierr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}
