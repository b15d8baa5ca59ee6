package scheduling

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/appointments", auth.RequireRole(auth.RoleDoctor, auth.RoleReception))
	g.POST("", h.ScheduleAppointment)
	g.GET("/upcoming", h.ListUpcoming)
	g.GET("/past", h.ListPast)
	g.GET("/today", h.ListToday)
	g.POST("/:id/cancel", h.CancelAppointment)
	g.POST("/:id/complete", h.CompleteAppointment)
}

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var req AppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.Schedule(c.Request().Context(), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListUpcoming(c echo.Context) error {
	items, err := h.svc.Upcoming(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) ListPast(c echo.Context) error {
	items, err := h.svc.Past(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

// ListToday shows the caller's appointments of the day. Admins see every
// doctor's.
func (h *Handler) ListToday(c echo.Context) error {
	doctor := auth.UserNameFromContext(c.Request().Context())
	if auth.HasRole(c, auth.RoleAdmin) {
		doctor = c.QueryParam("doctor")
	}
	items, err := h.svc.Today(c.Request().Context(), doctor)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CancelAppointment(c echo.Context) error {
	a, err := h.svc.Cancel(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) CompleteAppointment(c echo.Context) error {
	a, err := h.svc.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, a)
}
