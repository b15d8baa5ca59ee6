package consultation

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/platform/apierr"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/consultations", auth.RequireRole(auth.RoleDoctor))
	g.POST("", h.RecordConsultation)
	g.GET("", h.ListConsultations)
	g.GET("/:id", h.GetConsultation)
}

func (h *Handler) RecordConsultation(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Record(c.Request().Context(), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("patient"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pagination.FromContext(c)))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	d, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, d)
}
