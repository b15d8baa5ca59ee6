package diagnostics

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
	g := api.Group("/lab", auth.RequireRole(auth.RoleLab))
	g.GET("/pending", h.ListPending)
	g.GET("/patients/:id/analyses", h.GetPatientAnalyses)
	g.PUT("/analyses/:id/results", h.RecordResults)
}

func (h *Handler) ListPending(c echo.Context) error {
	items, err := h.svc.Pending(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetPatientAnalyses(c echo.Context) error {
	res, err := h.svc.ForPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) RecordResults(c echo.Context) error {
	var req ResultsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.RecordResults(c.Request().Context(), c.Param("id"), req.Results, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, a)
}
