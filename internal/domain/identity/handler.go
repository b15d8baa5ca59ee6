package identity

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
	// Every clinical role looks patients up
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RoleReception, auth.RoleCashier))
	readGroup.GET("/patients", h.ListPatients)
	readGroup.GET("/patients/resolve", h.ResolvePatient)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/patients/:id/card", h.PrintCard)

	// Registration – reception
	writeGroup := api.Group("", auth.RequireRole(auth.RoleReception))
	writeGroup.POST("/patients", h.RegisterPatient)
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var r Registration
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), &r, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pg))
}

func (h *Handler) ResolvePatient(c echo.Context) error {
	p, err := h.svc.Resolve(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.Resolve(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) PrintCard(c echo.Context) error {
	doc, err := h.svc.Card(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, doc.Render())
}
