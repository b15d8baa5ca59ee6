package settings

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/platform/apierr"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/internal/store"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Catalog prices are read by every screen that bills something.
	read := api.Group("/settings", auth.RequireRole(
		auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RoleReception, auth.RoleCashier,
	))
	read.GET("", h.GetSettings)
	read.GET("/catalogs/:kind", h.ListCatalog)

	write := api.Group("/settings", auth.RequireRole(auth.RoleAdmin))
	write.POST("/catalogs/:kind", h.AddCatalogItem)
	write.PUT("/catalogs/:kind/:id", h.UpdateCatalogItem)
	write.DELETE("/catalogs/:kind/:id", h.RemoveCatalogItem)
	write.PUT("/emergency-prices", h.SetEmergencyPrices)
	write.PUT("/hospital", h.SetHospital)
}

func (h *Handler) GetSettings(c echo.Context) error {
	s, err := h.svc.Get(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) ListCatalog(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apierr.From(err)
	}
	items, err := h.svc.Catalog(c.Request().Context(), kind, c.QueryParam("all") == "true")
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AddCatalogItem(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apierr.From(err)
	}
	var req CatalogItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.AddCatalogItem(c.Request().Context(), kind, &req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateCatalogItem(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apierr.From(err)
	}
	var req CatalogItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.UpdatePrice(c.Request().Context(), kind, c.Param("id"), req.Price)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) RemoveCatalogItem(c echo.Context) error {
	kind, err := ParseKind(c.Param("kind"))
	if err != nil {
		return apierr.From(err)
	}
	if err := h.svc.RemoveCatalogItem(c.Request().Context(), kind, c.Param("id")); err != nil {
		return apierr.From(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetEmergencyPrices(c echo.Context) error {
	var req store.EmergencyPrices
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetEmergencyPrices(c.Request().Context(), req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetHospital(c echo.Context) error {
	var req store.HospitalProfile
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetHospital(c.Request().Context(), req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, p)
}
