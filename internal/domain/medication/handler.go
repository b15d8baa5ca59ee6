package medication

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
	// Availability checks – prescribers and the pharmacy
	checkGroup := api.Group("/medications", auth.RequireRole(auth.RoleDoctor, auth.RolePharmacy))
	checkGroup.POST("/availability", h.CheckAvailability)
	checkGroup.POST("/availability/receipt", h.PrintPrescriptionReceipt)

	// Stock read and dispensing – pharmacy
	pharmacyGroup := api.Group("", auth.RequireRole(auth.RolePharmacy))
	pharmacyGroup.GET("/stock", h.ListStock)
	pharmacyGroup.GET("/stock/low", h.ListLowStock)
	pharmacyGroup.GET("/pharmacy/patients/:id/orders", h.GetOrders)
	pharmacyGroup.POST("/pharmacy/orders/:id/dispense", h.Dispense)
	pharmacyGroup.POST("/pharmacy/orders/:id/dispense-partial", h.DispensePartial)
	pharmacyGroup.GET("/pharmacy/orders/:id/purchase-receipt", h.PrintPurchaseReceipt)

	// Stock management – admin only
	adminGroup := api.Group("/stock", auth.RequireRole(auth.RoleAdmin))
	adminGroup.POST("", h.AddStock)
	adminGroup.POST("/:id/restock", h.Restock)
}

func (h *Handler) CheckAvailability(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Check(c.Request().Context(), req.Medications)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PrintPrescriptionReceipt(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.PrescriptionReceipt(c.Request().Context(), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, doc.Render())
}

func (h *Handler) ListStock(c echo.Context) error {
	rows, err := h.svc.Stock(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) ListLowStock(c echo.Context) error {
	rows, err := h.svc.LowStock(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) AddStock(c echo.Context) error {
	var req NewStockItem
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.AddStock(c.Request().Context(), &req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) Restock(c echo.Context) error {
	var req RestockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	item, err := h.svc.Restock(c.Request().Context(), c.Param("id"), req.Amount)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) GetOrders(c echo.Context) error {
	res, err := h.svc.Orders(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) Dispense(c echo.Context) error {
	res, err := h.svc.Dispense(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) DispensePartial(c echo.Context) error {
	res, err := h.svc.DispensePartial(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PrintPurchaseReceipt(c echo.Context) error {
	doc, err := h.svc.PurchaseReceipt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, doc.Render())
}
