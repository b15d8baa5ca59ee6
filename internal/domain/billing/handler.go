package billing

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/platform/apierr"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/pkg/pagination"
)

const recentTransactions = 10

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Cashier desk
	cashier := api.Group("", auth.RequireRole(auth.RoleCashier))
	cashier.GET("/payment-methods", h.ListPaymentMethods)
	cashier.GET("/transactions", h.ListTransactions)
	cashier.GET("/transactions/recent", h.RecentTransactions)
	cashier.GET("/transactions/:id", h.GetTransaction)
	cashier.POST("/transactions", h.CreateTransaction)
	cashier.POST("/transactions/:id/pay", h.PayTransaction)
	cashier.GET("/patients/:id/statement", h.GetStatement)
	cashier.POST("/patients/:id/pay-all", h.PayAll)
	cashier.GET("/patients/:id/receipt", h.PrintReceipt)
	cashier.POST("/analyses/:id/bill", h.BillAnalysis)
	cashier.POST("/external-charges", h.ChargeExternalService)
	cashier.GET("/cashier/totals", h.GetTotals)
}

func (h *Handler) ListPaymentMethods(c echo.Context) error {
	return c.JSON(http.StatusOK, PaymentMethods)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.List(c.Request().Context(), c.QueryParam("patient_id"), c.QueryParam("status"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, pagination.Respond(items, pg))
}

func (h *Handler) RecentTransactions(c echo.Context) error {
	items, err := h.svc.Recent(c.Request().Context(), recentTransactions)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetTransaction(c echo.Context) error {
	t, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, t)
}

func (h *Handler) CreateTransaction(c echo.Context) error {
	var req ChargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Charge(c.Request().Context(), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) PayTransaction(c echo.Context) error {
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Pay(c.Request().Context(), c.Param("id"), req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) PayAll(c echo.Context) error {
	var req PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.PayAll(c.Request().Context(), c.Param("id"), req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) GetStatement(c echo.Context) error {
	st, err := h.svc.Statement(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) PrintReceipt(c echo.Context) error {
	doc, err := h.svc.Receipt(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, doc.Render())
}

func (h *Handler) BillAnalysis(c echo.Context) error {
	t, err := h.svc.BillAnalysis(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ChargeExternalService(c echo.Context) error {
	var req ExternalChargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.ChargeExternal(c.Request().Context(), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTotals(c echo.Context) error {
	totals, err := h.svc.Totals(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, totals)
}
