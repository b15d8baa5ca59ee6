package emergency

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
	// Board and bill – every desk
	readGroup := api.Group("/emergency", auth.RequireRole(auth.RoleDoctor, auth.RoleLab, auth.RolePharmacy, auth.RoleReception, auth.RoleCashier))
	readGroup.GET("/episodes", h.ListActive)
	readGroup.GET("/patients/:id", h.GetOverview)
	readGroup.GET("/patients/:id/bill", h.PrintBill)

	// Care – doctors
	writeGroup := api.Group("/emergency", auth.RequireRole(auth.RoleDoctor))
	writeGroup.POST("/patients/:id/admit", h.Admit)
	writeGroup.POST("/patients/:id/consultation", h.Consult)
	writeGroup.POST("/patients/:id/lab", h.OrderLab)
	writeGroup.POST("/patients/:id/medications", h.OrderMedications)
	writeGroup.PUT("/patients/:id/record", h.SaveRecord)
}

func (h *Handler) ListActive(c echo.Context) error {
	items, err := h.svc.Active(c.Request().Context())
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetOverview(c echo.Context) error {
	ov, err := h.svc.Overview(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, ov)
}

func (h *Handler) PrintBill(c echo.Context) error {
	doc, err := h.svc.Bill(c.Request().Context(), c.Param("id"))
	if err != nil {
		return apierr.From(err)
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, doc.Render())
}

func (h *Handler) Admit(c echo.Context) error {
	ep, err := h.svc.Admit(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, ep)
}

func (h *Handler) Consult(c echo.Context) error {
	var req ConsultRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.svc.Consult(c.Request().Context(), c.Param("id"), &req, auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) OrderLab(c echo.Context) error {
	res, err := h.svc.OrderLab(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) OrderMedications(c echo.Context) error {
	res, err := h.svc.OrderMedications(c.Request().Context(), c.Param("id"), auth.UserNameFromContext(c.Request().Context()))
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) SaveRecord(c echo.Context) error {
	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ep, err := h.svc.SaveRecord(c.Request().Context(), c.Param("id"), &req)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusOK, ep)
}
