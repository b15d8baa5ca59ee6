package emergency

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/store"
)

func TestHandler_Consult(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency/patients/URG0001/consultation", strings.NewReader(`{"notes":"Fièvre"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("URG0001")

	if err := h.Consult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var res ActionResult
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Consultation == nil || res.Consultation.Notes != "Fièvre" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestHandler_Admit_NotEmergency(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/emergency/patients/PA0001/admit", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("PA0001")

	err := h.Admit(c)
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if he.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", he.Code)
	}
}

func TestHandler_SaveRecord(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	if _, err := svc.Admit(context.Background(), "URG0001", "Dr. Urgence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/v1/emergency/patients/URG0001/record", strings.NewReader(`{"notes":"Sortie prévue"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("URG0001")

	if err := h.SaveRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var ep store.EmergencyEpisode
	json.Unmarshal(rec.Body.Bytes(), &ep)
	if ep.Status != store.EpisodeAwaitingPay {
		t.Errorf("expected %q, got %q", store.EpisodeAwaitingPay, ep.Status)
	}
}

func TestHandler_PrintBill(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/emergency/patients/URG0001/bill", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("URG0001")

	if err := h.PrintBill(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != echo.MIMETextPlainCharsetUTF8 {
		t.Errorf("expected text/plain, got %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "FACTURE D'URGENCE") {
		t.Errorf("unexpected bill:\n%s", rec.Body.String())
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewHandler(svc)
	e := echo.New()
	api := e.Group("/api/v1")

	h.RegisterRoutes(api)

	routePaths := make(map[string]bool)
	for _, r := range e.Routes() {
		routePaths[r.Method+":"+r.Path] = true
	}

	expected := []string{
		"GET:/api/v1/emergency/episodes",
		"GET:/api/v1/emergency/patients/:id",
		"GET:/api/v1/emergency/patients/:id/bill",
		"POST:/api/v1/emergency/patients/:id/admit",
		"POST:/api/v1/emergency/patients/:id/consultation",
		"POST:/api/v1/emergency/patients/:id/lab",
		"POST:/api/v1/emergency/patients/:id/medications",
		"PUT:/api/v1/emergency/patients/:id/record",
	}
	for _, path := range expected {
		if !routePaths[path] {
			t.Errorf("missing expected route: %s", path)
		}
	}
}
