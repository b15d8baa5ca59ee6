package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/patients/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/api/v1/missing/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	for _, path := range []string{"/api/v1/patients/PA0001", "/api/v1/patients/PA0002", "/api/v1/missing/x"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/patients/:id", "200")); got != 2 {
		t.Errorf("expected 2 requests on the patient route, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/missing/:id", "404")); got != 1 {
		t.Errorf("expected 1 not found request, got %v", got)
	}
}

func TestBusinessCounters(t *testing.T) {
	m := New()
	m.TransactionRecorded("consultation", 500)
	m.TransactionRecorded("consultation", 300)
	m.PaymentCollected("cash", 800)
	m.Dispensed("full", 2)
	m.Dispensed("partial", 0)
	m.EpisodeDischarged()
	m.SetLowStock(3)

	if got := testutil.ToFloat64(m.billed.WithLabelValues("consultation")); got != 2 {
		t.Errorf("expected 2 consultation transactions, got %v", got)
	}
	if got := testutil.ToFloat64(m.billedGdes.WithLabelValues("consultation")); got != 800 {
		t.Errorf("expected 800 Gdes billed, got %v", got)
	}
	if got := testutil.ToFloat64(m.paidGdes.WithLabelValues("cash")); got != 800 {
		t.Errorf("expected 800 Gdes paid, got %v", got)
	}
	if got := testutil.ToFloat64(m.dispensed.WithLabelValues("full")); got != 2 {
		t.Errorf("expected 2 lines dispensed, got %v", got)
	}
	if got := testutil.ToFloat64(m.discharged); got != 1 {
		t.Errorf("expected 1 discharge, got %v", got)
	}
	if got := testutil.ToFloat64(m.lowStock); got != 3 {
		t.Errorf("expected low stock gauge 3, got %v", got)
	}
}

func TestNilMetrics_IsSafe(t *testing.T) {
	var m *Metrics
	m.TransactionRecorded("analysis", 300)
	m.PaymentCollected("moncash", 300)
	m.Dispensed("full", 1)
	m.EpisodeDischarged()
	m.SetLowStock(1)
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.PaymentCollected("natcash", 250)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `hms_billing_payments_total{method="natcash"} 1`) {
		t.Errorf("expected payment counter in exposition, got:\n%s", rec.Body.String())
	}
}
