package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/config"
	"github.com/stluc/hms/internal/platform/auth"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Port:                       "8000",
		Env:                        "development",
		AuthIssuer:                 "hms",
		CORSOrigins:                []string{"http://localhost:3000"},
		BodyLimit:                  "1M",
		DemoData:                   true,
		MetricsEnabled:             true,
		HospitalName:               "Hôpital Saint-Luc",
		EmergencyConsultationPrice: 800,
		EmergencyAnalysisPrice:     500,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	e, err := newServer(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}
	return e
}

// call performs a request as a development user with the given role.
func call(e *echo.Echo, method, path, role, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if role != "" {
		req.Header.Set(auth.HeaderDevRole, role)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	e := newTestServer(t, testConfig())

	rec := call(e, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderXRequestID) == "" {
		t.Error("expected a request id header")
	}
}

func TestServer_Metrics(t *testing.T) {
	e := newTestServer(t, testConfig())

	rec := call(e, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	// Vitamine C is below its threshold in the demo stock.
	if !strings.Contains(rec.Body.String(), "hms_pharmacy_low_stock_items 1") {
		t.Errorf("expected low stock gauge, got:\n%s", rec.Body.String())
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	e := newTestServer(t, cfg)

	if rec := call(e, http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestServer_ConfiguredSettings(t *testing.T) {
	cfg := testConfig()
	cfg.HospitalName = "Clinique du Nord"
	cfg.EmergencyConsultationPrice = 950
	e := newTestServer(t, cfg)

	rec := call(e, http.MethodGet, "/api/v1/settings", auth.RoleReception, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var s struct {
		EmergencyPrices struct {
			Consultation float64 `json:"consultation"`
		} `json:"emergency_prices"`
		Hospital struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
		} `json:"hospital"`
	}
	json.Unmarshal(rec.Body.Bytes(), &s)
	if s.EmergencyPrices.Consultation != 950 || s.Hospital.Name != "Clinique du Nord" || s.Hospital.Phone == "" {
		t.Errorf("unexpected settings %+v", s)
	}
}

func TestServer_RoleGating(t *testing.T) {
	e := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		want   int
	}{
		{"doctor cannot administer", http.MethodGet, "/api/v1/admin/overview", auth.RoleDoctor, http.StatusForbidden},
		{"admin can administer", http.MethodGet, "/api/v1/admin/overview", "", http.StatusOK},
		{"lab reads worklist", http.MethodGet, "/api/v1/lab/pending", auth.RoleLab, http.StatusOK},
		{"cashier cannot read worklist", http.MethodGet, "/api/v1/lab/pending", auth.RoleCashier, http.StatusForbidden},
		{"pharmacy reads stock", http.MethodGet, "/api/v1/stock", auth.RolePharmacy, http.StatusOK},
		{"every role sees emergencies", http.MethodGet, "/api/v1/emergency/episodes", auth.RoleCashier, http.StatusOK},
		{"reception lists patients", http.MethodGet, "/api/v1/patients", auth.RoleReception, http.StatusOK},
		{"doctor cannot seed", http.MethodPost, "/api/v1/admin/sandbox/seed", auth.RoleDoctor, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := call(e, tt.method, tt.path, tt.role, ""); rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_PayDemoTransaction(t *testing.T) {
	e := newTestServer(t, testConfig())

	rec := call(e, http.MethodPost, "/api/v1/transactions/T-001/pay", auth.RoleCashier, `{"method":"cash","cash_tendered":1000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Total  float64 `json:"total"`
		Change float64 `json:"change"`
	}
	json.Unmarshal(rec.Body.Bytes(), &res)
	if res.Total != 500 || res.Change != 500 {
		t.Errorf("unexpected payment %+v", res)
	}

	// Paying twice is a conflict.
	rec = call(e, http.MethodPost, "/api/v1/transactions/T-001/pay", auth.RoleCashier, `{"method":"cash","cash_tendered":1000}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	rec = call(e, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(rec.Body.String(), `method="cash"`) {
		t.Errorf("expected a cash payment in metrics, got:\n%s", rec.Body.String())
	}
}

func TestServer_JWTMode(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "production"
	cfg.AuthSigningKey = testSigningKey
	e := newTestServer(t, cfg)

	if rec := call(e, http.MethodGet, "/api/v1/patients", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", rec.Code)
	}
	// Probes stay open.
	if rec := call(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for health, got %d", rec.Code)
	}

	token, err := auth.IssueToken(auth.JWTConfig{Issuer: "hms", SigningKey: []byte(testSigningKey)}, "EMP005", "Ana Réception", []string{auth.RoleReception}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with a token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("AUTH_SIGNING_KEY", testSigningKey)

	cmd := tokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--subject", "EMP006", "--name", "Marc Caissier", "--role", "cashier"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out.String()), "."); len(parts) != 3 {
		t.Errorf("expected a JWT, got %q", out.String())
	}

	cmd = tokenCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--subject", "EMP006", "--role", "janitor"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected an error for an unknown role")
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := versionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("expected %q, got %q", version, out.String())
	}
}
