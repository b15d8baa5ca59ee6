package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stluc/hms/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	return NewService(st), st
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind("Lab-Analyses"); err != nil || k != store.LabAnalyses {
		t.Errorf("unexpected kind %q, %v", k, err)
	}
	if _, err := ParseKind("drugs"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Get_Defaults(t *testing.T) {
	svc, _ := newTestService(t)

	s, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.ConsultationTypes) != 4 || len(s.LabAnalyses) != 8 || len(s.ExternalServices) != 6 {
		t.Errorf("unexpected catalog sizes %d/%d/%d", len(s.ConsultationTypes), len(s.LabAnalyses), len(s.ExternalServices))
	}
	if s.EmergencyPrices.Consultation != 800 || s.EmergencyPrices.Analysis != 500 {
		t.Errorf("unexpected emergency prices %+v", s.EmergencyPrices)
	}
	if s.Hospital.Name != "Hôpital Saint-Luc" {
		t.Errorf("unexpected hospital %+v", s.Hospital)
	}
}

func TestService_CatalogLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddCatalogItem(ctx, store.ExternalServices, &CatalogItemRequest{Name: " Suture ", Price: 350})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "SRV-007" || item.Name != "Suture" || !item.Active {
		t.Errorf("unexpected item %+v", item)
	}
	if _, err := svc.AddCatalogItem(ctx, store.ExternalServices, &CatalogItemRequest{Name: "suture", Price: 100}); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict for a duplicate, got %v", err)
	}

	updated, err := svc.UpdatePrice(ctx, store.ExternalServices, item.ID, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Price != 400 {
		t.Errorf("expected price 400, got %v", updated.Price)
	}

	if err := svc.RemoveCatalogItem(ctx, store.ExternalServices, item.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items, _ := svc.Catalog(ctx, store.ExternalServices, false)
	if len(items) != 6 {
		t.Errorf("expected 6 active entries, got %d", len(items))
	}
	all, _ := svc.Catalog(ctx, store.ExternalServices, true)
	if len(all) != 7 {
		t.Errorf("expected 7 entries, got %d", len(all))
	}
	if _, err := svc.UpdatePrice(ctx, store.ExternalServices, item.ID, 500); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a removed entry, got %v", err)
	}

	// Adding the name again brings the entry back.
	again, err := svc.AddCatalogItem(ctx, store.ExternalServices, &CatalogItemRequest{Name: "Suture", Price: 300})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.ID != item.ID || again.Price != 300 || !again.Active {
		t.Errorf("unexpected reactivated entry %+v", again)
	}
}

func TestService_AddCatalogItem_Errors(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		req  CatalogItemRequest
	}{
		{"no name", CatalogItemRequest{Price: 100}},
		{"zero price", CatalogItemRequest{Name: "Holter", Price: 0}},
		{"negative price", CatalogItemRequest{Name: "Holter", Price: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AddCatalogItem(context.Background(), store.LabAnalyses, &tt.req); !errors.Is(err, store.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestService_SetEmergencyPrices(t *testing.T) {
	svc, st := newTestService(t)

	if _, err := svc.SetEmergencyPrices(context.Background(), store.EmergencyPrices{Consultation: 900, Analysis: 0}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if _, err := svc.SetEmergencyPrices(context.Background(), store.EmergencyPrices{Consultation: 900, Analysis: 600}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.View(context.Background(), func(tx *store.Tx) error {
		if p := tx.EmergencyPrices(); p.Consultation != 900 || p.Analysis != 600 {
			t.Errorf("unexpected stored prices %+v", p)
		}
		return nil
	})
}

func TestService_SetHospital(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.SetHospital(context.Background(), store.HospitalProfile{Name: "Hôpital", Address: " "}); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	h, err := svc.SetHospital(context.Background(), store.HospitalProfile{Name: " Clinique du Nord ", Address: "Cap-Haïtien", Phone: "+509 3000-0000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Name != "Clinique du Nord" {
		t.Errorf("unexpected profile %+v", h)
	}
}
