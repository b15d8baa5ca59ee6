package consultation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stluc/hms/internal/domain/billing"
	"github.com/stluc/hms/internal/store"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	st.SetClock(func() time.Time { return testNow })
	err := st.RunInTransaction(context.Background(), func(tx *store.Tx) error {
		for _, p := range []*store.Patient{
			{ID: "PA0001", Name: "Jean Dupont", DOB: "1985-05-15"},
			{ID: "URG0001", Name: "Robert Gravement", DOB: "1970-01-01", Emergency: true},
		} {
			if err := tx.InsertPatient(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(st), st
}

func paracetamol() store.MedicationLine {
	return store.MedicationLine{Name: "Paracétamol 500mg", Dosage: "1 comprimé", Frequency: "3 fois par jour", Duration: "5 jours"}
}

func TestService_Record(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Record(context.Background(), &Request{
		PatientID:     "1",
		Type:          "Consultation Spéciale",
		Diagnosis:     "Grippe",
		Analyses:      []string{"Analyse de sang", "ECG"},
		OtherAnalysis: "Test rapide",
		Medications: []store.MedicationLine{
			paracetamol(),
			{Name: "Vitamine C", Dosage: "1 comprimé"},
		},
	}, "Dr. Martin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := res.Consultation
	if c.ID != "C-001" || c.PatientID != "PA0001" || c.Doctor != "Dr. Martin" {
		t.Errorf("unexpected consultation %+v", c)
	}
	if c.Status != store.StatusPendingPayment || c.Emergency {
		t.Errorf("expected non-emergency pending-payment, got %s", c.Status)
	}
	if len(c.Medications) != 1 {
		t.Errorf("expected incomplete medication row to be dropped, got %d rows", len(c.Medications))
	}

	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(res.Transactions))
	}
	if tr := res.Transactions[0]; tr.Service != "Consultation Spéciale" || tr.Amount != 400 {
		t.Errorf("unexpected consultation charge %+v", tr)
	}
	if tr := res.Transactions[1]; tr.Service != billing.ServiceLabAnalyses || tr.Amount != 700 {
		t.Errorf("unexpected lab charge %+v", tr)
	}

	a := res.Analysis
	if a == nil || a.ConsultationID != "C-001" || a.Price != 700 {
		t.Fatalf("unexpected analysis %+v", a)
	}
	if len(a.Analyses) != 3 || a.Analyses[2] != "Test rapide" {
		t.Errorf("unexpected analyses %v", a.Analyses)
	}

	if len(res.Prescriptions) != 1 {
		t.Fatalf("expected 1 prescription, got %d", len(res.Prescriptions))
	}
	rx := res.Prescriptions[0]
	if rx.Text != "Paracétamol 500mg - 1 comprimé 3 fois par jour pendant 5 jours" {
		t.Errorf("unexpected prescription text %q", rx.Text)
	}
	if rx.Delivered || rx.Status != store.StatusPendingPayment {
		t.Errorf("unexpected prescription %+v", rx)
	}
	if res.Episode != nil {
		t.Error("expected no episode for an outpatient")
	}
}

func TestService_Record_DefaultTypeAndFreeAnalysis(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.Record(context.Background(), &Request{PatientID: "PA0001", OtherAnalysis: "Glycémie"}, "Dr. Martin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Consultation.Type != DefaultType {
		t.Errorf("expected %q, got %q", DefaultType, res.Consultation.Type)
	}
	if len(res.Transactions) != 1 || res.Transactions[0].Amount != 500 {
		t.Errorf("expected one charge of 500, got %+v", res.Transactions)
	}
	if res.Analysis != nil {
		t.Error("a free analysis alone creates no lab order")
	}
}

func TestService_Record_Emergency(t *testing.T) {
	svc, st := newTestService(t)

	res, err := svc.Record(context.Background(), &Request{
		PatientID:   "URG0001",
		Type:        "Consultation Générale",
		Analyses:    []string{"Radiographie"},
		Medications: []store.MedicationLine{paracetamol()},
	}, "Dr. Urgence")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Consultation.Status != store.StatusPending || !res.Consultation.Emergency {
		t.Errorf("expected pending emergency consultation, got %+v", res.Consultation)
	}
	tr := res.Transactions[0]
	if tr.Service != "Consultation Générale (Urgence)" || tr.Amount != 800 || !tr.Emergency {
		t.Errorf("unexpected consultation charge %+v", tr)
	}
	if res.Analysis.Status != store.StatusPending {
		t.Errorf("expected pending analysis, got %s", res.Analysis.Status)
	}
	if res.Episode == nil || res.Episode.PatientID != "URG0001" || !res.Episode.Active {
		t.Fatalf("expected an active episode, got %+v", res.Episode)
	}

	// A second consultation reuses the episode.
	if _, err := svc.Record(context.Background(), &Request{PatientID: "URG0001"}, "Dr. Urgence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st.View(context.Background(), func(tx *store.Tx) error {
		if n := len(tx.Episodes()); n != 1 {
			t.Errorf("expected 1 episode, got %d", n)
		}
		return nil
	})
}

func TestService_Record_Errors(t *testing.T) {
	svc, st := newTestService(t)

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"unknown patient", Request{PatientID: "PA0099"}, store.ErrNotFound},
		{"unknown type", Request{PatientID: "PA0001", Type: "Consultation Dentaire"}, store.ErrInvalid},
		{"unknown analysis", Request{PatientID: "PA0001", Analyses: []string{"Scanner"}}, store.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Record(context.Background(), &tt.req, "Dr. Martin")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	st.View(context.Background(), func(tx *store.Tx) error {
		if len(tx.Consultations()) != 0 || len(tx.Transactions()) != 0 {
			t.Error("failed consultations must not leave records behind")
		}
		return nil
	})
}

func TestService_GetAndList(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Record(ctx, &Request{PatientID: "PA0001", Analyses: []string{"Analyse d'urine"}, Medications: []store.MedicationLine{paracetamol()}}, "Dr. Martin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Record(ctx, &Request{PatientID: "URG0001"}, "Dr. Urgence"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, err := svc.Get(ctx, "C-001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.PatientName != "Jean Dupont" || len(d.LabOrders) != 1 || len(d.Prescriptions) != 1 {
		t.Errorf("unexpected detail %+v", d)
	}
	if _, err := svc.Get(ctx, "C-404"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 consultations, got %d", len(all))
	}
	mine, err := svc.List(ctx, "URG1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mine) != 1 || mine[0].PatientID != "URG0001" {
		t.Errorf("unexpected patient consultations %+v", mine)
	}
}
