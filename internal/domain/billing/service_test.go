package billing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stluc/hms/internal/platform/receipt"
	"github.com/stluc/hms/internal/platform/telemetry"
	"github.com/stluc/hms/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := newTestStore(t)
	return NewService(st, receipt.NewGenerator()), st
}

// seedConsultations gives PA0001 two unpaid consultations billed as two
// transactions, and one unpaid analysis.
func seedConsultations(t *testing.T, st *store.Store) {
	t.Helper()
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertConsultation(&store.Consultation{PatientID: "PA0001", Type: "Consultation Générale", Status: store.StatusPendingPayment})
		tx.InsertConsultation(&store.Consultation{PatientID: "PA0001", Type: "Consultation Spéciale", Status: store.StatusPending})
		tx.InsertConsultation(&store.Consultation{PatientID: "PA0002", Type: "Consultation Générale", Status: store.StatusPendingPayment})
		tx.InsertAnalysis(&store.Analysis{PatientID: "PA0001", ConsultationID: "C-001", Analyses: []string{"Analyse de sang"}, Price: 300, Status: store.StatusPendingPayment})
		if _, err := Record(tx, Event{PatientID: "PA0001", Service: "Consultation Générale", Amount: 500}); err != nil {
			return err
		}
		_, err := Record(tx, Event{PatientID: "PA0001", Service: "Consultation Spéciale", Amount: 400})
		return err
	})
}

func view(t *testing.T, st *store.Store, fn func(tx *store.Tx)) {
	t.Helper()
	st.View(context.Background(), func(tx *store.Tx) error {
		fn(tx)
		return nil
	})
}

func TestService_Pay_CascadesToAllConsultations(t *testing.T) {
	svc, st := newTestService(t)
	seedConsultations(t, st)

	res, err := svc.Pay(context.Background(), "T-001", PaymentRequest{Method: "cash", CashTendered: 1000}, "Caissier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Change != 500 {
		t.Errorf("expected change 500, got %v", res.Change)
	}

	view(t, st, func(tx *store.Tx) {
		for _, id := range []string{"C-001", "C-002"} {
			c := tx.FindConsultation(id)
			if c.Status != store.StatusPaid || c.PaymentMethod != "cash" {
				t.Errorf("expected %s paid by cash, got %s/%s", id, c.Status, c.PaymentMethod)
			}
		}
		if c := tx.FindConsultation("C-003"); c.Status != store.StatusPendingPayment {
			t.Errorf("another patient's consultation must not be touched, got %s", c.Status)
		}
		if a := tx.FindAnalysis("A-001"); a.Status != store.StatusPendingPayment {
			t.Errorf("a consultation payment must not pay analyses, got %s", a.Status)
		}
		if tr := tx.FindTransaction("T-002"); tr.Status != store.TxPending {
			t.Errorf("expected T-002 to stay pending, got %s", tr.Status)
		}
		tr := tx.FindTransaction("T-001")
		if tr.PaidAt == nil || !tr.PaidAt.Equal(testNow) {
			t.Errorf("expected paid_at %v, got %v", testNow, tr.PaidAt)
		}
	})
}

func TestService_Pay_Errors(t *testing.T) {
	svc, st := newTestService(t)
	seedConsultations(t, st)
	ctx := context.Background()

	if _, err := svc.Pay(ctx, "T-999", PaymentRequest{Method: "cash", CashTendered: 500}, ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Pay(ctx, "T-001", PaymentRequest{Method: "cash", CashTendered: 400}, ""); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("expected ErrInvalid for underpayment, got %v", err)
	}
	view(t, st, func(tx *store.Tx) {
		if tr := tx.FindTransaction("T-001"); tr.Status != store.TxPending {
			t.Errorf("rejected payment must leave the transaction pending, got %s", tr.Status)
		}
		if c := tx.FindConsultation("C-001"); c.Status != store.StatusPendingPayment {
			t.Errorf("rejected payment must not cascade, got %s", c.Status)
		}
	})

	if _, err := svc.Pay(ctx, "T-001", PaymentRequest{Method: "cash", CashTendered: 500}, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Pay(ctx, "T-001", PaymentRequest{Method: "cash", CashTendered: 500}, ""); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict for a second payment, got %v", err)
	}
}

func TestService_Pay_DischargesWhenSettled(t *testing.T) {
	svc, st := newTestService(t)
	metrics := telemetry.New()
	svc.SetMetrics(metrics)
	mustRun(t, st, func(tx *store.Tx) error {
		Record(tx, Event{PatientID: "URG0001", Service: ServiceEmergencyConsultation, Amount: 800, Emergency: true})
		Record(tx, Event{PatientID: "URG0001", Service: ServiceEmergencyAnalyses, Amount: 500, Emergency: true})
		return nil
	})
	ctx := context.Background()

	res, err := svc.Pay(ctx, "T-001", PaymentRequest{Method: "moncash", Reference: "MC-1"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Discharged != nil {
		t.Error("expected no discharge while T-002 is pending")
	}

	res, err = svc.Pay(ctx, "T-002", PaymentRequest{Method: "moncash", Reference: "MC-2"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Discharged == nil || res.Discharged.ID != "E-001" {
		t.Fatalf("expected E-001 to be discharged, got %+v", res.Discharged)
	}
	view(t, st, func(tx *store.Tx) {
		if ep := tx.ActiveEpisode("URG0001"); ep != nil {
			t.Errorf("expected no active episode, got %+v", ep)
		}
	})
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "hms_emergency_discharges_total 1") {
		t.Errorf("expected one discharge counted, got:\n%s", rec.Body.String())
	}
}

func TestService_PayAll(t *testing.T) {
	svc, st := newTestService(t)
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertConsultation(&store.Consultation{PatientID: "URG0001", Type: ServiceEmergencyConsultation, Status: store.StatusPending, Emergency: true})
		tx.InsertAnalysis(&store.Analysis{PatientID: "URG0001", Price: 500, Status: store.StatusPending, Emergency: true})
		tx.InsertPrescription(&store.Prescription{PatientID: "URG0001", Text: "Paracétamol 1000mg - Posologie d'urgence", Status: store.StatusPending, Emergency: true})
		Record(tx, Event{PatientID: "URG0001", Service: ServiceEmergencyConsultation, Amount: 800, Emergency: true})
		Record(tx, Event{PatientID: "URG0001", Service: ServiceEmergencyAnalyses, Amount: 500, Emergency: true})
		return nil
	})

	res, err := svc.PayAll(context.Background(), "urg1", PaymentRequest{Method: "cash", CashTendered: 1500}, "Caissier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1300 || res.Change != 200 || len(res.Transactions) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Discharged == nil {
		t.Fatal("expected the episode to be closed")
	}

	view(t, st, func(tx *store.Tx) {
		if n := len(PendingTransactions(tx, "URG0001")); n != 0 {
			t.Errorf("expected no pending transaction, got %d", n)
		}
		if c := tx.FindConsultation("C-001"); c.Status != store.StatusPaid {
			t.Errorf("expected consultation paid, got %s", c.Status)
		}
		if a := tx.FindAnalysis("A-001"); a.Status != store.StatusPaid {
			t.Errorf("expected analysis paid, got %s", a.Status)
		}
		if p := tx.FindPrescription("R-001"); p.Status != store.StatusPaid || p.PaymentMethod != "cash" {
			t.Errorf("expected prescription paid by cash, got %s/%s", p.Status, p.PaymentMethod)
		}
		ep := tx.FindEpisode("E-001")
		if ep.Active || ep.Status != store.EpisodeDischarged {
			t.Errorf("unexpected episode %+v", ep)
		}
	})
}

func TestService_PayAll_NothingPending(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.PayAll(context.Background(), "PA0001", PaymentRequest{Method: "cash", CashTendered: 100}, "")
	if !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
	_, err = svc.PayAll(context.Background(), "PA0404", PaymentRequest{Method: "cash", CashTendered: 100}, "")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_PayAll_DischargesSettledEmergency(t *testing.T) {
	svc, st := newTestService(t)
	metrics := telemetry.New()
	svc.SetMetrics(metrics)
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertConsultation(&store.Consultation{PatientID: "URG0001", Type: ServiceEmergencyConsultation, Status: store.StatusPending, Emergency: true})
		return nil
	})

	res, err := svc.PayAll(context.Background(), "URG0001", PaymentRequest{Method: "cash"}, "Caissier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Discharged == nil || res.Discharged.ID != "E-001" {
		t.Fatalf("expected E-001 to be discharged, got %+v", res.Discharged)
	}
	if len(res.Transactions) != 0 || res.Total != 0 {
		t.Errorf("expected nothing collected, got %+v", res)
	}
	view(t, st, func(tx *store.Tx) {
		if ep := tx.ActiveEpisode("URG0001"); ep != nil {
			t.Errorf("expected no active episode, got %+v", ep)
		}
		if c := tx.FindConsultation("C-001"); c.Status != store.StatusPaid {
			t.Errorf("expected consultation closed as paid, got %s", c.Status)
		}
	})
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if strings.Contains(rec.Body.String(), "hms_billing_payments_total") {
		t.Errorf("expected no payment counted, got:\n%s", rec.Body.String())
	}

	if _, err := svc.PayAll(context.Background(), "URG0001", PaymentRequest{Method: "cash"}, ""); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict once discharged, got %v", err)
	}
}

func TestService_StatementCountsEmergencyAnalysisCharge(t *testing.T) {
	svc, st := newTestService(t)
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertAnalysis(&store.Analysis{PatientID: "URG0001", ConsultationID: "E-001", Price: 500, Status: store.StatusPending, Emergency: true})
		_, err := Record(tx, Event{PatientID: "URG0001", Service: ServiceEmergencyAnalyses, Amount: 500, Emergency: true})
		return err
	})
	ctx := context.Background()

	stmt, err := svc.Statement(ctx, "URG0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.UnbilledAnalyses) != 0 || stmt.TotalPending != 500 {
		t.Errorf("expected the emergency charge to cover the analysis, got unbilled=%d pending=%v", len(stmt.UnbilledAnalyses), stmt.TotalPending)
	}
	if _, err := svc.BillAnalysis(ctx, "A-001", ""); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestService_StatementAndBillAnalysis(t *testing.T) {
	svc, st := newTestService(t)
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertAnalysis(&store.Analysis{PatientID: "PA0002", ConsultationID: "C-001", Price: 300, Status: store.StatusPending})
		tx.InsertAnalysis(&store.Analysis{PatientID: "PA0002", ConsultationID: "C-001", Price: 0, Status: store.StatusPending})
		Record(tx, Event{PatientID: "PA0002", Service: "Consultation Générale", Amount: 500})
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0002", Service: "Consultation Générale", Amount: 500, Status: store.TxPaid})
		return nil
	})
	ctx := context.Background()

	stmt, err := svc.Statement(ctx, "PA0002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Pending) != 1 || len(stmt.Paid) != 1 || len(stmt.UnbilledAnalyses) != 2 {
		t.Fatalf("unexpected statement %+v", stmt)
	}
	if stmt.TotalPending != 800 || stmt.TotalPaid != 500 || stmt.Total != 1300 {
		t.Errorf("unexpected totals pending=%v paid=%v total=%v", stmt.TotalPending, stmt.TotalPaid, stmt.Total)
	}

	tr, err := svc.BillAnalysis(ctx, "A-001", "Caissier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Service != ServiceLabAnalyses || tr.Amount != 300 || tr.Category != store.CategoryAnalysis {
		t.Errorf("unexpected transaction %+v", tr)
	}
	view(t, st, func(tx *store.Tx) {
		for _, id := range []string{"A-001", "A-002"} {
			if a := tx.FindAnalysis(id); a.Status != store.StatusPendingPayment {
				t.Errorf("expected %s pending-payment, got %s", id, a.Status)
			}
		}
	})

	stmt, _ = svc.Statement(ctx, "PA0002")
	if len(stmt.UnbilledAnalyses) != 0 {
		t.Errorf("expected no unbilled analysis once billed, got %d", len(stmt.UnbilledAnalyses))
	}
	if stmt.TotalPending != 800 {
		t.Errorf("expected pending total 800, got %v", stmt.TotalPending)
	}

	if _, err := svc.BillAnalysis(ctx, "A-001", ""); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict when billing twice, got %v", err)
	}
	if _, err := svc.BillAnalysis(ctx, "A-404", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_ChargeExternal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tr, err := svc.ChargeExternal(ctx, &ExternalChargeRequest{PatientID: "PA0001", Service: "pansement"}, "Caissier")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.ID != "EXT-0001" || tr.Service != "Service Externe: Pansement" || tr.Amount != 150 {
		t.Errorf("unexpected transaction %+v", tr)
	}
	if tr.Category != store.CategoryExternal || tr.Emergency {
		t.Errorf("unexpected category/emergency %s/%v", tr.Category, tr.Emergency)
	}

	if _, err := svc.ChargeExternal(ctx, &ExternalChargeRequest{PatientID: "PA0001", Service: "Chirurgie"}, ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown service, got %v", err)
	}
	if _, err := svc.ChargeExternal(ctx, &ExternalChargeRequest{Service: "Pansement"}, ""); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("expected ErrInvalid without patient, got %v", err)
	}
}

func TestService_Charge(t *testing.T) {
	svc, _ := newTestService(t)
	tr, err := svc.Charge(context.Background(), &ChargeRequest{PatientID: "URG0001", Service: "Frais de dossier", Amount: 100}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tr.Emergency {
		t.Error("expected emergency patients' charges to be flagged emergency")
	}
	if tr.Category != store.CategoryOther {
		t.Errorf("expected category other, got %s", tr.Category)
	}
}

func TestService_Totals(t *testing.T) {
	svc, st := newTestService(t)
	at := func(days int) *time.Time {
		v := testNow.AddDate(0, 0, -days)
		return &v
	}
	mustRun(t, st, func(tx *store.Tx) error {
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0001", Service: "Consultation Générale", Amount: 500, Status: store.TxPaid, PaidAt: at(0)})
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0002", Service: ServiceLabAnalyses, Amount: 300, Status: store.TxPaid, PaidAt: at(0)})
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0001", Service: ServiceLabAnalyses, Amount: 200, Status: store.TxPaid, PaidAt: at(3)})
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0001", Service: "Consultation Générale", Amount: 1000, Status: store.TxPaid, PaidAt: at(10)})
		tx.InsertTransaction(&store.Transaction{PatientID: "PA0001", Service: "Consultation Générale", Amount: 700, Status: store.TxPending})
		return nil
	})

	totals, err := svc.Totals(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if totals.Today != 800 || totals.Week != 1000 || totals.TodayCount != 2 || totals.TodayPatients != 2 {
		t.Errorf("unexpected totals %+v", totals)
	}
}

func TestService_RecentAndReceipt(t *testing.T) {
	svc, st := newTestService(t)
	seedConsultations(t, st)
	ctx := context.Background()

	recent, err := svc.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "T-002" {
		t.Errorf("expected T-002 first, got %v", recent)
	}

	if _, err := svc.Receipt(ctx, "PA0001"); !errors.Is(err, store.ErrInvalid) {
		t.Errorf("expected ErrInvalid before any payment, got %v", err)
	}
	svc.Pay(ctx, "T-001", PaymentRequest{Method: "cash", CashTendered: 500}, "")
	doc, err := svc.Receipt(ctx, "PA0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(doc.Number, "REC-") {
		t.Errorf("expected a REC- number, got %s", doc.Number)
	}
}
