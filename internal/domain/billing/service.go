package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/platform/receipt"
	"github.com/stluc/hms/internal/platform/telemetry"
	"github.com/stluc/hms/internal/platform/websocket"
	"github.com/stluc/hms/internal/store"
)

type Service struct {
	store   *store.Store
	docs    *receipt.Generator
	metrics *telemetry.Metrics
	events  *websocket.Hub
	logger  zerolog.Logger
}

func NewService(st *store.Store, docs *receipt.Generator) *Service {
	return &Service{store: st, docs: docs, logger: zerolog.Nop()}
}

// SetLogger attaches a logger for payment events.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// SetMetrics attaches optional business metrics.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// SetEvents attaches the desk event hub.
func (s *Service) SetEvents(h *websocket.Hub) {
	s.events = h
}

// Charge records a billable event for a patient.
func (s *Service) Charge(ctx context.Context, req *ChargeRequest, by string) (*store.Transaction, error) {
	var t *store.Transaction
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, req.PatientID)
		if err != nil {
			return err
		}
		t, err = Record(tx, Event{
			PatientID:  p.ID,
			Service:    strings.TrimSpace(req.Service),
			Amount:     req.Amount,
			Emergency:  req.Emergency || p.Emergency,
			RecordedBy: by,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorded(t)
	return t, nil
}

// ChargeExternal bills an active entry of the external services catalog.
func (s *Service) ChargeExternal(ctx context.Context, req *ExternalChargeRequest, by string) (*store.Transaction, error) {
	if strings.TrimSpace(req.PatientID) == "" {
		return nil, fmt.Errorf("%w: patient_id is required", store.ErrInvalid)
	}
	if strings.TrimSpace(req.Service) == "" {
		return nil, fmt.Errorf("%w: service is required", store.ErrInvalid)
	}
	var t *store.Transaction
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, req.PatientID)
		if err != nil {
			return err
		}
		item := tx.FindCatalogItemByName(store.ExternalServices, req.Service)
		if item == nil {
			item = tx.FindCatalogItem(store.ExternalServices, req.Service)
		}
		if item == nil || !item.Active {
			return fmt.Errorf("%w: external service %q", store.ErrNotFound, req.Service)
		}
		t, err = RecordExternal(tx, Event{
			PatientID:  p.ID,
			Service:    ExternalService(item.Name),
			Amount:     item.Price,
			RecordedBy: by,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recorded(t)
	return t, nil
}

// BillAnalysis creates the missing lab analyses transaction for an analysis
// that was never billed, and moves the analyses of its consultation to
// pending-payment.
func (s *Service) BillAnalysis(ctx context.Context, analysisID, by string) (*store.Transaction, error) {
	var t *store.Transaction
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		a := tx.FindAnalysis(analysisID)
		if a == nil {
			return fmt.Errorf("%w: analysis %s", store.ErrNotFound, analysisID)
		}
		if a.Status == store.StatusPaid {
			return fmt.Errorf("%w: analysis %s is already paid", store.ErrConflict, a.ID)
		}
		if analysesBilled(tx, a.PatientID) {
			return fmt.Errorf("%w: analyses are already billed for patient %s", store.ErrConflict, a.PatientID)
		}
		if a.Price <= 0 {
			return fmt.Errorf("%w: analysis %s has no price", store.ErrInvalid, a.ID)
		}
		var err error
		t, err = Record(tx, Event{
			PatientID:  a.PatientID,
			Service:    ServiceLabAnalyses,
			Amount:     a.Price,
			Emergency:  a.Emergency,
			RecordedBy: by,
		})
		if err != nil {
			return err
		}
		for _, other := range tx.Analyses() {
			if other.ID == a.ID || (a.ConsultationID != "" && other.ConsultationID == a.ConsultationID) {
				other.Status = store.Advance(other.Status, store.StatusPendingPayment)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recorded(t)
	return t, nil
}

// Pay settles one transaction and cascades onto the patient's records of the
// kind named by the transaction label.
func (s *Service) Pay(ctx context.Context, transactionID string, req PaymentRequest, by string) (*PaymentResult, error) {
	var res *PaymentResult
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		t := tx.FindTransaction(strings.TrimSpace(transactionID))
		if t == nil {
			return fmt.Errorf("%w: no transaction selected (%s)", store.ErrNotFound, transactionID)
		}
		if t.Status == store.TxPaid {
			return fmt.Errorf("%w: transaction %s is already paid", store.ErrConflict, t.ID)
		}
		details, err := req.Details(t.Amount)
		if err != nil {
			return err
		}
		settle(tx, t, req.Method, details)
		cascade(tx, t.PatientID, req.Method, scopeOf(t.Service))
		res = &PaymentResult{
			Transactions: []*store.Transaction{t},
			Total:        t.Amount,
			Change:       details.Change,
			Discharged:   dischargeIfSettled(tx, t.PatientID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.paid(res, req.Method, by)
	return res, nil
}

// PayAll settles every pending transaction of the patient and marks all of
// the patient's clinical records paid. An emergency patient with nothing
// left to pay is discharged; anyone else gets a conflict.
func (s *Service) PayAll(ctx context.Context, patientQuery string, req PaymentRequest, by string) (*PaymentResult, error) {
	var res *PaymentResult
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, patientQuery)
		if err != nil {
			return err
		}
		pending := PendingTransactions(tx, p.ID)
		if len(pending) == 0 {
			if ep := dischargeIfSettled(tx, p.ID); ep != nil {
				cascade(tx, p.ID, req.Method, cascadeAll)
				res = &PaymentResult{Transactions: []*store.Transaction{}, Discharged: ep}
				return nil
			}
			return fmt.Errorf("%w: patient %s has no pending transaction", store.ErrConflict, p.ID)
		}
		var total float64
		for _, t := range pending {
			total += t.Amount
		}
		details, err := req.Details(total)
		if err != nil {
			return err
		}
		for _, t := range pending {
			settle(tx, t, req.Method, details)
		}
		cascade(tx, p.ID, req.Method, cascadeAll)
		res = &PaymentResult{
			Transactions: pending,
			Total:        total,
			Change:       details.Change,
			Discharged:   dischargeIfSettled(tx, p.ID),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.paid(res, req.Method, by)
	return res, nil
}

// Statement returns the patient's pending and paid transactions and the
// analyses still waiting to be billed.
func (s *Service) Statement(ctx context.Context, patientQuery string) (*Statement, error) {
	var st *Statement
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, patientQuery)
		if err != nil {
			return err
		}
		st = &Statement{
			Patient:          p,
			Pending:          []*store.Transaction{},
			Paid:             []*store.Transaction{},
			UnbilledAnalyses: []*store.Analysis{},
		}
		for _, t := range tx.Transactions() {
			if t.PatientID != p.ID {
				continue
			}
			switch t.Status {
			case store.TxPending:
				st.Pending = append(st.Pending, t)
				st.TotalPending += t.Amount
			case store.TxPaid:
				st.Paid = append(st.Paid, t)
				st.TotalPaid += t.Amount
			}
		}
		for _, a := range unbilledAnalyses(tx, p.ID) {
			st.UnbilledAnalyses = append(st.UnbilledAnalyses, a)
			st.TotalPending += a.Price
		}
		st.Total = st.TotalPending + st.TotalPaid
		return nil
	})
	return st, err
}

// List returns transactions, optionally narrowed to one patient and status,
// most recent first.
func (s *Service) List(ctx context.Context, patientQuery, status string) ([]*store.Transaction, error) {
	var out []*store.Transaction
	err := s.store.View(ctx, func(tx *store.Tx) error {
		patientID := ""
		if strings.TrimSpace(patientQuery) != "" {
			p, err := identity.Lookup(tx, patientQuery)
			if err != nil {
				return err
			}
			patientID = p.ID
		}
		all := tx.Transactions()
		out = make([]*store.Transaction, 0, len(all))
		for i := len(all) - 1; i >= 0; i-- {
			t := all[i]
			if patientID != "" && t.PatientID != patientID {
				continue
			}
			if status != "" && t.Status != status {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

// Get returns one transaction.
func (s *Service) Get(ctx context.Context, id string) (*store.Transaction, error) {
	var t *store.Transaction
	err := s.store.View(ctx, func(tx *store.Tx) error {
		t = tx.FindTransaction(id)
		if t == nil {
			return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
		}
		return nil
	})
	return t, err
}

// Recent returns the last n transactions, newest first.
func (s *Service) Recent(ctx context.Context, n int) ([]*store.Transaction, error) {
	all, err := s.List(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Totals sums the payments collected today and over the last seven days.
func (s *Service) Totals(ctx context.Context) (*CashierTotals, error) {
	var totals CashierTotals
	err := s.store.View(ctx, func(tx *store.Tx) error {
		today := DayStart(tx.Now())
		weekStart := today.AddDate(0, 0, -6)
		patients := make(map[string]bool)
		for _, t := range tx.Transactions() {
			if t.Status != store.TxPaid || t.PaidAt == nil {
				continue
			}
			paidDay := DayStart(t.PaidAt.In(today.Location()))
			if !paidDay.Before(weekStart) && !paidDay.After(today) {
				totals.Week += t.Amount
			}
			if paidDay.Equal(today) {
				totals.Today += t.Amount
				totals.TodayCount++
				patients[t.PatientID] = true
			}
		}
		totals.TodayPatients = len(patients)
		return nil
	})
	return &totals, err
}

// Receipt renders the payment receipt of everything the patient paid.
func (s *Service) Receipt(ctx context.Context, patientQuery string) (*receipt.Document, error) {
	var doc *receipt.Document
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, patientQuery)
		if err != nil {
			return err
		}
		doc, err = s.docs.PaymentReceipt(*tx.Hospital(), p, tx.Transactions(), MethodName, tx.Now())
		return err
	})
	return doc, err
}

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (s *Service) recorded(t *store.Transaction) {
	s.metrics.TransactionRecorded(t.Category, t.Amount)
	s.events.Charged([]*store.Transaction{t})
	s.logger.Info().
		Str("transaction_id", t.ID).
		Str("patient_id", t.PatientID).
		Str("service", t.Service).
		Float64("amount", t.Amount).
		Msg("transaction recorded")
}

func (s *Service) paid(res *PaymentResult, method, by string) {
	if len(res.Transactions) > 0 {
		s.metrics.PaymentCollected(method, res.Total)
		s.events.Paid(res.Transactions)
	}
	ids := make([]string, 0, len(res.Transactions))
	for _, t := range res.Transactions {
		ids = append(ids, t.ID)
	}
	s.logger.Info().
		Strs("transaction_ids", ids).
		Str("method", method).
		Float64("total", res.Total).
		Str("cashier", by).
		Msg("payment collected")
	if res.Discharged != nil {
		s.metrics.EpisodeDischarged()
		s.events.EpisodeClosed(res.Discharged)
		s.logger.Info().
			Str("episode_id", res.Discharged.ID).
			Str("patient_id", res.Discharged.PatientID).
			Msg("emergency patient discharged")
	}
}
