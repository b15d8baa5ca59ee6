// Package medication runs the hospital pharmacy: stock, availability checks
// for prescribers and dispensing against consultations.
package medication

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/billing"
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

func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// SetEvents attaches the desk event hub.
func (s *Service) SetEvents(h *websocket.Hub) {
	s.events = h
}

// Check reports, for every complete medication line, whether the pharmacy
// can serve it.
func (s *Service) Check(ctx context.Context, lines []store.MedicationLine) ([]Availability, error) {
	out := []Availability{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = checkLines(tx, lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one complete medication line is required", store.ErrInvalid)
	}
	return out, nil
}

func checkLines(tx *store.Tx, lines []store.MedicationLine) []Availability {
	out := []Availability{}
	for _, line := range lines {
		if !line.Complete() {
			continue
		}
		a := Availability{Line: line, Text: line.Text()}
		item := tx.MatchStock(line.Name)
		switch {
		case item == nil:
			a.Reason = ReasonNotStocked
		case item.Quantity <= 0:
			a.StockItemID = item.ID
			a.Reason = ReasonOutOfStock
		default:
			a.Available = true
			a.StockItemID = item.ID
			a.InStock = item.Quantity
			a.Price = item.Price
		}
		out = append(out, a)
	}
	return out
}

// PrescriptionReceipt prints the lines the hospital cannot serve so the
// patient can buy them outside.
func (s *Service) PrescriptionReceipt(ctx context.Context, req *CheckRequest, doctor string) (*receipt.Document, error) {
	var doc *receipt.Document
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, req.PatientID)
		if err != nil {
			return err
		}
		var missing []string
		for _, a := range checkLines(tx, req.Medications) {
			if !a.Available {
				missing = append(missing, a.Text)
			}
		}
		if len(missing) == 0 {
			return fmt.Errorf("%w: every medication is available at the hospital", store.ErrInvalid)
		}
		doc = s.docs.PurchaseReceipt(*tx.Hospital(), p, doctor, missing, tx.Now())
		return nil
	})
	return doc, err
}

// Orders groups the patient's released prescriptions by consultation. When
// nothing is released yet but prescriptions wait for payment, the result
// says so.
func (s *Service) Orders(ctx context.Context, patientQuery string) (*PatientOrders, error) {
	var res *PatientOrders
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, patientQuery)
		if err != nil {
			return err
		}
		res = &PatientOrders{Patient: p, Orders: []Order{}}
		index := map[string]int{}
		for _, rx := range tx.Prescriptions() {
			if rx.PatientID != p.ID {
				continue
			}
			if !store.Visible(rx.Status, rx.Emergency || p.Emergency) {
				if rx.Status == store.StatusPendingPayment {
					res.AwaitingPayment = true
				}
				continue
			}
			i, ok := index[rx.ConsultationID]
			if !ok {
				i = len(res.Orders)
				index[rx.ConsultationID] = i
				res.Orders = append(res.Orders, newOrder(tx, rx, p))
			}
			res.Orders[i].add(tx, rx)
		}
		if len(res.Orders) > 0 {
			res.AwaitingPayment = false
		}
		return nil
	})
	return res, err
}

func newOrder(tx *store.Tx, first *store.Prescription, p *store.Patient) Order {
	o := Order{
		ConsultationID: first.ConsultationID,
		Emergency:      first.Emergency || p.Emergency,
		Paid:           first.Status == store.StatusPaid,
		Delivered:      true,
		AllAvailable:   true,
		Lines:          []OrderLine{},
		Missing:        []string{},
	}
	if c := tx.FindConsultation(first.ConsultationID); c != nil {
		o.Doctor = c.Doctor
	} else if ep := tx.FindEpisode(first.ConsultationID); ep != nil {
		o.Doctor = ep.Doctor
	}
	return o
}

func (o *Order) add(tx *store.Tx, rx *store.Prescription) {
	line := OrderLine{PrescriptionID: rx.ID, Text: rx.Text, Delivered: rx.Delivered}
	if item := tx.MatchStock(rx.Text); item != nil {
		line.StockItemID = item.ID
		line.InStock = item.Quantity
		line.Price = item.Price
		line.Available = item.Quantity > 0
	}
	if !rx.Delivered {
		o.Delivered = false
		if !line.Available {
			o.AllAvailable = false
			o.Missing = append(o.Missing, rx.Text)
		}
	}
	o.Lines = append(o.Lines, line)
}

// Dispense hands out every undelivered prescription of a consultation. It
// succeeds only when each line can take one unit from stock; otherwise
// nothing is decremented, delivered or billed. Prescriptions must be paid
// unless they belong to an emergency.
func (s *Service) Dispense(ctx context.Context, consultationID, by string) (*DispenseResult, error) {
	return s.dispense(ctx, consultationID, by, false)
}

// DispensePartial hands out the lines that have stock and reports the rest
// as missing.
func (s *Service) DispensePartial(ctx context.Context, consultationID, by string) (*DispenseResult, error) {
	return s.dispense(ctx, consultationID, by, true)
}

func (s *Service) dispense(ctx context.Context, consultationID, by string, partial bool) (*DispenseResult, error) {
	res := &DispenseResult{
		ConsultationID: consultationID,
		Delivered:      []*store.Prescription{},
		Missing:        []string{},
		Transactions:   []*store.Transaction{},
	}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		pending, err := undelivered(tx, consultationID)
		if err != nil {
			return err
		}
		p := tx.FindPatient(pending[0].PatientID)
		if p == nil {
			return fmt.Errorf("%w: patient %s", store.ErrNotFound, pending[0].PatientID)
		}
		for _, rx := range pending {
			if !store.Visible(rx.Status, rx.Emergency || p.Emergency) {
				return fmt.Errorf("%w: prescription %s is awaiting payment", store.ErrConflict, rx.ID)
			}
		}

		if !partial {
			var missing []string
			for _, rx := range pending {
				if item := tx.MatchStock(rx.Text); item == nil || item.Quantity <= 0 {
					missing = append(missing, rx.Text)
				}
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w: %s", store.ErrInsufficientStock, strings.Join(missing, ", "))
			}
		}

		for _, rx := range pending {
			// Earlier lines may have used up a shared item.
			item := tx.MatchStock(rx.Text)
			if item == nil || item.Quantity <= 0 {
				if !partial {
					return fmt.Errorf("%w: %s", store.ErrInsufficientStock, rx.Text)
				}
				res.Missing = append(res.Missing, rx.Text)
				continue
			}
			if err := tx.DecrementStock(item.ID); err != nil {
				return err
			}
			now := tx.Now()
			rx.Delivered = true
			rx.DeliveredAt = &now
			res.Delivered = append(res.Delivered, rx)

			t, err := charge(tx, p, rx, item, by)
			if err != nil {
				return err
			}
			if t != nil {
				res.Transactions = append(res.Transactions, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mode := modeFull
	if partial {
		mode = modePartial
	}
	s.metrics.Dispensed(mode, len(res.Delivered))
	for _, t := range res.Transactions {
		s.metrics.TransactionRecorded(t.Category, t.Amount)
	}
	s.events.Charged(res.Transactions)
	s.logger.Info().
		Str("consultation_id", consultationID).
		Str("mode", mode).
		Int("delivered", len(res.Delivered)).
		Int("missing", len(res.Missing)).
		Str("by", by).
		Msg("medications dispensed")
	s.refreshLowStock(ctx)
	return res, nil
}

// undelivered returns the consultation's prescriptions still to hand out.
func undelivered(tx *store.Tx, consultationID string) ([]*store.Prescription, error) {
	var all, pending []*store.Prescription
	for _, rx := range tx.Prescriptions() {
		if rx.ConsultationID != consultationID {
			continue
		}
		all = append(all, rx)
		if !rx.Delivered {
			pending = append(pending, rx)
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: no prescriptions for %s", store.ErrNotFound, consultationID)
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("%w: medications for %s were already delivered", store.ErrConflict, consultationID)
	}
	return pending, nil
}

// charge bills one unit of the medication unless a pending charge for it
// already exists for the patient.
func charge(tx *store.Tx, p *store.Patient, rx *store.Prescription, item *store.StockItem, by string) (*store.Transaction, error) {
	service := billing.MedicationService(item.Medication)
	if billing.PendingFor(tx, p.ID, service) != nil {
		return nil, nil
	}
	return billing.Record(tx, billing.Event{
		PatientID:   p.ID,
		Service:     service,
		Amount:      item.Price,
		Emergency:   p.Emergency || rx.Emergency,
		StockItemID: item.ID,
		RecordedBy:  by,
	})
}

// PurchaseReceipt prints the undelivered lines of a consultation that the
// pharmacy cannot serve.
func (s *Service) PurchaseReceipt(ctx context.Context, consultationID string) (*receipt.Document, error) {
	var doc *receipt.Document
	err := s.store.View(ctx, func(tx *store.Tx) error {
		pending, err := undelivered(tx, consultationID)
		if err != nil {
			return err
		}
		var missing []string
		for _, rx := range pending {
			if item := tx.MatchStock(rx.Text); item == nil || item.Quantity <= 0 {
				missing = append(missing, rx.Text)
			}
		}
		if len(missing) == 0 {
			return fmt.Errorf("%w: every medication of %s is in stock", store.ErrInvalid, consultationID)
		}
		p := tx.FindPatient(pending[0].PatientID)
		if p == nil {
			return fmt.Errorf("%w: patient %s", store.ErrNotFound, pending[0].PatientID)
		}
		doc = s.docs.PurchaseReceipt(*tx.Hospital(), p, "", missing, tx.Now())
		return nil
	})
	return doc, err
}
