package billing

import (
	"fmt"
	"strings"

	"github.com/stluc/hms/internal/store"
)

// Keywords matched against transaction labels when a payment cascades onto
// clinical records.
const (
	keywordConsultation = "Consultation"
	keywordAnalyses     = "Analyses"
	keywordMedication   = "Médicament"
)

// Category classifies a service label.
func Category(service string) string {
	switch {
	case strings.HasPrefix(service, externalPrefix):
		return store.CategoryExternal
	case strings.Contains(service, keywordConsultation):
		return store.CategoryConsultation
	case strings.Contains(service, "Analyse"):
		return store.CategoryAnalysis
	case strings.Contains(service, keywordMedication):
		return store.CategoryMedication
	}
	return store.CategoryOther
}

// Event is a billable event.
type Event struct {
	PatientID   string
	Service     string
	Amount      float64
	Emergency   bool
	StockItemID string
	RecordedBy  string
}

func (ev Event) validate() error {
	if ev.PatientID == "" {
		return fmt.Errorf("%w: patient_id is required", store.ErrInvalid)
	}
	if strings.TrimSpace(ev.Service) == "" {
		return fmt.Errorf("%w: service is required", store.ErrInvalid)
	}
	if ev.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", store.ErrInvalid)
	}
	return nil
}

func (ev Event) transaction() *store.Transaction {
	return &store.Transaction{
		PatientID:   ev.PatientID,
		Service:     ev.Service,
		Category:    Category(ev.Service),
		StockItemID: ev.StockItemID,
		Amount:      ev.Amount,
		Status:      store.TxPending,
		RecordedBy:  ev.RecordedBy,
		Emergency:   ev.Emergency,
	}
}

// Record appends a pending transaction. Other records are left untouched.
func Record(tx *store.Tx, ev Event) (*store.Transaction, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}
	t := ev.transaction()
	tx.InsertTransaction(t)
	return t, nil
}

// RecordExternal appends a pending transaction numbered in the external
// services sequence.
func RecordExternal(tx *store.Tx, ev Event) (*store.Transaction, error) {
	if err := ev.validate(); err != nil {
		return nil, err
	}
	t := ev.transaction()
	t.ID = tx.NextID(store.SeqExternal)
	tx.InsertTransaction(t)
	return t, nil
}

// PendingFor returns the patient's pending transaction for service, if any.
func PendingFor(tx *store.Tx, patientID, service string) *store.Transaction {
	for _, t := range tx.Transactions() {
		if t.PatientID == patientID && t.Service == service && t.Status == store.TxPending {
			return t
		}
	}
	return nil
}

// PendingTransactions returns every pending transaction of the patient.
func PendingTransactions(tx *store.Tx, patientID string) []*store.Transaction {
	var out []*store.Transaction
	for _, t := range tx.Transactions() {
		if t.PatientID == patientID && t.Status == store.TxPending {
			out = append(out, t)
		}
	}
	return out
}

func settle(tx *store.Tx, t *store.Transaction, method string, details *store.PaymentDetails) {
	t.Status = store.TxPaid
	t.PaymentMethod = method
	if details != nil {
		d := *details
		t.PaymentDetails = &d
	}
	paidAt := tx.Now()
	t.PaidAt = &paidAt
}

// cascadeScope selects which record kinds a payment marks paid.
type cascadeScope struct {
	consultations bool
	analyses      bool
	prescriptions bool
}

var cascadeAll = cascadeScope{consultations: true, analyses: true, prescriptions: true}

// scopeOf derives the cascade from the transaction label. It binds to the
// patient and the kind of record only, never to a specific record.
func scopeOf(service string) cascadeScope {
	return cascadeScope{
		consultations: strings.Contains(service, keywordConsultation),
		analyses:      strings.Contains(service, keywordAnalyses),
		prescriptions: strings.Contains(service, keywordMedication),
	}
}

// cascade marks every non-paid record of the patient in scope as paid.
func cascade(tx *store.Tx, patientID, method string, scope cascadeScope) {
	if scope.consultations {
		for _, c := range tx.Consultations() {
			if c.PatientID == patientID && c.Status != store.StatusPaid {
				c.Status = store.Advance(c.Status, store.StatusPaid)
				c.PaymentMethod = method
			}
		}
	}
	if scope.analyses {
		for _, a := range tx.Analyses() {
			if a.PatientID == patientID && a.Status != store.StatusPaid {
				a.Status = store.Advance(a.Status, store.StatusPaid)
				a.PaymentMethod = method
			}
		}
	}
	if scope.prescriptions {
		for _, p := range tx.Prescriptions() {
			if p.PatientID == patientID && p.Status != store.StatusPaid {
				p.Status = store.Advance(p.Status, store.StatusPaid)
				p.PaymentMethod = method
			}
		}
	}
}

// dischargeIfSettled closes the active episode of an emergency patient who
// has nothing left to pay.
func dischargeIfSettled(tx *store.Tx, patientID string) *store.EmergencyEpisode {
	p := tx.FindPatient(patientID)
	if p == nil || !p.Emergency {
		return nil
	}
	if len(PendingTransactions(tx, p.ID)) > 0 {
		return nil
	}
	ep := tx.ActiveEpisode(p.ID)
	if ep == nil {
		return nil
	}
	now := tx.Now()
	ep.Active = false
	ep.Status = store.EpisodeDischarged
	ep.DischargedAt = &now
	return ep
}

// analysesBilled reports whether a pending analysis charge of any kind
// (lab or emergency) already covers the patient's analyses.
func analysesBilled(tx *store.Tx, patientID string) bool {
	for _, t := range PendingTransactions(tx, patientID) {
		if t.Category == store.CategoryAnalysis {
			return true
		}
	}
	return false
}

// unbilledAnalyses returns the patient's unpaid analyses while no analysis
// charge is pending for the patient.
func unbilledAnalyses(tx *store.Tx, patientID string) []*store.Analysis {
	if analysesBilled(tx, patientID) {
		return nil
	}
	var out []*store.Analysis
	for _, a := range tx.Analyses() {
		if a.PatientID == patientID && a.Status != store.StatusPaid {
			out = append(out, a)
		}
	}
	return out
}
