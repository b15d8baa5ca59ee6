package billing

import (
	"github.com/stluc/hms/internal/store"
)

// Service labels written on transactions. Payment cascades and statistics
// read these labels back, so they are part of the ledger format.
const (
	ServiceLabAnalyses           = "Analyses de laboratoire"
	ServiceEmergencyConsultation = "Consultation Urgence"
	ServiceEmergencyAnalyses     = "Analyses d'urgence"

	medicationPrefix = "Médicament: "
	externalPrefix   = "Service Externe: "
)

// MedicationService is the label of a dispensed medication.
func MedicationService(medication string) string {
	return medicationPrefix + medication
}

// ExternalService is the label of an external service charge.
func ExternalService(name string) string {
	return externalPrefix + name
}

// PaymentMethod is one of the ways the cashier accepts money.
type PaymentMethod struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mobile bool   `json:"mobile,omitempty"`
	Card   bool   `json:"card,omitempty"`
}

var PaymentMethods = []PaymentMethod{
	{ID: "cash", Name: "Cash"},
	{ID: "moncash", Name: "Mon Cash", Mobile: true},
	{ID: "natcash", Name: "NatCash", Mobile: true},
	{ID: "debit", Name: "Carte Débit", Card: true},
	{ID: "credit", Name: "Carte Credit", Card: true},
	{ID: "mastercard", Name: "Master Card", Card: true},
	{ID: "bank-transfer", Name: "Virement Bancaire"},
}

func findMethod(id string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if m.ID == id {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// MethodName returns the display name of a payment method.
func MethodName(id string) string {
	if m, ok := findMethod(id); ok {
		return m.Name
	}
	return "Inconnu"
}

// PaymentResult reports what a payment settled.
type PaymentResult struct {
	Transactions []*store.Transaction    `json:"transactions"`
	Total        float64                 `json:"total"`
	Change       float64                 `json:"change,omitempty"`
	Discharged   *store.EmergencyEpisode `json:"discharged,omitempty"`
}

// Statement is the cashier's view of a patient's account.
type Statement struct {
	Patient          *store.Patient       `json:"patient"`
	Pending          []*store.Transaction `json:"pending"`
	Paid             []*store.Transaction `json:"paid"`
	UnbilledAnalyses []*store.Analysis    `json:"unbilled_analyses"`
	TotalPending     float64              `json:"total_pending"`
	TotalPaid        float64              `json:"total_paid"`
	Total            float64              `json:"total"`
}

// CashierTotals summarizes collected payments.
type CashierTotals struct {
	Today         float64 `json:"today"`
	Week          float64 `json:"week"`
	TodayCount    int     `json:"today_count"`
	TodayPatients int     `json:"today_patients"`
}

// ChargeRequest records an arbitrary billable event.
type ChargeRequest struct {
	PatientID string  `json:"patient_id"`
	Service   string  `json:"service"`
	Amount    float64 `json:"amount"`
	Emergency bool    `json:"emergency"`
}

// ExternalChargeRequest bills a service from the external services catalog.
type ExternalChargeRequest struct {
	PatientID string `json:"patient_id"`
	Service   string `json:"service"`
}
