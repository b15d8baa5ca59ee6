package diagnostics

import (
	"github.com/stluc/hms/internal/store"
)

// WorkItem is one analysis order on the lab worklist.
type WorkItem struct {
	*store.Analysis
	PatientName string `json:"patient_name"`
	RequestedBy string `json:"requested_by"`
}

// PatientAnalyses is the lab view of a patient. Orders not yet released by
// the cashier are withheld and reported through AwaitingPayment.
type PatientAnalyses struct {
	Patient         *store.Patient `json:"patient"`
	Analyses        []WorkItem     `json:"analyses"`
	AwaitingPayment bool           `json:"awaiting_payment"`
}

type ResultsRequest struct {
	Results string `json:"results"`
}
