package consultation

import (
	"github.com/stluc/hms/internal/store"
)

// DefaultType is used when the doctor does not pick a consultation type.
const DefaultType = "Consultation Générale"

const emergencySuffix = " (Urgence)"

// Request is what the doctor submits at the end of a consultation.
type Request struct {
	PatientID     string                 `json:"patient_id"`
	Type          string                 `json:"type"`
	Diagnosis     string                 `json:"diagnosis"`
	Notes         string                 `json:"notes"`
	Analyses      []string               `json:"analyses"`
	OtherAnalysis string                 `json:"other_analysis"`
	Medications   []store.MedicationLine `json:"medications"`
}

// Result lists every record a consultation created.
type Result struct {
	Consultation  *store.Consultation     `json:"consultation"`
	Analysis      *store.Analysis         `json:"analysis,omitempty"`
	Prescriptions []*store.Prescription   `json:"prescriptions"`
	Transactions  []*store.Transaction    `json:"transactions"`
	Episode       *store.EmergencyEpisode `json:"episode,omitempty"`
}

// Detail is a consultation with the orders attached to it.
type Detail struct {
	*store.Consultation
	PatientName   string                `json:"patient_name"`
	LabOrders     []*store.Analysis     `json:"lab_orders"`
	Prescriptions []*store.Prescription `json:"prescriptions"`
}
