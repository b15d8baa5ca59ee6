package emergency

import (
	"github.com/stluc/hms/internal/store"
)

// Labels of the emergency packages.
const (
	consultationType      = "Consultation Urgence"
	consultationDiagnosis = "Consultation d'urgence"
	labPackage            = "Analyses d'urgence complètes"
	medicationDosage      = "Posologie d'urgence"
)

// PackageMedications are prescribed by the emergency medication package.
var PackageMedications = []string{"Paracétamol 1000mg", "Anti-inflammatoire", "Antibiotique large spectre"}

// ActionResult reports what an emergency action created.
type ActionResult struct {
	Episode       *store.EmergencyEpisode `json:"episode"`
	Opened        bool                    `json:"opened"`
	Consultation  *store.Consultation     `json:"consultation,omitempty"`
	Analysis      *store.Analysis         `json:"analysis,omitempty"`
	Prescriptions []*store.Prescription   `json:"prescriptions,omitempty"`
	Transactions  []*store.Transaction    `json:"transactions"`
}

// Overview is the emergency desk view of one patient.
type Overview struct {
	Patient      *store.Patient          `json:"patient"`
	Episode      *store.EmergencyEpisode `json:"episode,omitempty"`
	Transactions []*store.Transaction    `json:"transactions"`
	TotalDue     float64                 `json:"total_due"`
	TotalPaid    float64                 `json:"total_paid"`
}

// ActiveEpisode is one row of the emergency board.
type ActiveEpisode struct {
	*store.EmergencyEpisode
	PatientName string  `json:"patient_name"`
	Pediatric   bool    `json:"pediatric"`
	TotalDue    float64 `json:"total_due"`
}

type ConsultRequest struct {
	Notes string `json:"notes"`
}

type RecordRequest struct {
	Notes string `json:"notes"`
}
