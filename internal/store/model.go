package store

import (
	"fmt"
	"strings"
	"time"
)

// Record statuses shared by consultations, analyses and prescriptions.
const (
	StatusPending        = "pending"
	StatusPendingPayment = "pending-payment"
	StatusPaid           = "paid"
)

// Transaction statuses.
const (
	TxPending = "pending"
	TxPaid    = "paid"
)

// Transaction categories derived from the service label when the transaction
// is recorded.
const (
	CategoryConsultation = "consultation"
	CategoryAnalysis     = "analysis"
	CategoryMedication   = "medication"
	CategoryExternal     = "external"
	CategoryOther        = "other"
)

// Appointment statuses.
const (
	AppointmentScheduled = "scheduled"
	AppointmentCancelled = "cancelled"
	AppointmentCompleted = "completed"
)

// Emergency episode statuses.
const (
	EpisodeInTreatment = "En traitement"
	EpisodeAwaitingPay = "Traitement terminé - En attente de paiement"
	EpisodeDischarged  = "Payé et sorti"
)

// Vitals captured at registration.
type Vitals struct {
	Temperature float64 `json:"temperature,omitempty"`
	Systolic    int     `json:"systolic,omitempty"`
	Diastolic   int     `json:"diastolic,omitempty"`
	Pulse       int     `json:"pulse,omitempty"`
	Respiratory int     `json:"respiratory,omitempty"`
	Oxygen      int     `json:"oxygen,omitempty"`
	Weight      float64 `json:"weight,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}

// Patient is immutable once inserted. The ID prefix encodes the category.
type Patient struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DOB          string    `json:"dob"`
	Birthplace   string    `json:"birthplace,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Responsible  string    `json:"responsible,omitempty"`
	Pediatric    bool      `json:"pediatric"`
	Emergency    bool      `json:"emergency"`
	Vitals       *Vitals   `json:"vitals,omitempty"`
	RegisteredBy string    `json:"registered_by,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// MedicationLine is one row of a prescription as entered by the doctor.
type MedicationLine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

// Complete reports whether every field of the line is filled in.
func (m MedicationLine) Complete() bool {
	return strings.TrimSpace(m.Name) != "" &&
		strings.TrimSpace(m.Dosage) != "" &&
		strings.TrimSpace(m.Frequency) != "" &&
		strings.TrimSpace(m.Duration) != ""
}

// Text renders the line the way it is printed on the prescription.
func (m MedicationLine) Text() string {
	return fmt.Sprintf("%s - %s %s pendant %s", m.Name, m.Dosage, m.Frequency, m.Duration)
}

type Consultation struct {
	ID            string           `json:"id"`
	PatientID     string           `json:"patient_id"`
	Doctor        string           `json:"doctor"`
	Type          string           `json:"type"`
	Diagnosis     string           `json:"diagnosis,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	Medications   []MedicationLine `json:"medications"`
	Analyses      []string         `json:"analyses"`
	Status        string           `json:"status"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	Emergency     bool             `json:"emergency"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Analysis groups the lab work requested by one consultation or emergency
// episode. ConsultationID holds the episode ID for emergency packages.
type Analysis struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	ConsultationID string     `json:"consultation_id"`
	Analyses       []string   `json:"analyses"`
	Price          float64    `json:"price"`
	Results        string     `json:"results"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	Emergency      bool       `json:"emergency"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// HasResults reports whether results were entered.
func (a *Analysis) HasResults() bool {
	return strings.TrimSpace(a.Results) != ""
}

type Prescription struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	ConsultationID string     `json:"consultation_id"`
	Text           string     `json:"prescription"`
	Delivered      bool       `json:"delivered"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"payment_method,omitempty"`
	Emergency      bool       `json:"emergency"`
	CreatedAt      time.Time  `json:"created_at"`
}

// PaymentDetails keeps what the cashier entered for a payment. Card numbers
// are reduced to their last four digits before they reach the store.
type PaymentDetails struct {
	CashTendered float64 `json:"cash_tendered,omitempty"`
	Change       float64 `json:"change,omitempty"`
	Reference    string  `json:"reference,omitempty"`
	CardLast4    string  `json:"card_last4,omitempty"`
	CardHolder   string  `json:"card_holder,omitempty"`
}

// Transaction is append-only: once inserted only its payment fields change.
type Transaction struct {
	ID             string          `json:"id"`
	PatientID      string          `json:"patient_id"`
	Service        string          `json:"service"`
	Category       string          `json:"category"`
	StockItemID    string          `json:"stock_item_id,omitempty"`
	Amount         float64         `json:"amount"`
	Status         string          `json:"status"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	PaymentDetails *PaymentDetails `json:"payment_details,omitempty"`
	RecordedBy     string          `json:"recorded_by,omitempty"`
	Emergency      bool            `json:"emergency"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

type EmergencyEpisode struct {
	ID           string     `json:"id"`
	PatientID    string     `json:"patient_id"`
	Doctor       string     `json:"doctor,omitempty"`
	Active       bool       `json:"active"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	AdmittedAt   time.Time  `json:"admitted_at"`
	DischargedAt *time.Time `json:"discharged_at,omitempty"`
}

type StockItem struct {
	ID         string    `json:"id"`
	Medication string    `json:"medication"`
	Quantity   int       `json:"quantity"`
	Threshold  int       `json:"threshold"`
	Price      float64   `json:"price"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Low reports whether the item is at or below its alert threshold.
func (s *StockItem) Low() bool {
	return s.Quantity <= s.Threshold
}

type Appointment struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Doctor      string    `json:"doctor"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Employee PINs are stored as bcrypt hashes and never serialized.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	PINHash   string    `json:"-"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Access    string    `json:"access,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AttendanceRecord struct {
	EmployeeID string     `json:"employee_id"`
	Date       string     `json:"date"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
}

// CatalogItem is a priced entry of one of the configurable catalogs.
// Deleting an entry only deactivates it.
type CatalogItem struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Active bool    `json:"active"`
}

// CatalogKind names one of the three configurable catalogs.
type CatalogKind string

const (
	ConsultationTypes CatalogKind = "consultation-types"
	LabAnalyses       CatalogKind = "lab-analyses"
	ExternalServices  CatalogKind = "external-services"
)

type EmergencyPrices struct {
	Consultation float64 `json:"consultation"`
	Analysis     float64 `json:"analysis"`
}

type HospitalProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
