package medication

import (
	"github.com/stluc/hms/internal/store"
)

// Reasons a prescribed medication cannot be handed out by the hospital.
const (
	ReasonOutOfStock = "Stock épuisé"
	ReasonNotStocked = "Non disponible à l'hôpital"
)

// Dispense modes, used as metric labels.
const (
	modeFull    = "full"
	modePartial = "partial"
)

// StockRow is a stock item with its low stock flag.
type StockRow struct {
	*store.StockItem
	LowStock bool `json:"low_stock"`
}

type NewStockItem struct {
	Medication string  `json:"medication"`
	Quantity   int     `json:"quantity"`
	Threshold  int     `json:"threshold"`
	Price      float64 `json:"price"`
}

type RestockRequest struct {
	Amount int `json:"amount"`
}

// CheckRequest asks whether the pharmacy can serve medication lines.
type CheckRequest struct {
	PatientID   string                 `json:"patient_id"`
	Medications []store.MedicationLine `json:"medications"`
}

// Availability is the pharmacy's answer for one medication line.
type Availability struct {
	Line        store.MedicationLine `json:"line"`
	Text        string               `json:"text"`
	Available   bool                 `json:"available"`
	StockItemID string               `json:"stock_item_id,omitempty"`
	InStock     int                  `json:"in_stock"`
	Price       float64              `json:"price"`
	Reason      string               `json:"reason,omitempty"`
}

// OrderLine is one prescription of an order with the matching stock.
type OrderLine struct {
	PrescriptionID string  `json:"prescription_id"`
	Text           string  `json:"text"`
	Delivered      bool    `json:"delivered"`
	StockItemID    string  `json:"stock_item_id,omitempty"`
	InStock        int     `json:"in_stock"`
	Price          float64 `json:"price"`
	Available      bool    `json:"available"`
}

// Order groups the prescriptions written during one consultation or
// emergency episode.
type Order struct {
	ConsultationID string      `json:"consultation_id"`
	Doctor         string      `json:"doctor"`
	Emergency      bool        `json:"emergency"`
	Paid           bool        `json:"paid"`
	Delivered      bool        `json:"delivered"`
	AllAvailable   bool        `json:"all_available"`
	Lines          []OrderLine `json:"lines"`
	Missing        []string    `json:"missing"`
}

// PatientOrders is the pharmacy view of a patient.
type PatientOrders struct {
	Patient         *store.Patient `json:"patient"`
	Orders          []Order        `json:"orders"`
	AwaitingPayment bool           `json:"awaiting_payment"`
}

// DispenseResult reports what a dispense handed out and billed.
type DispenseResult struct {
	ConsultationID string                `json:"consultation_id"`
	Delivered      []*store.Prescription `json:"delivered"`
	Missing        []string              `json:"missing"`
	Transactions   []*store.Transaction  `json:"transactions"`
}
