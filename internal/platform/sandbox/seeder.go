// Package sandbox loads the demonstration data set used for training and UI
// demos, and exports store records as newline-delimited JSON.
package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stluc/hms/internal/platform/apierr"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/internal/store"
)

// DemoPIN is the check-in PIN of every demo employee.
const DemoPIN = "1234"

// SeedResult counts the records loaded by Seed.
type SeedResult struct {
	Patients      int           `json:"patients"`
	Consultations int           `json:"consultations"`
	Analyses      int           `json:"analyses"`
	Prescriptions int           `json:"prescriptions"`
	Transactions  int           `json:"transactions"`
	Stock         int           `json:"stock"`
	Appointments  int           `json:"appointments"`
	Employees     int           `json:"employees"`
	Attendance    int           `json:"attendance"`
	Episodes      int           `json:"episodes"`
	Duration      time.Duration `json:"duration"`
}

func clock(day time.Time, hour, minute int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, day.Location())
}

// Seed loads the demo data set into st in one transaction. It fails with
// store.ErrConflict when the demo patients already exist.
func Seed(ctx context.Context, st *store.Store) (*SeedResult, error) {
	start := time.Now()
	result := &SeedResult{}
	// Every demo employee shares the same PIN, so it is hashed once.
	pinHash, err := auth.HashPIN(DemoPIN)
	if err != nil {
		return nil, err
	}
	err = st.RunInTransaction(ctx, func(tx *store.Tx) error {
		now := tx.Now()
		today := clock(now, 0, 0)
		earlier := today.AddDate(0, 0, -3)
		day := func(t time.Time) string { return t.Format("2006-01-02") }

		patients := []*store.Patient{
			{ID: "PA0001", Name: "Jean Dupont", DOB: "1985-03-15", Birthplace: "Paris, France", Phone: "06 12 34 56 78", Address: "12 Rue de la Paix, Paris", RegisteredAt: clock(earlier, 9, 15)},
			{ID: "PA0002", Name: "Marie Lambert", DOB: "1992-07-22", Birthplace: "Lyon, France", Phone: "06 23 45 67 89", Address: "45 Avenue des Champs, Lyon", RegisteredAt: clock(earlier, 10, 30)},
			{ID: "PED0001", Name: "Lucas Petit", DOB: "2018-11-05", Birthplace: "Marseille, France", Phone: "06 34 56 78 90", Address: "78 Boulevard du Port, Marseille", Responsible: "Marie Petit", Pediatric: true, RegisteredAt: clock(earlier, 14, 20)},
			{ID: "URG0001", Name: "Robert Gravement", DOB: "1965-08-30", Birthplace: "Lille, France", Phone: "06 45 67 89 01", Address: "23 Rue de la Gare, Lille", Emergency: true},
			{ID: "URG-PED0001", Name: "Emma Gravement", DOB: "2019-05-15", Birthplace: "Paris, France", Phone: "06 56 78 90 12", Address: "34 Rue de la Santé, Paris", Responsible: "Sophie Gravement", Pediatric: true, Emergency: true},
		}
		for _, p := range patients {
			p.RegisteredBy = "Réception"
			if err := tx.InsertPatient(p); err != nil {
				return err
			}
		}
		result.Patients = len(patients)

		consultations := []*store.Consultation{
			{
				ID: "C-001", PatientID: "PA0001", Doctor: "Dr. Jean Martin", Type: "Consultation Générale",
				Diagnosis: "Grippe saisonnière", Notes: "Repos recommandé",
				Medications: []store.MedicationLine{
					{Name: "Paracétamol 500mg", Dosage: "1 comprimé", Frequency: "3 fois par jour", Duration: "5 jours"},
					{Name: "Vitamine C", Dosage: "1 comprimé", Frequency: "1 fois par jour", Duration: "10 jours"},
				},
				Analyses:  []string{"Analyse de sang", "Analyse d'urine"},
				Status:    store.StatusPendingPayment,
				CreatedAt: clock(earlier, 10, 15),
			},
			{
				ID: "C-002", PatientID: "PA0002", Doctor: "Dr. Marie Curie", Type: "Consultation Générale",
				Diagnosis: "Examen de routine", Notes: "À suivre dans 1 mois",
				Medications: []store.MedicationLine{
					{Name: "Vitamine D", Dosage: "1 comprimé", Frequency: "1 fois par jour", Duration: "30 jours"},
				},
				Analyses: []string{"Analyse de sang"},
				Status:   store.StatusPendingPayment,
			},
		}
		for _, c := range consultations {
			tx.InsertConsultation(c)
		}
		result.Consultations = len(consultations)

		analyses := []*store.Analysis{
			{ID: "A-001", PatientID: "PA0001", ConsultationID: "C-001", Analyses: []string{"Analyse de sang", "Analyse d'urine"}, Price: 500, Results: "Résultats normaux. Pas d'anomalie détectée.", Status: store.StatusPendingPayment, CreatedAt: clock(earlier, 10, 15)},
			{ID: "A-002", PatientID: "PA0002", ConsultationID: "C-002", Analyses: []string{"Analyse de sang"}, Price: 300, Status: store.StatusPendingPayment},
		}
		for _, a := range analyses {
			tx.InsertAnalysis(a)
		}
		result.Analyses = len(analyses)

		prescriptions := []*store.Prescription{
			{ID: "R-001", PatientID: "PA0001", ConsultationID: "C-001", Text: "Paracétamol 500mg - 1 comprimé 3 fois par jour pendant 5 jours", Status: store.StatusPendingPayment, CreatedAt: clock(earlier, 10, 15)},
			{ID: "R-002", PatientID: "PA0001", ConsultationID: "C-001", Text: "Vitamine C - 1 comprimé par jour", Status: store.StatusPendingPayment, CreatedAt: clock(earlier, 10, 15)},
			{ID: "R-003", PatientID: "PA0002", ConsultationID: "C-002", Text: "Vitamine D - 1 comprimé par jour pendant 30 jours", Status: store.StatusPendingPayment},
		}
		for _, p := range prescriptions {
			tx.InsertPrescription(p)
		}
		result.Prescriptions = len(prescriptions)

		transactions := []*store.Transaction{
			{ID: "T-001", PatientID: "PA0001", Service: "Consultation Générale", Category: store.CategoryConsultation, Amount: 500, RecordedBy: "Dr. Jean Martin", CreatedAt: clock(earlier, 10, 15)},
			{ID: "T-002", PatientID: "PA0002", Service: "Consultation Générale", Category: store.CategoryConsultation, Amount: 500, RecordedBy: "Dr. Marie Curie"},
			{ID: "EXT-0001", PatientID: "PA0002", Service: "Service Externe: Pansement", Category: store.CategoryExternal, Amount: 150, RecordedBy: "Infirmière Sophie"},
		}
		for _, t := range transactions {
			tx.InsertTransaction(t)
		}
		result.Transactions = len(transactions)

		stock := []*store.StockItem{
			{ID: "MED-001", Medication: "Paracétamol 500mg", Quantity: 150, Threshold: 20, Price: 50},
			{ID: "MED-002", Medication: "Ibuprofène 400mg", Quantity: 80, Threshold: 15, Price: 75},
			{ID: "MED-003", Medication: "Amoxicilline 500mg", Quantity: 45, Threshold: 10, Price: 120},
			{ID: "MED-004", Medication: "Vitamine C", Quantity: 5, Threshold: 10, Price: 30},
			{ID: "MED-005", Medication: "Vitamine D", Quantity: 60, Threshold: 15, Price: 90},
			{ID: "MED-006", Medication: "Anti-inflammatoire", Quantity: 35, Threshold: 10, Price: 150},
		}
		for _, s := range stock {
			tx.InsertStockItem(s)
		}
		result.Stock = len(stock)

		appointments := []*store.Appointment{
			{ID: "RDV-001", PatientID: "PA0002", PatientName: "Marie Lambert", Doctor: "Dr. Marie Curie", Date: day(today), Time: "10:00", Reason: "Contrôle de routine", Status: store.AppointmentScheduled, CreatedBy: "Réceptionniste Ana"},
			{ID: "RDV-002", PatientID: "PED0001", PatientName: "Lucas Petit", Doctor: "Dr. Jean Martin", Date: day(today.AddDate(0, 0, 1)), Time: "14:00", Reason: "Suivi traitement", Status: store.AppointmentScheduled, CreatedBy: "Réceptionniste Ana"},
		}
		for _, a := range appointments {
			tx.InsertAppointment(a)
		}
		result.Appointments = len(appointments)

		employees := []*store.Employee{
			{ID: "EMP001", Name: "Dr. Jean Martin", Role: "doctor", Email: "jean.martin@hopital.fr", Phone: "01 23 45 67 89", Access: "Consultation, Rendez-vous"},
			{ID: "EMP002", Name: "Dr. Marie Curie", Role: "doctor", Email: "marie.curie@hopital.fr", Phone: "01 23 45 67 90", Access: "Consultation, Rendez-vous"},
			{ID: "EMP003", Name: "Paul Labo", Role: "lab", Email: "paul.labo@hopital.fr", Phone: "01 23 45 67 91", Access: "Laboratoire"},
			{ID: "EMP004", Name: "Sophie Pharma", Role: "pharmacy", Email: "sophie.pharma@hopital.fr", Phone: "01 23 45 67 92", Access: "Pharmacie"},
			{ID: "EMP005", Name: "Ana Réception", Role: "reception", Email: "ana.reception@hopital.fr", Phone: "01 23 45 67 93", Access: "Réception, Patients, Rendez-vous"},
			{ID: "EMP006", Name: "Marc Caissier", Role: "cashier", Email: "marc.caissier@hopital.fr", Phone: "01 23 45 67 94", Access: "Caisse"},
		}
		for _, e := range employees {
			e.PINHash = pinHash
			tx.InsertEmployee(e)
		}
		result.Employees = len(employees)

		checkOut := clock(today, 17, 0)
		attendance := []*store.AttendanceRecord{
			{EmployeeID: "EMP001", Date: day(today), CheckIn: clock(today, 8, 30), CheckOut: &checkOut},
			{EmployeeID: "EMP005", Date: day(today), CheckIn: clock(today, 7, 45)},
		}
		for _, r := range attendance {
			tx.InsertAttendance(r)
		}
		result.Attendance = len(attendance)

		episodes := []*store.EmergencyEpisode{
			{ID: "E-001", PatientID: "URG0001", Doctor: "Dr. Jean Martin", Active: true, Status: store.EpisodeInTreatment, Notes: "Patient arrivé en ambulance, état stable"},
			{ID: "E-002", PatientID: "URG-PED0001", Doctor: "Dr. Marie Curie", Active: true, Status: store.EpisodeInTreatment, Notes: "Enfant fiévreux, surveillance nécessaire"},
		}
		for _, e := range episodes {
			if err := tx.InsertEpisode(e); err != nil {
				return err
			}
		}
		result.Episodes = len(episodes)
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

// exporters lists the record families that can be exported.
var exporters = map[string]func(tx *store.Tx) any{
	"patients":      func(tx *store.Tx) any { return tx.Patients() },
	"consultations": func(tx *store.Tx) any { return tx.Consultations() },
	"analyses":      func(tx *store.Tx) any { return tx.Analyses() },
	"prescriptions": func(tx *store.Tx) any { return tx.Prescriptions() },
	"transactions":  func(tx *store.Tx) any { return tx.Transactions() },
	"stock":         func(tx *store.Tx) any { return tx.Stock() },
	"appointments":  func(tx *store.Tx) any { return tx.Appointments() },
	"employees":     func(tx *store.Tx) any { return tx.Employees() },
	"attendance":    func(tx *store.Tx) any { return tx.Attendance() },
	"episodes":      func(tx *store.Tx) any { return tx.Episodes() },
}

// ExportNDJSON writes every record of the family as newline-delimited JSON.
func ExportNDJSON(ctx context.Context, st *store.Store, w io.Writer, family string) error {
	export, ok := exporters[family]
	if !ok {
		return fmt.Errorf("%w: unknown record type %q", store.ErrNotFound, family)
	}
	var records []json.RawMessage
	err := st.View(ctx, func(tx *store.Tx) error {
		b, err := json.Marshal(export(tx))
		if err != nil {
			return err
		}
		return json.Unmarshal(b, &records)
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding %s: %w", family, err)
		}
	}
	return nil
}

// SeedHandler exposes demo data loading and record export.
type SeedHandler struct {
	store *store.Store
}

func NewSeedHandler(st *store.Store) *SeedHandler {
	return &SeedHandler{store: st}
}

// RegisterRoutes registers sandbox routes on the given Echo group.
func (h *SeedHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/seed", h.handleSeed)
	g.GET("/export/ndjson/:type", h.handleExportNDJSON)
}

func (h *SeedHandler) handleSeed(c echo.Context) error {
	result, err := Seed(c.Request().Context(), h.store)
	if err != nil {
		return apierr.From(err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *SeedHandler) handleExportNDJSON(c echo.Context) error {
	family := c.Param("type")
	if _, ok := exporters[family]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("unknown record type %q", family))
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)
	return ExportNDJSON(c.Request().Context(), h.store, c.Response().Writer, family)
}
