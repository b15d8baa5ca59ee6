package consultation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/billing"
	"github.com/stluc/hms/internal/domain/emergency"
	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/platform/telemetry"
	"github.com/stluc/hms/internal/platform/websocket"
	"github.com/stluc/hms/internal/store"
)

type Service struct {
	store   *store.Store
	metrics *telemetry.Metrics
	events  *websocket.Hub
	logger  zerolog.Logger
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, logger: zerolog.Nop()}
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

// Record saves a consultation with its billing, lab order and prescriptions.
// Emergency patients are charged the emergency consultation price, their
// records skip the pending-payment gate and an episode is opened for them.
func (s *Service) Record(ctx context.Context, req *Request, doctor string) (*Result, error) {
	res := &Result{Prescriptions: []*store.Prescription{}, Transactions: []*store.Transaction{}}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, req.PatientID)
		if err != nil {
			return err
		}

		typeName := strings.TrimSpace(req.Type)
		if typeName == "" {
			typeName = DefaultType
		}
		ct := tx.FindCatalogItemByName(store.ConsultationTypes, typeName)
		if ct == nil || !ct.Active {
			return fmt.Errorf("%w: unknown consultation type %q", store.ErrInvalid, typeName)
		}
		fee := ct.Price
		if p.Emergency {
			fee = tx.EmergencyPrices().Consultation
		}

		analyses, analysisTotal, err := labOrder(tx, req)
		if err != nil {
			return err
		}
		meds := completeLines(req.Medications)

		status := store.StatusPendingPayment
		if p.Emergency {
			status = store.StatusPending
		}

		c := &store.Consultation{
			PatientID:   p.ID,
			Doctor:      doctor,
			Type:        typeName,
			Diagnosis:   req.Diagnosis,
			Notes:       req.Notes,
			Medications: meds,
			Analyses:    analyses,
			Status:      status,
			Emergency:   p.Emergency,
		}
		tx.InsertConsultation(c)
		res.Consultation = c

		service := typeName
		if p.Emergency {
			service += emergencySuffix
		}
		t, err := billing.Record(tx, billing.Event{
			PatientID:  p.ID,
			Service:    service,
			Amount:     fee,
			Emergency:  p.Emergency,
			RecordedBy: doctor,
		})
		if err != nil {
			return err
		}
		res.Transactions = append(res.Transactions, t)

		if analysisTotal > 0 {
			t, err := billing.Record(tx, billing.Event{
				PatientID:  p.ID,
				Service:    billing.ServiceLabAnalyses,
				Amount:     analysisTotal,
				Emergency:  p.Emergency,
				RecordedBy: doctor,
			})
			if err != nil {
				return err
			}
			res.Transactions = append(res.Transactions, t)

			a := &store.Analysis{
				PatientID:      p.ID,
				ConsultationID: c.ID,
				Analyses:       analyses,
				Price:          analysisTotal,
				Status:         status,
				Emergency:      p.Emergency,
			}
			tx.InsertAnalysis(a)
			res.Analysis = a
		}

		for _, m := range meds {
			rx := &store.Prescription{
				PatientID:      p.ID,
				ConsultationID: c.ID,
				Text:           m.Text(),
				Status:         status,
				Emergency:      p.Emergency,
			}
			tx.InsertPrescription(rx)
			res.Prescriptions = append(res.Prescriptions, rx)
		}

		if p.Emergency {
			res.Episode, _, err = emergency.EnsureEpisode(tx, p.ID, doctor)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, t := range res.Transactions {
		s.metrics.TransactionRecorded(t.Category, t.Amount)
	}
	s.events.Charged(res.Transactions)
	s.logger.Info().
		Str("consultation_id", res.Consultation.ID).
		Str("patient_id", res.Consultation.PatientID).
		Str("doctor", doctor).
		Int("prescriptions", len(res.Prescriptions)).
		Msg("consultation recorded")
	return res, nil
}

// labOrder resolves the requested analyses against the lab catalog. The free
// "other" analysis is added at no charge.
func labOrder(tx *store.Tx, req *Request) ([]string, float64, error) {
	names := []string{}
	var total float64
	for _, name := range req.Analyses {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		item := tx.FindCatalogItemByName(store.LabAnalyses, name)
		if item == nil || !item.Active {
			return nil, 0, fmt.Errorf("%w: unknown lab analysis %q", store.ErrInvalid, name)
		}
		names = append(names, item.Name)
		total += item.Price
	}
	if other := strings.TrimSpace(req.OtherAnalysis); other != "" {
		names = append(names, other)
	}
	return names, total, nil
}

// completeLines drops medication rows with a blank field.
func completeLines(lines []store.MedicationLine) []store.MedicationLine {
	out := []store.MedicationLine{}
	for _, m := range lines {
		m = store.MedicationLine{
			Name:      strings.TrimSpace(m.Name),
			Dosage:    strings.TrimSpace(m.Dosage),
			Frequency: strings.TrimSpace(m.Frequency),
			Duration:  strings.TrimSpace(m.Duration),
		}
		if m.Complete() {
			out = append(out, m)
		}
	}
	return out
}

// Get returns a consultation with its lab orders and prescriptions.
func (s *Service) Get(ctx context.Context, id string) (*Detail, error) {
	var d *Detail
	err := s.store.View(ctx, func(tx *store.Tx) error {
		c := tx.FindConsultation(id)
		if c == nil {
			return fmt.Errorf("%w: consultation %s", store.ErrNotFound, id)
		}
		d = &Detail{Consultation: c, LabOrders: []*store.Analysis{}, Prescriptions: []*store.Prescription{}}
		if p := tx.FindPatient(c.PatientID); p != nil {
			d.PatientName = p.Name
		}
		for _, a := range tx.Analyses() {
			if a.ConsultationID == c.ID {
				d.LabOrders = append(d.LabOrders, a)
			}
		}
		for _, rx := range tx.Prescriptions() {
			if rx.ConsultationID == c.ID {
				d.Prescriptions = append(d.Prescriptions, rx)
			}
		}
		return nil
	})
	return d, err
}

// List returns consultations newest first, optionally for one patient.
func (s *Service) List(ctx context.Context, patientQuery string) ([]*store.Consultation, error) {
	out := []*store.Consultation{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		patientID := ""
		if strings.TrimSpace(patientQuery) != "" {
			p, err := identity.Lookup(tx, patientQuery)
			if err != nil {
				return err
			}
			patientID = p.ID
		}
		for _, c := range tx.Consultations() {
			if patientID == "" || c.PatientID == patientID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}
