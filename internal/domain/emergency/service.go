package emergency

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/billing"
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

// SetLogger attaches a logger for emergency events.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// SetMetrics attaches optional business metrics.
func (s *Service) SetMetrics(m *telemetry.Metrics) {
	s.metrics = m
}

// SetEvents attaches the desk event hub.
func (s *Service) SetEvents(h *websocket.Hub) {
	s.events = h
}

// Admit opens an episode for an emergency patient.
func (s *Service) Admit(ctx context.Context, patientQuery, doctor string) (*store.EmergencyEpisode, error) {
	var ep *store.EmergencyEpisode
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := lookupEmergency(tx, patientQuery)
		if err != nil {
			return err
		}
		ep = &store.EmergencyEpisode{PatientID: p.ID, Doctor: doctor, Active: true, Status: store.EpisodeInTreatment}
		return tx.InsertEpisode(ep)
	})
	if err != nil {
		return nil, err
	}
	s.events.EpisodeOpened(ep)
	s.logger.Info().Str("episode_id", ep.ID).Str("patient_id", ep.PatientID).Msg("emergency episode opened")
	return ep, nil
}

// Consult records an emergency consultation billed at the emergency
// consultation price.
func (s *Service) Consult(ctx context.Context, patientQuery string, req *ConsultRequest, doctor string) (*ActionResult, error) {
	return s.act(ctx, patientQuery, doctor, func(tx *store.Tx, p *store.Patient, res *ActionResult) error {
		c := &store.Consultation{
			PatientID:   p.ID,
			Doctor:      doctor,
			Type:        consultationType,
			Diagnosis:   consultationDiagnosis,
			Notes:       req.Notes,
			Medications: []store.MedicationLine{},
			Analyses:    []string{},
			Status:      store.StatusPending,
			Emergency:   true,
		}
		tx.InsertConsultation(c)
		res.Consultation = c
		t, err := billing.Record(tx, billing.Event{
			PatientID:  p.ID,
			Service:    billing.ServiceEmergencyConsultation,
			Amount:     tx.EmergencyPrices().Consultation,
			Emergency:  true,
			RecordedBy: doctor,
		})
		if err != nil {
			return err
		}
		res.Transactions = append(res.Transactions, t)
		return nil
	})
}

// OrderLab orders the emergency analysis package for the episode.
func (s *Service) OrderLab(ctx context.Context, patientQuery, doctor string) (*ActionResult, error) {
	return s.act(ctx, patientQuery, doctor, func(tx *store.Tx, p *store.Patient, res *ActionResult) error {
		price := tx.EmergencyPrices().Analysis
		a := &store.Analysis{
			PatientID:      p.ID,
			ConsultationID: res.Episode.ID,
			Analyses:       []string{labPackage},
			Price:          price,
			Status:         store.StatusPending,
			Emergency:      true,
		}
		tx.InsertAnalysis(a)
		res.Analysis = a
		t, err := billing.Record(tx, billing.Event{
			PatientID:  p.ID,
			Service:    billing.ServiceEmergencyAnalyses,
			Amount:     price,
			Emergency:  true,
			RecordedBy: doctor,
		})
		if err != nil {
			return err
		}
		res.Transactions = append(res.Transactions, t)
		return nil
	})
}

// OrderMedications prescribes the emergency medication package. Medications
// stocked by the pharmacy are billed at their unit price, once per patient
// while the charge is pending.
func (s *Service) OrderMedications(ctx context.Context, patientQuery, doctor string) (*ActionResult, error) {
	return s.act(ctx, patientQuery, doctor, func(tx *store.Tx, p *store.Patient, res *ActionResult) error {
		for _, med := range PackageMedications {
			rx := &store.Prescription{
				PatientID:      p.ID,
				ConsultationID: res.Episode.ID,
				Text:           med + " - " + medicationDosage,
				Status:         store.StatusPending,
				Emergency:      true,
			}
			tx.InsertPrescription(rx)
			res.Prescriptions = append(res.Prescriptions, rx)

			item := tx.MatchStock(med)
			if item == nil {
				continue
			}
			service := billing.MedicationService(item.Medication)
			if billing.PendingFor(tx, p.ID, service) != nil {
				continue
			}
			t, err := billing.Record(tx, billing.Event{
				PatientID:   p.ID,
				Service:     service,
				Amount:      item.Price,
				Emergency:   true,
				StockItemID: item.ID,
				RecordedBy:  doctor,
			})
			if err != nil {
				return err
			}
			res.Transactions = append(res.Transactions, t)
		}
		return nil
	})
}

// act runs an emergency action against the patient's active episode,
// opening one if needed.
func (s *Service) act(ctx context.Context, patientQuery, doctor string, fn func(tx *store.Tx, p *store.Patient, res *ActionResult) error) (*ActionResult, error) {
	res := &ActionResult{Transactions: []*store.Transaction{}}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := lookupEmergency(tx, patientQuery)
		if err != nil {
			return err
		}
		res.Episode, res.Opened, err = EnsureEpisode(tx, p.ID, doctor)
		if err != nil {
			return err
		}
		return fn(tx, p, res)
	})
	if err != nil {
		return nil, err
	}
	for _, t := range res.Transactions {
		s.metrics.TransactionRecorded(t.Category, t.Amount)
	}
	if res.Opened {
		s.events.EpisodeOpened(res.Episode)
	}
	s.events.Charged(res.Transactions)
	s.logger.Info().
		Str("episode_id", res.Episode.ID).
		Str("patient_id", res.Episode.PatientID).
		Int("transactions", len(res.Transactions)).
		Msg("emergency care recorded")
	return res, nil
}

// SaveRecord stores the doctor's notes and marks treatment finished.
func (s *Service) SaveRecord(ctx context.Context, patientQuery string, req *RecordRequest) (*store.EmergencyEpisode, error) {
	var ep *store.EmergencyEpisode
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		p, err := lookupEmergency(tx, patientQuery)
		if err != nil {
			return err
		}
		ep = tx.ActiveEpisode(p.ID)
		if ep == nil {
			return fmt.Errorf("%w: no active emergency episode for %s", store.ErrNotFound, p.ID)
		}
		ep.Notes = req.Notes
		ep.Status = store.EpisodeAwaitingPay
		return nil
	})
	return ep, err
}

// Overview returns the patient's episode and every transaction with the
// amounts due and paid.
func (s *Service) Overview(ctx context.Context, patientQuery string) (*Overview, error) {
	var ov *Overview
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := lookupEmergency(tx, patientQuery)
		if err != nil {
			return err
		}
		ov = &Overview{
			Patient:      p,
			Episode:      tx.ActiveEpisode(p.ID),
			Transactions: patientTransactions(tx, p.ID),
		}
		ov.TotalDue, ov.TotalPaid = totals(ov.Transactions)
		return nil
	})
	return ov, err
}

// Active lists open episodes with the amount each patient still owes.
func (s *Service) Active(ctx context.Context) ([]ActiveEpisode, error) {
	out := []ActiveEpisode{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, ep := range tx.Episodes() {
			if !ep.Active {
				continue
			}
			row := ActiveEpisode{EmergencyEpisode: ep}
			if p := tx.FindPatient(ep.PatientID); p != nil {
				row.PatientName = p.Name
				row.Pediatric = p.Pediatric
			}
			row.TotalDue, _ = totals(billing.PendingTransactions(tx, ep.PatientID))
			out = append(out, row)
		}
		return nil
	})
	return out, err
}

// Bill renders the emergency bill.
func (s *Service) Bill(ctx context.Context, patientQuery string) (*receipt.Document, error) {
	var doc *receipt.Document
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := lookupEmergency(tx, patientQuery)
		if err != nil {
			return err
		}
		admitted := tx.Now()
		if ep := tx.ActiveEpisode(p.ID); ep != nil {
			admitted = ep.AdmittedAt
		}
		doc = s.docs.EmergencyBill(*tx.Hospital(), p, admitted, patientTransactions(tx, p.ID), tx.Now())
		return nil
	})
	return doc, err
}
