// Package diagnostics serves the laboratory: the worklist of released
// orders and result entry.
package diagnostics

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/platform/websocket"
	"github.com/stluc/hms/internal/store"
)

type Service struct {
	store  *store.Store
	events *websocket.Hub
	logger zerolog.Logger
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, logger: zerolog.Nop()}
}

func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// SetEvents attaches the desk event hub.
func (s *Service) SetEvents(h *websocket.Hub) {
	s.events = h
}

// Pending lists released orders still waiting for results.
func (s *Service) Pending(ctx context.Context) ([]WorkItem, error) {
	out := []WorkItem{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, a := range tx.Analyses() {
			if store.Visible(a.Status, a.Emergency) && !a.HasResults() {
				out = append(out, workItem(tx, a))
			}
		}
		return nil
	})
	return out, err
}

// ForPatient returns the patient's released orders.
func (s *Service) ForPatient(ctx context.Context, patientQuery string) (*PatientAnalyses, error) {
	var res *PatientAnalyses
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := identity.Lookup(tx, patientQuery)
		if err != nil {
			return err
		}
		res = &PatientAnalyses{Patient: p, Analyses: []WorkItem{}}
		waiting := false
		for _, a := range tx.Analyses() {
			if a.PatientID != p.ID {
				continue
			}
			if store.Visible(a.Status, a.Emergency || p.Emergency) {
				res.Analyses = append(res.Analyses, workItem(tx, a))
			} else if a.Status == store.StatusPendingPayment {
				waiting = true
			}
		}
		res.AwaitingPayment = waiting && len(res.Analyses) == 0
		return nil
	})
	return res, err
}

// RecordResults stores the results of a released order.
func (s *Service) RecordResults(ctx context.Context, analysisID, results, by string) (*store.Analysis, error) {
	results = strings.TrimSpace(results)
	if results == "" {
		return nil, fmt.Errorf("%w: results are required", store.ErrInvalid)
	}
	var a *store.Analysis
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		a = tx.FindAnalysis(analysisID)
		if a == nil {
			return fmt.Errorf("%w: analysis %s", store.ErrNotFound, analysisID)
		}
		emergency := a.Emergency
		if p := tx.FindPatient(a.PatientID); p != nil && p.Emergency {
			emergency = true
		}
		if !store.Visible(a.Status, emergency) {
			return fmt.Errorf("%w: analysis %s is awaiting payment", store.ErrConflict, analysisID)
		}
		now := tx.Now()
		a.Results = results
		a.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.events.ResultsReady(a)
	s.logger.Info().Str("analysis_id", a.ID).Str("patient_id", a.PatientID).Str("by", by).Msg("lab results recorded")
	return a, nil
}

func workItem(tx *store.Tx, a *store.Analysis) WorkItem {
	w := WorkItem{Analysis: a}
	if p := tx.FindPatient(a.PatientID); p != nil {
		w.PatientName = p.Name
	}
	if c := tx.FindConsultation(a.ConsultationID); c != nil {
		w.RequestedBy = c.Doctor
	} else if ep := tx.FindEpisode(a.ConsultationID); ep != nil {
		w.RequestedBy = ep.Doctor
	}
	return w
}
