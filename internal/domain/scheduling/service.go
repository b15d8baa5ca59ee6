// Package scheduling books appointments between patients and doctors.
package scheduling

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/store"
)

type Service struct {
	store  *store.Store
	logger zerolog.Logger
}

func NewService(st *store.Store) *Service {
	return &Service{store: st, logger: zerolog.Nop()}
}

func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// Schedule books an appointment. The date may be today but not earlier.
func (s *Service) Schedule(ctx context.Context, req *AppointmentRequest, by string) (*store.Appointment, error) {
	doctor := strings.TrimSpace(req.Doctor)
	if doctor == "" {
		return nil, fmt.Errorf("%w: doctor is required", store.ErrInvalid)
	}
	day, err := time.Parse(DateLayout, req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be formatted YYYY-MM-DD", store.ErrInvalid)
	}
	if _, err := time.Parse(TimeLayout, req.Time); err != nil {
		return nil, fmt.Errorf("%w: time must be formatted HH:MM", store.ErrInvalid)
	}

	var a *store.Appointment
	err = s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		if day.Format(DateLayout) < tx.Now().Format(DateLayout) {
			return fmt.Errorf("%w: appointment date %s is in the past", store.ErrInvalid, req.Date)
		}
		p, err := identity.Lookup(tx, req.PatientID)
		if err != nil {
			return err
		}
		a = &store.Appointment{
			PatientID:   p.ID,
			PatientName: p.Name,
			Doctor:      doctor,
			Date:        day.Format(DateLayout),
			Time:        req.Time,
			Reason:      strings.TrimSpace(req.Reason),
			Status:      store.AppointmentScheduled,
			CreatedBy:   by,
		}
		tx.InsertAppointment(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("appointment_id", a.ID).Str("patient_id", a.PatientID).Str("doctor", a.Doctor).Str("date", a.Date).Msg("appointment scheduled")
	return a, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (*store.Appointment, error) {
	return s.close(ctx, id, store.AppointmentCancelled)
}

func (s *Service) Complete(ctx context.Context, id string) (*store.Appointment, error) {
	return s.close(ctx, id, store.AppointmentCompleted)
}

// close moves a scheduled appointment to a final status.
func (s *Service) close(ctx context.Context, id, status string) (*store.Appointment, error) {
	var a *store.Appointment
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		a = tx.FindAppointment(id)
		if a == nil {
			return fmt.Errorf("%w: appointment %s", store.ErrNotFound, id)
		}
		if a.Status != store.AppointmentScheduled {
			return fmt.Errorf("%w: appointment %s is already %s", store.ErrConflict, id, a.Status)
		}
		a.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("appointment_id", a.ID).Str("status", status).Msg("appointment closed")
	return a, nil
}

// Upcoming lists scheduled appointments from today on, soonest first.
func (s *Service) Upcoming(ctx context.Context) ([]*store.Appointment, error) {
	out := []*store.Appointment{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		today := tx.Now().Format(DateLayout)
		for _, a := range tx.Appointments() {
			if a.Status == store.AppointmentScheduled && a.Date >= today {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return slot(out[i]) < slot(out[j]) })
	return out, err
}

// Past lists closed or overdue appointments, latest first.
func (s *Service) Past(ctx context.Context) ([]*store.Appointment, error) {
	out := []*store.Appointment{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		today := tx.Now().Format(DateLayout)
		for _, a := range tx.Appointments() {
			if a.Status != store.AppointmentScheduled || a.Date < today {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return slot(out[i]) > slot(out[j]) })
	return out, err
}

// Today lists today's scheduled appointments of a doctor, or of every
// doctor when doctor is empty.
func (s *Service) Today(ctx context.Context, doctor string) ([]*store.Appointment, error) {
	out := []*store.Appointment{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		today := tx.Now().Format(DateLayout)
		for _, a := range tx.Appointments() {
			if a.Status == store.AppointmentScheduled && a.Date == today && (doctor == "" || a.Doctor == doctor) {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, err
}

func slot(a *store.Appointment) string {
	return a.Date + " " + a.Time
}
