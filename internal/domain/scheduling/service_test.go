package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stluc/hms/internal/store"
)

var testNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st := store.New()
	st.SetClock(func() time.Time { return testNow })
	err := st.RunInTransaction(context.Background(), func(tx *store.Tx) error {
		for _, p := range []*store.Patient{
			{ID: "PA0001", Name: "Jean Dupont", DOB: "1985-05-15"},
			{ID: "PED0001", Name: "Sophie Petit", DOB: "2015-03-10", Pediatric: true},
		} {
			if err := tx.InsertPatient(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return NewService(st), st
}

func mustSchedule(t *testing.T, svc *Service, req AppointmentRequest) *store.Appointment {
	t.Helper()
	a, err := svc.Schedule(context.Background(), &req, "Réception")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

func TestService_Schedule(t *testing.T) {
	svc, _ := newTestService(t)

	a := mustSchedule(t, svc, AppointmentRequest{PatientID: "ped1", Doctor: "Dr. Martin", Date: "2024-03-16", Time: "09:30", Reason: " Suivi "})
	if a.ID != "RDV-001" || a.PatientID != "PED0001" || a.PatientName != "Sophie Petit" {
		t.Errorf("unexpected appointment %+v", a)
	}
	if a.Status != store.AppointmentScheduled || a.Reason != "Suivi" || a.CreatedBy != "Réception" {
		t.Errorf("unexpected appointment %+v", a)
	}

	// Today is allowed.
	mustSchedule(t, svc, AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-15", Time: "14:00"})
}

func TestService_Schedule_Errors(t *testing.T) {
	svc, st := newTestService(t)

	tests := []struct {
		name string
		req  AppointmentRequest
		want error
	}{
		{"past date", AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-14", Time: "09:00"}, store.ErrInvalid},
		{"bad date", AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "16/03/2024", Time: "09:00"}, store.ErrInvalid},
		{"bad time", AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-16", Time: "9h"}, store.ErrInvalid},
		{"no doctor", AppointmentRequest{PatientID: "PA0001", Date: "2024-03-16", Time: "09:00"}, store.ErrInvalid},
		{"unknown patient", AppointmentRequest{PatientID: "PA0042", Doctor: "Dr. Martin", Date: "2024-03-16", Time: "09:00"}, store.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Schedule(context.Background(), &tt.req, "Réception"); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	st.View(context.Background(), func(tx *store.Tx) error {
		if n := len(tx.Appointments()); n != 0 {
			t.Errorf("expected no appointments, got %d", n)
		}
		return nil
	})
}

func TestService_CancelAndComplete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := mustSchedule(t, svc, AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-16", Time: "09:00"})
	b := mustSchedule(t, svc, AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-17", Time: "09:00"})

	got, err := svc.Cancel(ctx, a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != store.AppointmentCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}
	if _, err := svc.Complete(ctx, a.ID); !errors.Is(err, store.ErrConflict) {
		t.Errorf("expected ErrConflict on a cancelled appointment, got %v", err)
	}

	got, err = svc.Complete(ctx, b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != store.AppointmentCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if _, err := svc.Cancel(ctx, "RDV-404"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Lists(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	later := mustSchedule(t, svc, AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-20", Time: "08:00"})
	soon := mustSchedule(t, svc, AppointmentRequest{PatientID: "PA0001", Doctor: "Dr. Martin", Date: "2024-03-15", Time: "16:00"})
	other := mustSchedule(t, svc, AppointmentRequest{PatientID: "PED0001", Doctor: "Dr. Sophie", Date: "2024-03-15", Time: "11:00"})
	cancelled := mustSchedule(t, svc, AppointmentRequest{PatientID: "PED0001", Doctor: "Dr. Sophie", Date: "2024-03-18", Time: "11:00"})
	if _, err := svc.Cancel(ctx, cancelled.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upcoming, err := svc.Upcoming(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{other.ID, soon.ID, later.ID}
	if len(upcoming) != len(want) {
		t.Fatalf("expected %d upcoming, got %d", len(want), len(upcoming))
	}
	for i, id := range want {
		if upcoming[i].ID != id {
			t.Errorf("upcoming[%d] = %s, want %s", i, upcoming[i].ID, id)
		}
	}

	today, err := svc.Today(ctx, "Dr. Martin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(today) != 1 || today[0].ID != soon.ID {
		t.Errorf("unexpected doctor's day %+v", today)
	}
	everyone, err := svc.Today(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(everyone) != 2 || everyone[0].ID != other.ID {
		t.Errorf("unexpected day %+v", everyone)
	}

	// The next day, today's appointments are overdue.
	st.SetClock(func() time.Time { return testNow.Add(24 * time.Hour) })
	past, err := svc.Past(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(past) != 3 || past[0].ID != cancelled.ID {
		t.Errorf("unexpected past list %+v", past)
	}
}
