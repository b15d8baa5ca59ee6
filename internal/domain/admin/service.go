// Package admin manages staff, their attendance, and the administration
// dashboard.
package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/platform/auth"
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

// -- Employees --

func (r *EmployeeRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.PIN = strings.TrimSpace(r.PIN)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Access = strings.TrimSpace(r.Access)
}

func (r *EmployeeRequest) validate(requirePIN bool) error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	if !auth.ValidRole(r.Role) {
		return fmt.Errorf("%w: unknown role %q", store.ErrInvalid, r.Role)
	}
	if requirePIN && r.PIN == "" {
		return fmt.Errorf("%w: pin is required", store.ErrInvalid)
	}
	return nil
}

func (s *Service) CreateEmployee(ctx context.Context, req *EmployeeRequest) (*EmployeeView, error) {
	req.normalize()
	if err := req.validate(true); err != nil {
		return nil, err
	}
	hash, err := auth.HashPIN(req.PIN)
	if err != nil {
		return nil, err
	}
	e := &store.Employee{
		Name:    req.Name,
		Role:    req.Role,
		PINHash: hash,
		Email:   req.Email,
		Phone:   req.Phone,
		Access:  req.Access,
	}
	err = s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		tx.InsertEmployee(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("employee_id", e.ID).Str("role", e.Role).Msg("employee created")
	return view(e), nil
}

func (s *Service) UpdateEmployee(ctx context.Context, id string, req *EmployeeRequest) (*EmployeeView, error) {
	req.normalize()
	if err := req.validate(false); err != nil {
		return nil, err
	}
	var hash string
	if req.PIN != "" {
		var err error
		if hash, err = auth.HashPIN(req.PIN); err != nil {
			return nil, err
		}
	}
	var e *store.Employee
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		e = tx.FindEmployee(id)
		if e == nil {
			return fmt.Errorf("%w: employee %s", store.ErrNotFound, id)
		}
		e.Name = req.Name
		e.Role = req.Role
		e.Email = req.Email
		e.Phone = req.Phone
		e.Access = req.Access
		if hash != "" {
			e.PINHash = hash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("employee_id", e.ID).Msg("employee updated")
	return view(e), nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		return tx.DeleteEmployee(id)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("employee_id", id).Msg("employee deleted")
	return nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*EmployeeView, error) {
	var out *EmployeeView
	err := s.store.View(ctx, func(tx *store.Tx) error {
		e := tx.FindEmployee(id)
		if e == nil {
			return fmt.Errorf("%w: employee %s", store.ErrNotFound, id)
		}
		out = view(e)
		return nil
	})
	return out, err
}

func (s *Service) ListEmployees(ctx context.Context) ([]*EmployeeView, error) {
	out := []*EmployeeView{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, e := range tx.Employees() {
			out = append(out, view(e))
		}
		return nil
	})
	return out, err
}

func view(e *store.Employee) *EmployeeView {
	return &EmployeeView{Employee: e, RoleName: RoleName(e.Role)}
}

// -- Attendance --

// authenticate finds the employee and checks the PIN.
func authenticate(tx *store.Tx, req PunchRequest) (*store.Employee, error) {
	e := tx.FindEmployee(strings.TrimSpace(req.EmployeeID))
	if e == nil {
		return nil, fmt.Errorf("%w: employee %s", store.ErrNotFound, req.EmployeeID)
	}
	if !auth.CheckPIN(e.PINHash, strings.TrimSpace(req.PIN)) {
		return nil, fmt.Errorf("%w: incorrect pin", store.ErrInvalid)
	}
	return e, nil
}

// openRecord returns the employee's record of the day that has no check-out.
func openRecord(tx *store.Tx, employeeID, day string) *store.AttendanceRecord {
	for _, r := range tx.Attendance() {
		if r.EmployeeID == employeeID && r.Date == day && r.CheckOut == nil {
			return r
		}
	}
	return nil
}

// CheckIn opens the employee's attendance record of the day.
func (s *Service) CheckIn(ctx context.Context, req PunchRequest) (*store.AttendanceRecord, error) {
	var rec *store.AttendanceRecord
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		e, err := authenticate(tx, req)
		if err != nil {
			return err
		}
		day := tx.Now().Format(dateLayout)
		if openRecord(tx, e.ID, day) != nil {
			return fmt.Errorf("%w: %s is already checked in", store.ErrConflict, e.ID)
		}
		rec = &store.AttendanceRecord{EmployeeID: e.ID, Date: day, CheckIn: tx.Now()}
		tx.InsertAttendance(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("employee_id", rec.EmployeeID).Msg("checked in")
	return rec, nil
}

// CheckOut closes the employee's open record of the day.
func (s *Service) CheckOut(ctx context.Context, req PunchRequest) (*store.AttendanceRecord, error) {
	var rec *store.AttendanceRecord
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		e, err := authenticate(tx, req)
		if err != nil {
			return err
		}
		rec = openRecord(tx, e.ID, tx.Now().Format(dateLayout))
		if rec == nil {
			return fmt.Errorf("%w: no check-in today for %s", store.ErrNotFound, e.ID)
		}
		now := tx.Now()
		rec.CheckOut = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("employee_id", rec.EmployeeID).Msg("checked out")
	return rec, nil
}

// Attendance lists today's attendance sheet.
func (s *Service) Attendance(ctx context.Context) ([]Presence, error) {
	out := []Presence{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		day := tx.Now().Format(dateLayout)
		for _, r := range tx.Attendance() {
			if r.Date != day {
				continue
			}
			p := Presence{
				EmployeeID: r.EmployeeID,
				Name:       r.EmployeeID,
				CheckIn:    r.CheckIn,
				CheckOut:   r.CheckOut,
				OnDuty:     r.CheckOut == nil,
			}
			if e := tx.FindEmployee(r.EmployeeID); e != nil {
				p.Name = e.Name
				p.Role = RoleName(e.Role)
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}
