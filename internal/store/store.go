// Package store holds the hospital's application state in process memory.
//
// Every mutation runs inside RunInTransaction: the operation works on a
// private copy of the state which replaces the committed state only when the
// operation returns nil. A failed operation therefore leaves nothing behind,
// and concurrent requests are serialized on a single write lock.
package store

import (
	"context"
	"sync"
	"time"
)

type memoryState struct {
	patients      []*Patient
	consultations []*Consultation
	analyses      []*Analysis
	prescriptions []*Prescription
	transactions  []*Transaction
	episodes      []*EmergencyEpisode
	stock         []*StockItem
	appointments  []*Appointment
	employees     []*Employee
	attendance    []*AttendanceRecord
	catalogs      map[CatalogKind][]*CatalogItem
	prices        EmergencyPrices
	hospital      HospitalProfile
	counters      map[string]int
}

func newMemoryState() memoryState {
	return memoryState{
		catalogs: map[CatalogKind][]*CatalogItem{
			ConsultationTypes: nil,
			LabAnalyses:       nil,
			ExternalServices:  nil,
		},
		counters: make(map[string]int),
	}
}

// Pointer fields of records are replaced on update and never written
// through, so copying the struct is enough to isolate a record.
func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	cloned.patients = cloneAll(s.patients, func(p Patient) Patient { return p })
	cloned.consultations = cloneAll(s.consultations, func(c Consultation) Consultation {
		c.Medications = append([]MedicationLine(nil), c.Medications...)
		c.Analyses = append([]string(nil), c.Analyses...)
		return c
	})
	cloned.analyses = cloneAll(s.analyses, func(a Analysis) Analysis {
		a.Analyses = append([]string(nil), a.Analyses...)
		return a
	})
	cloned.prescriptions = cloneAll(s.prescriptions, func(p Prescription) Prescription { return p })
	cloned.transactions = cloneAll(s.transactions, func(t Transaction) Transaction { return t })
	cloned.episodes = cloneAll(s.episodes, func(e EmergencyEpisode) EmergencyEpisode { return e })
	cloned.stock = cloneAll(s.stock, func(i StockItem) StockItem { return i })
	cloned.appointments = cloneAll(s.appointments, func(a Appointment) Appointment { return a })
	cloned.employees = cloneAll(s.employees, func(e Employee) Employee { return e })
	cloned.attendance = cloneAll(s.attendance, func(r AttendanceRecord) AttendanceRecord { return r })
	for kind, items := range s.catalogs {
		cloned.catalogs[kind] = cloneAll(items, func(i CatalogItem) CatalogItem { return i })
	}
	cloned.prices = s.prices
	cloned.hospital = s.hospital
	for k, v := range s.counters {
		cloned.counters[k] = v
	}
	return cloned
}

func cloneAll[T any](items []*T, copyFn func(T) T) []*T {
	if items == nil {
		return nil
	}
	out := make([]*T, len(items))
	for i, item := range items {
		v := copyFn(*item)
		out[i] = &v
	}
	return out
}

// Store is the owned application state. Services receive it by injection.
type Store struct {
	mu    sync.RWMutex
	state memoryState
	nowFn func() time.Time
}

// New constructs a store holding the default catalogs, emergency prices and
// hospital profile, and no records.
func New() *Store {
	s := &Store{
		state: newMemoryState(),
		nowFn: time.Now,
	}
	applyDefaults(&s.state)
	return s
}

// SetClock replaces the time source. Tests use it to pin dates.
func (s *Store) SetClock(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn()
}

// RunInTransaction executes fn against a copy of the state and commits the
// copy only when fn returns nil.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a snapshot of the state. Changes made by fn are
// discarded.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx := &Tx{
		state: s.state.clone(),
		now:   s.nowFn(),
	}
	return fn(tx)
}
