package store

import (
	"fmt"
	"strings"
	"time"
)

// Tx is the transactional view of the state handed to RunInTransaction and
// View callbacks. Slices returned by Tx are the transaction's own; records in
// them may be modified in place and are committed with the transaction.
type Tx struct {
	state memoryState
	now   time.Time
}

// Now is the time the transaction started.
func (tx *Tx) Now() time.Time { return tx.now }

// NextID reserves the next identifier of the sequence.
func (tx *Tx) NextID(q Sequence) string {
	tx.state.counters[q.Prefix]++
	return q.Format(tx.state.counters[q.Prefix])
}

// observe bumps the counter of the sequence id belongs to so that imported
// identifiers are never generated again.
func (tx *Tx) observe(id string) {
	q, n, ok := sequenceOf(id)
	if !ok {
		return
	}
	if n > tx.state.counters[q.Prefix] {
		tx.state.counters[q.Prefix] = n
	}
}

func (tx *Tx) assignID(id *string, q Sequence) {
	if *id == "" {
		*id = tx.NextID(q)
		return
	}
	tx.observe(*id)
}

func find[T any](items []*T, match func(*T) bool) *T {
	for _, item := range items {
		if match(item) {
			return item
		}
	}
	return nil
}

// -- Patients --

func (tx *Tx) Patients() []*Patient { return tx.state.patients }

// FindPatient looks up a patient by exact identifier, ignoring case.
func (tx *Tx) FindPatient(id string) *Patient {
	return find(tx.state.patients, func(p *Patient) bool { return strings.EqualFold(p.ID, id) })
}

// InsertPatient stores p. The caller chooses the identifier since the
// category decides the sequence.
func (tx *Tx) InsertPatient(p *Patient) error {
	if p.ID == "" {
		return fmt.Errorf("%w: patient id is required", ErrInvalid)
	}
	if tx.FindPatient(p.ID) != nil {
		return fmt.Errorf("%w: patient %s already exists", ErrConflict, p.ID)
	}
	tx.observe(p.ID)
	if p.RegisteredAt.IsZero() {
		p.RegisteredAt = tx.now
	}
	tx.state.patients = append(tx.state.patients, p)
	return nil
}

// -- Consultations --

func (tx *Tx) Consultations() []*Consultation { return tx.state.consultations }

func (tx *Tx) FindConsultation(id string) *Consultation {
	return find(tx.state.consultations, func(c *Consultation) bool { return c.ID == id })
}

func (tx *Tx) InsertConsultation(c *Consultation) {
	tx.assignID(&c.ID, SeqConsultation)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = tx.now
	}
	tx.state.consultations = append(tx.state.consultations, c)
}

// -- Analyses --

func (tx *Tx) Analyses() []*Analysis { return tx.state.analyses }

func (tx *Tx) FindAnalysis(id string) *Analysis {
	return find(tx.state.analyses, func(a *Analysis) bool { return a.ID == id })
}

func (tx *Tx) InsertAnalysis(a *Analysis) {
	tx.assignID(&a.ID, SeqAnalysis)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	tx.state.analyses = append(tx.state.analyses, a)
}

// -- Prescriptions --

func (tx *Tx) Prescriptions() []*Prescription { return tx.state.prescriptions }

func (tx *Tx) FindPrescription(id string) *Prescription {
	return find(tx.state.prescriptions, func(p *Prescription) bool { return p.ID == id })
}

func (tx *Tx) InsertPrescription(p *Prescription) {
	tx.assignID(&p.ID, SeqPrescription)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = tx.now
	}
	tx.state.prescriptions = append(tx.state.prescriptions, p)
}

// -- Transactions --

func (tx *Tx) Transactions() []*Transaction { return tx.state.transactions }

func (tx *Tx) FindTransaction(id string) *Transaction {
	return find(tx.state.transactions, func(t *Transaction) bool { return t.ID == id })
}

// InsertTransaction appends t, assigning a T- identifier when none is set.
func (tx *Tx) InsertTransaction(t *Transaction) {
	tx.assignID(&t.ID, SeqTransaction)
	if t.Status == "" {
		t.Status = TxPending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = tx.now
	}
	tx.state.transactions = append(tx.state.transactions, t)
}

// -- Emergency episodes --

func (tx *Tx) Episodes() []*EmergencyEpisode { return tx.state.episodes }

func (tx *Tx) FindEpisode(id string) *EmergencyEpisode {
	return find(tx.state.episodes, func(e *EmergencyEpisode) bool { return e.ID == id })
}

// ActiveEpisode returns the patient's open episode, if any.
func (tx *Tx) ActiveEpisode(patientID string) *EmergencyEpisode {
	return find(tx.state.episodes, func(e *EmergencyEpisode) bool {
		return e.Active && e.PatientID == patientID
	})
}

// InsertEpisode stores an active episode. A patient has at most one.
func (tx *Tx) InsertEpisode(e *EmergencyEpisode) error {
	if e.Active && tx.ActiveEpisode(e.PatientID) != nil {
		return fmt.Errorf("%w: patient %s already has an active emergency episode", ErrConflict, e.PatientID)
	}
	tx.assignID(&e.ID, SeqEpisode)
	if e.AdmittedAt.IsZero() {
		e.AdmittedAt = tx.now
	}
	tx.state.episodes = append(tx.state.episodes, e)
	return nil
}

// -- Stock --

func (tx *Tx) Stock() []*StockItem { return tx.state.stock }

func (tx *Tx) FindStockItem(id string) *StockItem {
	return find(tx.state.stock, func(s *StockItem) bool { return s.ID == id })
}

func (tx *Tx) InsertStockItem(s *StockItem) {
	tx.assignID(&s.ID, SeqStock)
	s.UpdatedAt = tx.now
	tx.state.stock = append(tx.state.stock, s)
}

// MatchStock returns the first stock item, in stock order, whose medication
// name contains text or is contained in it, ignoring case.
func (tx *Tx) MatchStock(text string) *StockItem {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	return find(tx.state.stock, func(s *StockItem) bool {
		med := strings.ToLower(s.Medication)
		return med != "" && (strings.Contains(needle, med) || strings.Contains(med, needle))
	})
}

// DecrementStock removes one unit of the item. It fails without touching the
// item when nothing is left.
func (tx *Tx) DecrementStock(id string) error {
	item := tx.FindStockItem(id)
	if item == nil {
		return fmt.Errorf("%w: stock item %s", ErrNotFound, id)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, item.Medication)
	}
	item.Quantity--
	item.UpdatedAt = tx.now
	return nil
}

// -- Appointments --

func (tx *Tx) Appointments() []*Appointment { return tx.state.appointments }

func (tx *Tx) FindAppointment(id string) *Appointment {
	return find(tx.state.appointments, func(a *Appointment) bool { return a.ID == id })
}

func (tx *Tx) InsertAppointment(a *Appointment) {
	tx.assignID(&a.ID, SeqAppointment)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = tx.now
	}
	tx.state.appointments = append(tx.state.appointments, a)
}

// -- Employees --

func (tx *Tx) Employees() []*Employee { return tx.state.employees }

func (tx *Tx) FindEmployee(id string) *Employee {
	return find(tx.state.employees, func(e *Employee) bool { return strings.EqualFold(e.ID, id) })
}

func (tx *Tx) InsertEmployee(e *Employee) {
	tx.assignID(&e.ID, SeqEmployee)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = tx.now
	}
	tx.state.employees = append(tx.state.employees, e)
}

// DeleteEmployee removes the employee. Attendance history is kept.
func (tx *Tx) DeleteEmployee(id string) error {
	for i, e := range tx.state.employees {
		if strings.EqualFold(e.ID, id) {
			tx.state.employees = append(tx.state.employees[:i:i], tx.state.employees[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: employee %s", ErrNotFound, id)
}

// -- Attendance --

func (tx *Tx) Attendance() []*AttendanceRecord { return tx.state.attendance }

func (tx *Tx) InsertAttendance(r *AttendanceRecord) {
	tx.state.attendance = append(tx.state.attendance, r)
}

// -- Catalogs and settings --

func (tx *Tx) Catalog(kind CatalogKind) []*CatalogItem { return tx.state.catalogs[kind] }

func (tx *Tx) FindCatalogItem(kind CatalogKind, id string) *CatalogItem {
	return find(tx.state.catalogs[kind], func(i *CatalogItem) bool { return i.ID == id })
}

// FindCatalogItemByName matches the entry name ignoring case.
func (tx *Tx) FindCatalogItemByName(kind CatalogKind, name string) *CatalogItem {
	return find(tx.state.catalogs[kind], func(i *CatalogItem) bool {
		return strings.EqualFold(i.Name, strings.TrimSpace(name))
	})
}

func (tx *Tx) InsertCatalogItem(kind CatalogKind, item *CatalogItem) error {
	q, ok := catalogSequences[kind]
	if !ok {
		return fmt.Errorf("%w: unknown catalog %q", ErrInvalid, kind)
	}
	tx.assignID(&item.ID, q)
	tx.state.catalogs[kind] = append(tx.state.catalogs[kind], item)
	return nil
}

// EmergencyPrices returns the transaction's emergency prices for update.
func (tx *Tx) EmergencyPrices() *EmergencyPrices { return &tx.state.prices }

// Hospital returns the transaction's hospital profile for update.
func (tx *Tx) Hospital() *HospitalProfile { return &tx.state.hospital }
