package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stluc/hms/internal/domain/billing"
	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/internal/store"
)

const (
	dateLayout = "2006-01-02"
	statDays   = 7
)

// Buckets of the service statistics that are not consultation types.
const (
	serviceLab          = billing.ServiceLabAnalyses
	serviceMedications  = "Médicaments"
	serviceExternal     = "Services Externes"
	serviceAppointments = "Rendez-vous"
)

// paidDay is the day a paid transaction was collected.
func paidDay(t *store.Transaction, loc *time.Location) string {
	at := t.CreatedAt
	if t.PaidAt != nil {
		at = *t.PaidAt
	}
	return at.In(loc).Format(dateLayout)
}

// Overview builds the administration dashboard.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var out *Overview
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = &Overview{
			Patients:     len(tx.Patients()),
			Appointments: len(tx.Appointments()),
			Analyses:     len(tx.Analyses()),
			Services:     serviceStats(tx),
			Employees:    employeeStats(tx),
			Days:         dayStats(tx),
		}
		for _, t := range tx.Transactions() {
			if t.Status == store.TxPaid {
				out.Revenue += t.Amount
			}
		}
		return nil
	})
	return out, err
}

type statTable struct {
	order []string
	rows  map[string]*ServiceStat
}

func (st *statTable) row(name string) *ServiceStat {
	r, ok := st.rows[name]
	if !ok {
		r = &ServiceStat{Service: name}
		st.rows[name] = r
		st.order = append(st.order, name)
	}
	return r
}

// serviceStats sums paid transactions per service. Consultations are
// attributed to the consultation type their label names.
func serviceStats(tx *store.Tx) []ServiceStat {
	table := &statTable{rows: make(map[string]*ServiceStat)}
	types := tx.Catalog(store.ConsultationTypes)
	for _, ct := range types {
		table.row(ct.Name).Price = ct.Price
	}
	for _, name := range []string{serviceLab, serviceMedications, serviceExternal, serviceAppointments} {
		table.row(name)
	}

	for _, t := range tx.Transactions() {
		if t.Status != store.TxPaid {
			continue
		}
		name := t.Service
		switch t.Category {
		case store.CategoryConsultation:
			for _, ct := range types {
				if strings.Contains(t.Service, ct.Name) {
					name = ct.Name
					break
				}
			}
		case store.CategoryAnalysis:
			name = serviceLab
		case store.CategoryMedication:
			name = serviceMedications
		case store.CategoryExternal:
			name = serviceExternal
		}
		r := table.row(name)
		r.Visits++
		r.Revenue += t.Amount
	}
	for _, a := range tx.Appointments() {
		if a.Status == store.AppointmentCompleted {
			table.row(serviceAppointments).Visits++
		}
	}

	out := []ServiceStat{}
	for _, name := range table.order {
		if r := table.rows[name]; r.Visits > 0 || r.Revenue > 0 {
			out = append(out, *r)
		}
	}
	return out
}

// employeeStats reports what each staff member collected today and how many
// patients they saw, completed appointments included.
func employeeStats(tx *store.Tx) []EmployeeStat {
	loc := tx.Now().Location()
	today := tx.Now().Format(dateLayout)
	type acc struct {
		stat     EmployeeStat
		patients map[string]bool
	}
	byName := make(map[string]*acc)
	get := func(name, service string) *acc {
		a, ok := byName[name]
		if !ok {
			a = &acc{stat: EmployeeStat{Employee: name, Service: service}, patients: make(map[string]bool)}
			byName[name] = a
		}
		return a
	}
	serviceOf := func(name string) string {
		for _, e := range tx.Employees() {
			if strings.EqualFold(e.Name, name) {
				return roleService(e.Role)
			}
		}
		return roleService("")
	}

	for _, t := range tx.Transactions() {
		if t.Status != store.TxPaid || t.RecordedBy == "" || paidDay(t, loc) != today {
			continue
		}
		a := get(t.RecordedBy, serviceOf(t.RecordedBy))
		a.stat.Revenue += t.Amount
		a.patients[t.PatientID] = true
	}
	for _, appt := range tx.Appointments() {
		if appt.Status == store.AppointmentCompleted && appt.Date == today {
			get(appt.Doctor, roleService(auth.RoleDoctor)).patients[appt.PatientID] = true
		}
	}

	out := make([]EmployeeStat, 0, len(byName))
	for _, a := range byName {
		a.stat.Patients = len(a.patients)
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Employee < out[j].Employee
	})
	return out
}

// dayStats breaks the paid transactions of the last seven days down by
// category, oldest day first.
func dayStats(tx *store.Tx) []DayStat {
	now := tx.Now()
	days := make([]DayStat, statDays)
	index := make(map[string]int, statDays)
	for i := range days {
		d := billing.DayStart(now).AddDate(0, 0, i-statDays+1).Format(dateLayout)
		days[i].Date = d
		index[d] = i
	}
	for _, t := range tx.Transactions() {
		if t.Status != store.TxPaid {
			continue
		}
		i, ok := index[paidDay(t, now.Location())]
		if !ok {
			continue
		}
		d := &days[i]
		switch t.Category {
		case store.CategoryConsultation:
			d.Consultations++
		case store.CategoryAnalysis:
			d.Analyses++
		case store.CategoryExternal:
			d.External++
		case store.CategoryMedication:
			d.Medications++
		}
		d.Total += t.Amount
	}
	return days
}

// Notifications are the alerts every staff member sees on the dashboard.
func (s *Service) Notifications(ctx context.Context) ([]Notification, error) {
	out := []Notification{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		today := tx.Now().Format(dateLayout)
		loc := tx.Now().Location()
		add := func(n int, level, format string) {
			if n > 0 {
				out = append(out, Notification{Level: level, Message: fmt.Sprintf(format, n)})
			}
		}

		add(pendingTransactions(tx), LevelWarning, "%d transaction(s) en attente de paiement")
		add(lowStock(tx), LevelDanger, "%d médicament(s) en stock bas")

		analyses := 0
		for _, a := range tx.Analyses() {
			if store.Visible(a.Status, a.Emergency) && !a.HasResults() {
				analyses++
			}
		}
		add(analyses, LevelInfo, "%d analyse(s) en attente de résultats")

		prescriptions := 0
		for _, p := range tx.Prescriptions() {
			if store.Visible(p.Status, p.Emergency) && !p.Delivered {
				prescriptions++
			}
		}
		add(prescriptions, LevelInfo, "%d ordonnance(s) en attente de délivrance")

		consultations := 0
		for _, c := range tx.Consultations() {
			if c.CreatedAt.In(loc).Format(dateLayout) == today {
				consultations++
			}
		}
		add(consultations, LevelSuccess, "%d consultation(s) aujourd'hui")

		appointments := 0
		for _, a := range tx.Appointments() {
			if a.Date == today && a.Status == store.AppointmentScheduled {
				appointments++
			}
		}
		add(appointments, LevelInfo, "%d rendez-vous aujourd'hui")
		add(activeEpisodes(tx), LevelDanger, "%d patient(s) en urgence active")
		return nil
	})
	return out, err
}

// Alerts are the administrative alerts of the admin dashboard.
func (s *Service) Alerts(ctx context.Context) ([]Notification, error) {
	out := []Notification{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		add := func(n int, level, format string) {
			if n > 0 {
				out = append(out, Notification{Level: level, Message: fmt.Sprintf(format, n)})
			}
		}
		add(lowStock(tx), LevelDanger, "%d médicament(s) en stock bas nécessitent réapprovisionnement")
		add(activeEpisodes(tx), LevelWarning, "%d patient(s) en urgence avec factures impayées")
		add(pendingTransactions(tx), LevelInfo, "%d transaction(s) en attente de paiement")

		day := tx.Now().Format(dateLayout)
		present := make(map[string]bool)
		for _, r := range tx.Attendance() {
			if r.Date == day {
				present[strings.ToUpper(r.EmployeeID)] = true
			}
		}
		missing := 0
		for _, e := range tx.Employees() {
			if !present[strings.ToUpper(e.ID)] {
				missing++
			}
		}
		add(missing, LevelWarning, "%d employé(s) sans pointage aujourd'hui")
		return nil
	})
	return out, err
}

func pendingTransactions(tx *store.Tx) int {
	n := 0
	for _, t := range tx.Transactions() {
		if t.Status == store.TxPending {
			n++
		}
	}
	return n
}

func lowStock(tx *store.Tx) int {
	n := 0
	for _, item := range tx.Stock() {
		if item.Low() {
			n++
		}
	}
	return n
}

func activeEpisodes(tx *store.Tx) int {
	n := 0
	for _, e := range tx.Episodes() {
		if e.Active {
			n++
		}
	}
	return n
}
