package admin

import (
	"time"

	"github.com/stluc/hms/internal/platform/auth"
	"github.com/stluc/hms/internal/store"
)

var roleNames = map[string]string{
	auth.RoleAdmin:     "Administrateur",
	auth.RoleDoctor:    "Médecin",
	auth.RoleLab:       "Laboratoire",
	auth.RolePharmacy:  "Pharmacie",
	auth.RoleReception: "Réception",
	auth.RoleCashier:   "Caissier",
}

// services a role works for, as shown in the per-employee statistics.
var roleServices = map[string]string{
	auth.RoleAdmin:     "Administration",
	auth.RoleDoctor:    "Consultation",
	auth.RoleLab:       "Laboratoire",
	auth.RolePharmacy:  "Pharmacie",
	auth.RoleReception: "Réception",
	auth.RoleCashier:   "Caisse",
}

// RoleName returns the display name of a staff role.
func RoleName(role string) string {
	if n, ok := roleNames[role]; ok {
		return n
	}
	return role
}

func roleService(role string) string {
	if s, ok := roleServices[role]; ok {
		return s
	}
	return "Non spécifié"
}

// EmployeeRequest creates or updates an employee. On update an empty PIN
// keeps the current one.
type EmployeeRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	PIN    string `json:"pin"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Access string `json:"access"`
}

// EmployeeView is an employee with the display name of its role.
type EmployeeView struct {
	*store.Employee
	RoleName string `json:"role_name"`
}

type PunchRequest struct {
	EmployeeID string `json:"employee_id"`
	PIN        string `json:"pin"`
}

// Presence is one line of the day's attendance sheet.
type Presence struct {
	EmployeeID string     `json:"employee_id"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	CheckIn    time.Time  `json:"check_in"`
	CheckOut   *time.Time `json:"check_out,omitempty"`
	OnDuty     bool       `json:"on_duty"`
}

// Overview is the administration dashboard.
type Overview struct {
	Revenue      float64        `json:"revenue"`
	Patients     int            `json:"patients"`
	Appointments int            `json:"appointments"`
	Analyses     int            `json:"analyses"`
	Services     []ServiceStat  `json:"services"`
	Employees    []EmployeeStat `json:"employees"`
	Days         []DayStat      `json:"days"`
}

// ServiceStat sums paid activity of one service. Price is zero when the
// service has no single price.
type ServiceStat struct {
	Service string  `json:"service"`
	Price   float64 `json:"price,omitempty"`
	Visits  int     `json:"visits"`
	Revenue float64 `json:"revenue"`
}

// EmployeeStat is one staff member's activity of the day.
type EmployeeStat struct {
	Employee string  `json:"employee"`
	Service  string  `json:"service"`
	Patients int     `json:"patients"`
	Revenue  float64 `json:"revenue"`
}

// DayStat counts the paid transactions of one day by category.
type DayStat struct {
	Date          string  `json:"date"`
	Consultations int     `json:"consultations"`
	Analyses      int     `json:"analyses"`
	External      int     `json:"external"`
	Medications   int     `json:"medications"`
	Total         float64 `json:"total"`
}

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
