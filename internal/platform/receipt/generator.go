// Package receipt renders the printed documents handed to patients: the
// registration card, payment receipts, external pharmacy purchase slips and
// emergency bills.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stluc/hms/internal/store"
)

// Generator builds documents. It holds no state besides the number source,
// so one instance is shared by every handler.
type Generator struct {
	newNumber func() string
}

func NewGenerator() *Generator {
	return &Generator{newNumber: randomNumber}
}

func randomNumber() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// PatientCard is printed at registration.
func (g *Generator) PatientCard(h store.HospitalProfile, p *store.Patient) *Document {
	responsible := p.Responsible
	if responsible == "" {
		responsible = "N/A"
	}
	fields := []Field{
		{"Numéro patient", p.ID},
		{"Nom", p.Name},
		{"Date de naissance", formatDOB(p.DOB)},
		{"Lieu de naissance", p.Birthplace},
		{"Responsable", responsible},
		{"Date d'enregistrement", FormatDate(p.RegisteredAt)},
	}
	if t := patientType(p); t != "" {
		fields = append(fields, Field{"Type", t})
	}
	return &Document{
		Title:    "Carte du Patient",
		Hospital: h,
		IssuedAt: p.RegisteredAt,
		Fields:   fields,
		Footer:   "Présentez cette carte à chaque visite",
	}
}

// PaymentReceipt lists the patient's paid transactions. The payment method
// printed is the one of the first paid transaction.
func (g *Generator) PaymentReceipt(h store.HospitalProfile, p *store.Patient, txs []*store.Transaction, methodName func(string) string, at time.Time) (*Document, error) {
	var paid []*store.Transaction
	for _, t := range txs {
		if t.PatientID == p.ID && t.Status == store.TxPaid {
			paid = append(paid, t)
		}
	}
	if len(paid) == 0 {
		return nil, fmt.Errorf("%w: no paid transaction for patient %s", store.ErrInvalid, p.ID)
	}

	method := paid[0].PaymentMethod
	if method == "" {
		method = "cash"
	}
	fields := []Field{
		{"Moyen de paiement", methodName(method)},
		{"Patient", p.Name},
		{"Numéro", p.ID},
	}
	if t := patientType(p); t != "" {
		fields = append(fields, Field{"Type", t})
	}

	var total float64
	lines := make([]Line, 0, len(paid))
	for _, t := range paid {
		lines = append(lines, Line{Label: t.Service, Amount: FormatAmount(t.Amount)})
		total += t.Amount
	}
	return &Document{
		Number:   "REC-" + g.newNumber(),
		Title:    "Reçu de paiement",
		Hospital: h,
		IssuedAt: at,
		Fields:   fields,
		Section:  "Services payés:",
		Lines:    lines,
		Totals:   []Line{{Label: "Total payé:", Amount: FormatAmount(total)}},
		Footer:   "Merci pour votre visite",
	}, nil
}

// PurchaseReceipt lists medications the patient has to buy at an external
// pharmacy.
func (g *Generator) PurchaseReceipt(h store.HospitalProfile, p *store.Patient, doctor string, meds []string, at time.Time) *Document {
	fields := []Field{{"Patient", p.Name}, {"Numéro", p.ID}}
	if doctor != "" {
		fields = append(fields, Field{"Docteur", doctor})
	}
	lines := make([]Line, 0, len(meds))
	for _, m := range meds {
		lines = append(lines, Line{Label: m, Amount: "À acheter"})
	}
	return &Document{
		Title:    "Reçu d'achat de médicaments",
		Hospital: h,
		IssuedAt: at,
		Fields:   fields,
		Section:  "Médicaments à acheter:",
		Lines:    lines,
		Totals:   []Line{{Label: "Total estimé:", Amount: "À déterminer à la pharmacie"}},
		Footer:   "Présentez ce reçu à la pharmacie externe",
	}
}

// EmergencyBill lists every transaction of an emergency patient with the
// balance left to pay before discharge.
func (g *Generator) EmergencyBill(h store.HospitalProfile, p *store.Patient, admittedAt time.Time, txs []*store.Transaction, at time.Time) *Document {
	kind := "PATIENT URGENCE"
	if p.Pediatric {
		kind += " (PÉDIATRIE)"
	}
	var due, paid float64
	lines := make([]Line, 0, len(txs))
	for _, t := range txs {
		note := "EN ATTENTE"
		if t.Status == store.TxPaid {
			note = "PAYÉ"
			paid += t.Amount
		} else {
			due += t.Amount
		}
		lines = append(lines, Line{Label: t.Service, Amount: FormatAmount(t.Amount), Note: note})
	}
	return &Document{
		Number:   "URG-" + g.newNumber(),
		Title:    "FACTURE D'URGENCE",
		Hospital: h,
		IssuedAt: at,
		Fields: []Field{
			{"Patient", p.Name},
			{"Numéro", p.ID},
			{"Type", kind},
			{"Date d'admission", FormatDate(admittedAt)},
		},
		Section: "Services d'urgence:",
		Lines:   lines,
		Totals: []Line{
			{Label: "Total dû:", Amount: FormatAmount(due)},
			{Label: "Total payé:", Amount: FormatAmount(paid)},
			{Label: "SOLDE À PAYER:", Amount: FormatAmount(due)},
		},
		Footer: "PRIORITÉ URGENCE - À RÉGLER AVANT LA SORTIE",
	}
}

func patientType(p *store.Patient) string {
	switch {
	case p.Emergency && p.Pediatric:
		return "Patient Urgence (Pédiatrie)"
	case p.Emergency:
		return "Patient Urgence"
	case p.Pediatric:
		return "Patient Pédiatrique"
	}
	return ""
}

func formatDOB(dob string) string {
	t, err := time.Parse("2006-01-02", dob)
	if err != nil {
		return dob
	}
	return FormatDate(t)
}
