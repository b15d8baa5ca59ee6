package emergency

import (
	"fmt"

	"github.com/stluc/hms/internal/domain/identity"
	"github.com/stluc/hms/internal/store"
)

// EnsureEpisode returns the patient's active episode, opening one when there
// is none. The boolean reports whether a new episode was opened.
func EnsureEpisode(tx *store.Tx, patientID, doctor string) (*store.EmergencyEpisode, bool, error) {
	if ep := tx.ActiveEpisode(patientID); ep != nil {
		return ep, false, nil
	}
	ep := &store.EmergencyEpisode{
		PatientID: patientID,
		Doctor:    doctor,
		Active:    true,
		Status:    store.EpisodeInTreatment,
	}
	if err := tx.InsertEpisode(ep); err != nil {
		return nil, false, err
	}
	return ep, true, nil
}

// lookupEmergency resolves query to an emergency patient.
func lookupEmergency(tx *store.Tx, query string) (*store.Patient, error) {
	p, err := identity.Lookup(tx, query)
	if err != nil {
		return nil, err
	}
	if !p.Emergency {
		return nil, fmt.Errorf("%w: %s is not an emergency patient", store.ErrConflict, p.ID)
	}
	return p, nil
}

func totals(txs []*store.Transaction) (due, paid float64) {
	for _, t := range txs {
		if t.Status == store.TxPaid {
			paid += t.Amount
		} else {
			due += t.Amount
		}
	}
	return due, paid
}

func patientTransactions(tx *store.Tx, patientID string) []*store.Transaction {
	out := []*store.Transaction{}
	for _, t := range tx.Transactions() {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	return out
}
