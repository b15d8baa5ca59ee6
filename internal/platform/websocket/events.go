package websocket

import (
	"encoding/json"
	"time"

	"github.com/stluc/hms/internal/store"
)

// Event types.
const (
	EventCharged              = "transaction.created"
	EventPaid                 = "transaction.paid"
	EventAnalysisReleased     = "analysis.released"
	EventPrescriptionReleased = "prescription.released"
	EventResultsReady         = "analysis.completed"
	EventEpisodeOpened        = "episode.opened"
	EventEpisodeClosed        = "episode.closed"
)

func newEvent(typ, topic, patientID, recordID string, data any) Event {
	ev := Event{Type: typ, Topic: topic, PatientID: patientID, RecordID: recordID, Timestamp: time.Now().UTC()}
	if data != nil {
		if raw, err := json.Marshal(data); err == nil {
			ev.Data = raw
		}
	}
	return ev
}

// releasedTo returns the desk whose queue gains work when t becomes payable
// or paid, or "" when no desk does.
func releasedTo(t *store.Transaction) (topic, typ string) {
	switch t.Category {
	case store.CategoryAnalysis:
		return TopicLab, EventAnalysisReleased
	case store.CategoryMedication:
		return TopicPharmacy, EventPrescriptionReleased
	}
	return "", ""
}

// Charged announces new pending charges to the cashiers. Emergency charges
// release their work at once since emergency care is never gated on payment.
func (h *Hub) Charged(ts []*store.Transaction) {
	if h == nil {
		return
	}
	for _, t := range ts {
		h.Broadcast(TopicCashier, newEvent(EventCharged, TopicCashier, t.PatientID, t.ID, t))
		if !t.Emergency {
			continue
		}
		if topic, typ := releasedTo(t); topic != "" {
			h.Broadcast(topic, newEvent(typ, topic, t.PatientID, t.ID, nil))
		}
	}
}

// Paid announces settled transactions and releases the analyses and
// prescriptions they paid for.
func (h *Hub) Paid(ts []*store.Transaction) {
	if h == nil {
		return
	}
	for _, t := range ts {
		h.Broadcast(TopicCashier, newEvent(EventPaid, TopicCashier, t.PatientID, t.ID, nil))
		if t.Emergency {
			continue
		}
		if topic, typ := releasedTo(t); topic != "" {
			h.Broadcast(topic, newEvent(typ, topic, t.PatientID, t.ID, nil))
		}
	}
}

// ResultsReady tells the doctors that an analysis has results.
func (h *Hub) ResultsReady(a *store.Analysis) {
	if h == nil {
		return
	}
	h.Broadcast(TopicResults, newEvent(EventResultsReady, TopicResults, a.PatientID, a.ID, map[string]any{
		"consultation_id": a.ConsultationID,
		"analyses":        a.Analyses,
	}))
}

func (h *Hub) EpisodeOpened(ep *store.EmergencyEpisode) {
	if h == nil {
		return
	}
	h.Broadcast(TopicEmergency, newEvent(EventEpisodeOpened, TopicEmergency, ep.PatientID, ep.ID, nil))
}

func (h *Hub) EpisodeClosed(ep *store.EmergencyEpisode) {
	if h == nil {
		return
	}
	h.Broadcast(TopicEmergency, newEvent(EventEpisodeClosed, TopicEmergency, ep.PatientID, ep.ID, nil))
}
