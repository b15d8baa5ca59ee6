package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Sequence describes one family of human-readable identifiers. Counters are
// per prefix and only ever move forward, so an identifier is never handed out
// twice even after records are removed.
type Sequence struct {
	Prefix string
	Width  int
}

var (
	SeqAdultPatient     = Sequence{Prefix: "PA", Width: 4}
	SeqPediatricPatient = Sequence{Prefix: "PED", Width: 4}
	SeqEmergencyAdult   = Sequence{Prefix: "URG", Width: 4}
	SeqEmergencyChild   = Sequence{Prefix: "URG-PED", Width: 4}
	SeqConsultation     = Sequence{Prefix: "C-", Width: 3}
	SeqAnalysis         = Sequence{Prefix: "A-", Width: 3}
	SeqPrescription     = Sequence{Prefix: "R-", Width: 3}
	SeqTransaction      = Sequence{Prefix: "T-", Width: 3}
	SeqExternal         = Sequence{Prefix: "EXT-", Width: 4}
	SeqEpisode          = Sequence{Prefix: "E-", Width: 3}
	SeqStock            = Sequence{Prefix: "MED-", Width: 3}
	SeqAppointment      = Sequence{Prefix: "RDV-", Width: 3}
	SeqEmployee         = Sequence{Prefix: "EMP", Width: 3}
	SeqConsultationType = Sequence{Prefix: "CT-", Width: 3}
	SeqLabAnalysis      = Sequence{Prefix: "LAB-", Width: 3}
	SeqExternalService  = Sequence{Prefix: "SRV-", Width: 3}
)

// sequences is ordered longest prefix first so that an identifier is
// attributed to the most specific family ("URG-PED0001" is not a "URG" id).
var sequences = []Sequence{
	SeqEmergencyChild,
	SeqConsultationType,
	SeqExternalService,
	SeqEmergencyAdult,
	SeqPediatricPatient,
	SeqAppointment,
	SeqLabAnalysis,
	SeqExternal,
	SeqEmployee,
	SeqStock,
	SeqAdultPatient,
	SeqConsultation,
	SeqAnalysis,
	SeqPrescription,
	SeqTransaction,
	SeqEpisode,
}

// Format renders the n-th identifier of the sequence.
func (q Sequence) Format(n int) string {
	return fmt.Sprintf("%s%0*d", q.Prefix, q.Width, n)
}

// parse returns the numeric suffix of id when it belongs to the sequence.
func (q Sequence) parse(id string) (int, bool) {
	if !strings.HasPrefix(id, q.Prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(id[len(q.Prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// sequenceOf finds the family an existing identifier belongs to.
func sequenceOf(id string) (Sequence, int, bool) {
	for _, q := range sequences {
		if n, ok := q.parse(id); ok {
			return q, n, true
		}
	}
	return Sequence{}, 0, false
}
