package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stluc/hms/internal/platform/receipt"
	"github.com/stluc/hms/internal/store"
)

// Registration is the reception form.
type Registration struct {
	Name        string        `json:"name"`
	DOB         string        `json:"dob"`
	Birthplace  string        `json:"birthplace"`
	Phone       string        `json:"phone"`
	Address     string        `json:"address"`
	Responsible string        `json:"responsible"`
	Pediatric   bool          `json:"pediatric"`
	Emergency   bool          `json:"emergency"`
	Vitals      *store.Vitals `json:"vitals,omitempty"`
}

type Service struct {
	store  *store.Store
	docs   *receipt.Generator
	logger zerolog.Logger
}

func NewService(st *store.Store, docs *receipt.Generator) *Service {
	return &Service{store: st, docs: docs, logger: zerolog.Nop()}
}

// SetLogger attaches a logger for registration events.
func (s *Service) SetLogger(l zerolog.Logger) {
	s.logger = l
}

// SequenceFor returns the identifier family of a patient category.
func SequenceFor(pediatric, emergency bool) store.Sequence {
	switch {
	case emergency && pediatric:
		return store.SeqEmergencyChild
	case emergency:
		return store.SeqEmergencyAdult
	case pediatric:
		return store.SeqPediatricPatient
	}
	return store.SeqAdultPatient
}

// Register creates a patient under the next identifier of its category.
func (s *Service) Register(ctx context.Context, r *Registration, registeredBy string) (*store.Patient, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	if strings.TrimSpace(r.DOB) == "" {
		return nil, fmt.Errorf("%w: dob is required", store.ErrInvalid)
	}
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(r.DOB))
	if err != nil {
		return nil, fmt.Errorf("%w: dob must be formatted YYYY-MM-DD", store.ErrInvalid)
	}

	var created *store.Patient
	err = s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		if dob.After(tx.Now()) {
			return fmt.Errorf("%w: dob is in the future", store.ErrInvalid)
		}
		p := &store.Patient{
			ID:           tx.NextID(SequenceFor(r.Pediatric, r.Emergency)),
			Name:         name,
			DOB:          dob.Format("2006-01-02"),
			Birthplace:   strings.TrimSpace(r.Birthplace),
			Phone:        strings.TrimSpace(r.Phone),
			Address:      strings.TrimSpace(r.Address),
			Responsible:  strings.TrimSpace(r.Responsible),
			Pediatric:    r.Pediatric,
			Emergency:    r.Emergency,
			Vitals:       r.Vitals,
			RegisteredBy: registeredBy,
		}
		if err := tx.InsertPatient(p); err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("patient_id", created.ID).
		Bool("emergency", created.Emergency).
		Bool("pediatric", created.Pediatric).
		Msg("patient registered")
	return created, nil
}

// Resolve finds a patient from a free-form search string.
func (s *Service) Resolve(ctx context.Context, query string) (*store.Patient, error) {
	var found *store.Patient
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := Lookup(tx, query)
		found = p
		return err
	})
	return found, err
}

// List returns the patients matching query, most recently registered first.
func (s *Service) List(ctx context.Context, query string) ([]*store.Patient, error) {
	var out []*store.Patient
	err := s.store.View(ctx, func(tx *store.Tx) error {
		matches := Search(tx.Patients(), query)
		out = make([]*store.Patient, 0, len(matches))
		for i := len(matches) - 1; i >= 0; i-- {
			out = append(out, matches[i])
		}
		return nil
	})
	return out, err
}

// Card renders the printable registration card.
func (s *Service) Card(ctx context.Context, query string) (*receipt.Document, error) {
	var doc *receipt.Document
	err := s.store.View(ctx, func(tx *store.Tx) error {
		p, err := Lookup(tx, query)
		if err != nil {
			return err
		}
		doc = s.docs.PatientCard(*tx.Hospital(), p)
		return nil
	})
	return doc, err
}
