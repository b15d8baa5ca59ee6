// Package settings maintains the price catalogs, the emergency prices and the
// hospital profile printed on documents.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

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

// ParseKind resolves a catalog name as it appears in URLs.
func ParseKind(name string) (store.CatalogKind, error) {
	kind, ok := kinds[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: unknown catalog %q", store.ErrNotFound, name)
	}
	return kind, nil
}

func (s *Service) Get(ctx context.Context) (*Settings, error) {
	var out *Settings
	err := s.store.View(ctx, func(tx *store.Tx) error {
		out = &Settings{
			ConsultationTypes: active(tx.Catalog(store.ConsultationTypes)),
			LabAnalyses:       active(tx.Catalog(store.LabAnalyses)),
			ExternalServices:  active(tx.Catalog(store.ExternalServices)),
			EmergencyPrices:   *tx.EmergencyPrices(),
			Hospital:          *tx.Hospital(),
		}
		return nil
	})
	return out, err
}

// Catalog lists the entries of a catalog. Deactivated entries are listed only
// when all is set.
func (s *Service) Catalog(ctx context.Context, kind store.CatalogKind, all bool) ([]*store.CatalogItem, error) {
	var out []*store.CatalogItem
	err := s.store.View(ctx, func(tx *store.Tx) error {
		items := tx.Catalog(kind)
		if all {
			out = append([]*store.CatalogItem{}, items...)
		} else {
			out = active(items)
		}
		return nil
	})
	return out, err
}

func active(items []*store.CatalogItem) []*store.CatalogItem {
	out := []*store.CatalogItem{}
	for _, item := range items {
		if item.Active {
			out = append(out, item)
		}
	}
	return out
}

// AddCatalogItem adds a priced entry. A deactivated entry of the same name is
// reactivated at the new price.
func (s *Service) AddCatalogItem(ctx context.Context, kind store.CatalogKind, req *CatalogItemRequest) (*store.CatalogItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	if req.Price <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than zero", store.ErrInvalid)
	}
	var item *store.CatalogItem
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		if existing := tx.FindCatalogItemByName(kind, name); existing != nil {
			if existing.Active {
				return fmt.Errorf("%w: %q already exists", store.ErrConflict, name)
			}
			existing.Active = true
			existing.Price = req.Price
			item = existing
			return nil
		}
		item = &store.CatalogItem{Name: name, Price: req.Price, Active: true}
		return tx.InsertCatalogItem(kind, item)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("catalog", string(kind)).Str("item_id", item.ID).Float64("price", item.Price).Msg("catalog entry added")
	return item, nil
}

func (s *Service) UpdatePrice(ctx context.Context, kind store.CatalogKind, id string, price float64) (*store.CatalogItem, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be greater than zero", store.ErrInvalid)
	}
	var item *store.CatalogItem
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		item = tx.FindCatalogItem(kind, id)
		if item == nil || !item.Active {
			return fmt.Errorf("%w: %s entry %s", store.ErrNotFound, kind, id)
		}
		item.Price = price
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("catalog", string(kind)).Str("item_id", id).Float64("price", price).Msg("catalog price changed")
	return item, nil
}

// RemoveCatalogItem deactivates the entry. Records that already name it are
// unaffected.
func (s *Service) RemoveCatalogItem(ctx context.Context, kind store.CatalogKind, id string) error {
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		item := tx.FindCatalogItem(kind, id)
		if item == nil || !item.Active {
			return fmt.Errorf("%w: %s entry %s", store.ErrNotFound, kind, id)
		}
		item.Active = false
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("catalog", string(kind)).Str("item_id", id).Msg("catalog entry removed")
	return nil
}

func (s *Service) SetEmergencyPrices(ctx context.Context, p store.EmergencyPrices) (*store.EmergencyPrices, error) {
	if p.Consultation <= 0 || p.Analysis <= 0 {
		return nil, fmt.Errorf("%w: emergency prices must be greater than zero", store.ErrInvalid)
	}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		*tx.EmergencyPrices() = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Float64("consultation", p.Consultation).Float64("analysis", p.Analysis).Msg("emergency prices changed")
	return &p, nil
}

func (s *Service) SetHospital(ctx context.Context, h store.HospitalProfile) (*store.HospitalProfile, error) {
	h.Name = strings.TrimSpace(h.Name)
	h.Address = strings.TrimSpace(h.Address)
	h.Phone = strings.TrimSpace(h.Phone)
	if h.Name == "" || h.Address == "" || h.Phone == "" {
		return nil, fmt.Errorf("%w: name, address and phone are required", store.ErrInvalid)
	}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		*tx.Hospital() = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("hospital", h.Name).Msg("hospital profile changed")
	return &h, nil
}
