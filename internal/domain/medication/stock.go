package medication

import (
	"context"
	"fmt"
	"strings"

	"github.com/stluc/hms/internal/store"
)

// Stock lists every stock item with its low stock flag and refreshes the
// low stock gauge.
func (s *Service) Stock(ctx context.Context) ([]StockRow, error) {
	rows := []StockRow{}
	err := s.store.View(ctx, func(tx *store.Tx) error {
		for _, item := range tx.Stock() {
			rows = append(rows, StockRow{StockItem: item, LowStock: item.Low()})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.SetLowStock(countLow(rows))
	return rows, nil
}

// LowStock lists items at or below their alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]StockRow, error) {
	rows, err := s.Stock(ctx)
	if err != nil {
		return nil, err
	}
	low := []StockRow{}
	for _, r := range rows {
		if r.LowStock {
			low = append(low, r)
		}
	}
	return low, nil
}

func (s *Service) AddStock(ctx context.Context, req *NewStockItem) (*store.StockItem, error) {
	name := strings.TrimSpace(req.Medication)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: medication name is required", store.ErrInvalid)
	case req.Quantity < 0:
		return nil, fmt.Errorf("%w: quantity cannot be negative", store.ErrInvalid)
	case req.Threshold < 0:
		return nil, fmt.Errorf("%w: threshold cannot be negative", store.ErrInvalid)
	case req.Price < 0:
		return nil, fmt.Errorf("%w: price cannot be negative", store.ErrInvalid)
	}

	item := &store.StockItem{Medication: name, Quantity: req.Quantity, Threshold: req.Threshold, Price: req.Price}
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		tx.InsertStockItem(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock_item_id", item.ID).Str("medication", item.Medication).Int("quantity", item.Quantity).Msg("stock item added")
	s.refreshLowStock(ctx)
	return item, nil
}

func (s *Service) Restock(ctx context.Context, id string, amount int) (*store.StockItem, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: restock amount must be greater than zero", store.ErrInvalid)
	}
	var item *store.StockItem
	err := s.store.RunInTransaction(ctx, func(tx *store.Tx) error {
		item = tx.FindStockItem(id)
		if item == nil {
			return fmt.Errorf("%w: stock item %s", store.ErrNotFound, id)
		}
		item.Quantity += amount
		item.UpdatedAt = tx.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("stock_item_id", item.ID).Int("added", amount).Int("quantity", item.Quantity).Msg("stock replenished")
	s.refreshLowStock(ctx)
	return item, nil
}

func (s *Service) refreshLowStock(ctx context.Context) {
	if _, err := s.Stock(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("low stock gauge not refreshed")
	}
}

func countLow(rows []StockRow) int {
	n := 0
	for _, r := range rows {
		if r.LowStock {
			n++
		}
	}
	return n
}
