package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
)

type AddCoilRequest struct {
	SaddleType   string  `json:"saddle_type"`
	Colour       string  `json:"colour"`
	WeightKg     float64 `json:"weight_kg"`
	Supplier     string  `json:"supplier,omitempty"`
	ReceivedDate string  `json:"received_date,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

type ProductionRequest struct {
	CoilID   string  `json:"coil_id"`
	WeightKg float64 `json:"weight_kg"`
	// ActualOutput overrides the estimated count when set.
	ActualOutput *int   `json:"actual_output,omitempty"`
	Operator     string `json:"operator,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// AddCoil records a new coil with its estimated yield.
func (s *Store) AddCoil(ctx context.Context, req AddCoilRequest) (domain.Coil, error) {
	if strings.TrimSpace(req.SaddleType) == "" || strings.TrimSpace(req.Colour) == "" {
		return domain.Coil{}, fmt.Errorf("%w: coil type and colour are required", domain.ErrInvalidInput)
	}
	if req.WeightKg <= 0 {
		return domain.Coil{}, fmt.Errorf("%w: coil weight %.2fkg", domain.ErrInvalidQuantity, req.WeightKg)
	}

	var coil domain.Coil
	err := update(ctx, s, repository.CollectionCoils, func(doc *domain.CoilDocument) error {
		now := s.now()
		received := req.ReceivedDate
		if received == "" {
			received = today(now)
		}
		coil = domain.Coil{
			ID:              newID(),
			SaddleType:      req.SaddleType,
			Colour:          req.Colour,
			InitialWeightKg: req.WeightKg,
			CurrentWeightKg: req.WeightKg,
			EstimatedYield:  s.yield.Estimate(req.WeightKg, req.SaddleType).ExpectedOutput,
			Status:          domain.CoilInStock,
			Supplier:        req.Supplier,
			ReceivedDate:    received,
			Notes:           req.Notes,
			CreatedAt:       now,
		}
		doc.Inventory = append(doc.Inventory, coil)
		doc.LastUpdated = now
		return nil
	})
	return coil, err
}

// Coils lists coils matching filter, depleted ones included.
func (s *Store) Coils(ctx context.Context, filter domain.CoilFilter) ([]domain.Coil, error) {
	doc, err := loadDoc[domain.CoilDocument](ctx, s, repository.CollectionCoils)
	if err != nil {
		return nil, err
	}
	out := []domain.Coil{}
	for _, c := range doc.Inventory {
		if filter.Match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// AvailableCoils lists coils with material left.
func (s *Store) AvailableCoils(ctx context.Context, saddleType string) ([]domain.Coil, error) {
	coils, err := s.Coils(ctx, domain.CoilFilter{SaddleType: saddleType})
	if err != nil {
		return nil, err
	}
	out := coils[:0]
	for _, c := range coils {
		if c.CurrentWeightKg > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

// LogProduction presses weightKg of a coil into saddles or trims, depending
// on the coil type's output unit, and adds the output to that stock.
func (s *Store) LogProduction(ctx context.Context, req ProductionRequest) (domain.ProductionRecord, error) {
	if req.WeightKg <= 0 {
		return domain.ProductionRecord{}, fmt.Errorf("%w: weight used %.2fkg", domain.ErrInvalidQuantity, req.WeightKg)
	}
	if req.ActualOutput != nil && *req.ActualOutput < 0 {
		return domain.ProductionRecord{}, fmt.Errorf("%w: actual output %d", domain.ErrInvalidQuantity, *req.ActualOutput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coilDoc, err := loadDoc[domain.CoilDocument](ctx, s, repository.CollectionCoils)
	if err != nil {
		return domain.ProductionRecord{}, err
	}
	original, err := loadDoc[domain.CoilDocument](ctx, s, repository.CollectionCoils)
	if err != nil {
		return domain.ProductionRecord{}, err
	}

	idx := -1
	for i := range coilDoc.Inventory {
		if coilDoc.Inventory[i].ID == req.CoilID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.ProductionRecord{}, fmt.Errorf("coil %s: %w", req.CoilID, domain.ErrNotFound)
	}
	coil := &coilDoc.Inventory[idx]
	if err := coil.Consume(req.WeightKg); err != nil {
		return domain.ProductionRecord{}, err
	}

	now := s.now()
	est := s.yield.Estimate(req.WeightKg, coil.SaddleType)
	produced := est.ExpectedOutput
	if req.ActualOutput != nil {
		produced = *req.ActualOutput
	}

	record := domain.ProductionRecord{
		ID:             newID(),
		Date:           now,
		CoilID:         coil.ID,
		SaddleType:     coil.SaddleType,
		Colour:         coil.Colour,
		WeightUsedKg:   req.WeightKg,
		UsableKg:       est.UsableKg,
		WasteKg:        est.WasteKg,
		ExpectedOutput: est.ExpectedOutput,
		ActualOutput:   produced,
		OutputUnit:     est.OutputUnit,
		Operator:       req.Operator,
		Notes:          req.Notes,
	}
	coilDoc.ProductionHistory = append(coilDoc.ProductionHistory, record)
	coilDoc.LastUpdated = now

	if err := s.docs.Save(ctx, repository.CollectionCoils, &coilDoc); err != nil {
		return domain.ProductionRecord{}, err
	}
	if produced == 0 {
		return record, nil
	}

	if est.OutputUnit == domain.UsageTrims {
		err = addOutput(ctx, s.trims, Item{Colour: coil.Colour}, produced, now)
	} else {
		err = addOutput(ctx, s.saddles, Item{Type: coil.SaddleType, Colour: coil.Colour}, produced, now)
	}
	if err != nil {
		if rbErr := s.docs.Save(ctx, repository.CollectionCoils, &original); rbErr != nil {
			log.Error().Err(rbErr).Str("coil_id", req.CoilID).Msg("inventory: could not restore coil after failed production")
		}
		return domain.ProductionRecord{}, err
	}
	return record, nil
}

// addOutput runs under the store lock held by LogProduction.
func addOutput[T any, P record[T]](ctx context.Context, l *Ledger[T, P], it Item, qty int, now time.Time) error {
	doc, err := loadDoc[domain.CountedDocument[T]](ctx, l.store, l.spec.collection)
	if err != nil {
		return err
	}
	l.add(&doc, it, qty, "production", now)
	return l.store.docs.Save(ctx, l.spec.collection, &doc)
}

// ProductionHistory returns runs from the last days, newest first.
func (s *Store) ProductionHistory(ctx context.Context, days int) ([]domain.ProductionRecord, error) {
	doc, err := loadDoc[domain.CoilDocument](ctx, s, repository.CollectionCoils)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -days)
	out := []domain.ProductionRecord{}
	for _, r := range doc.ProductionHistory {
		if !r.Date.Before(cutoff) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}
