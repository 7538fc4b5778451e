package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gutterguard/inventory/internal/config"
	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
)

// RollKey identifies a roll size and colour.
type RollKey struct {
	MeshType string  `json:"mesh_type"`
	WidthMM  int     `json:"width_mm"`
	LengthM  float64 `json:"length_m"`
	Colour   string  `json:"colour"`
}

func (k RollKey) validate() error {
	if strings.TrimSpace(k.MeshType) == "" || strings.TrimSpace(k.Colour) == "" {
		return fmt.Errorf("%w: mesh type and colour are required", domain.ErrInvalidInput)
	}
	if k.WidthMM <= 0 || k.LengthM <= 0 {
		return fmt.Errorf("%w: width and length must be positive", domain.ErrInvalidInput)
	}
	return nil
}

func (k RollKey) matches(meshType string, width int, length float64, colour string) bool {
	return k.MeshType == meshType && k.WidthMM == width && k.LengthM == length && k.Colour == colour
}

type AddRollsRequest struct {
	RollKey
	Quantity     int    `json:"quantity"`
	ReceivedDate string `json:"received_date,omitempty"`
	Location     string `json:"location,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// MeshSummaryLine aggregates rolls of one type, width, length and colour.
type MeshSummaryLine struct {
	RollKey
	Quantity    int     `json:"quantity"`
	TotalMetres float64 `json:"total_metres"`
}

// StockPosition combines shelf and incoming stock for one roll key.
type StockPosition struct {
	OnShelfQty     int     `json:"on_shelf_qty"`
	OnShelfMetres  float64 `json:"on_shelf_metres"`
	IncomingQty    int     `json:"incoming_qty"`
	IncomingMetres float64 `json:"incoming_metres"`
	TotalQty       int     `json:"total_qty"`
	TotalMetres    float64 `json:"total_metres"`
}

type CutRequest struct {
	MeshType      string  `json:"mesh_type"`
	SourceWidthMM int     `json:"source_width_mm"`
	LengthM       float64 `json:"length_m"`
	Colour        string  `json:"colour"`
	TargetWidths  []int   `json:"target_widths"`
	Operator      string  `json:"operator,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

type IncomingRequest struct {
	RollKey
	Quantity         int    `json:"quantity"`
	OrderDate        string `json:"order_date,omitempty"`
	ExpectedDelivery string `json:"expected_delivery"`
	Supplier         string `json:"supplier,omitempty"`
}

func (s *Store) updateMesh(ctx context.Context, fn func(doc *domain.MeshDocument) error) error {
	return update(ctx, s, repository.CollectionMesh, fn)
}

func (s *Store) meshDocument(ctx context.Context) (domain.MeshDocument, error) {
	return loadDoc[domain.MeshDocument](ctx, s, repository.CollectionMesh)
}

func addRolls(doc *domain.MeshDocument, req AddRollsRequest, now time.Time) domain.MeshRoll {
	received := req.ReceivedDate
	if received == "" {
		received = today(now)
	}
	location := req.Location
	if location == "" {
		location = "Warehouse"
	}
	roll := domain.MeshRoll{
		ID:           newID(),
		MeshType:     req.MeshType,
		WidthMM:      req.WidthMM,
		LengthM:      req.LengthM,
		Colour:       req.Colour,
		Quantity:     req.Quantity,
		ReceivedDate: received,
		Location:     location,
		Notes:        req.Notes,
		CreatedAt:    now,
	}
	doc.Inventory = append(doc.Inventory, roll)
	doc.LastUpdated = now
	return roll
}

// AddRolls records newly received rolls as their own inventory entry.
func (s *Store) AddRolls(ctx context.Context, req AddRollsRequest) (domain.MeshRoll, error) {
	if err := req.validate(); err != nil {
		return domain.MeshRoll{}, err
	}
	if req.Quantity <= 0 {
		return domain.MeshRoll{}, fmt.Errorf("%w: got %d rolls", domain.ErrInvalidQuantity, req.Quantity)
	}

	var roll domain.MeshRoll
	err := s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		roll = addRolls(doc, req, s.now())
		return nil
	})
	return roll, err
}

// removeRolls draws qty rolls from the oldest matching entries first. It
// checks the total before touching anything.
func removeRolls(doc *domain.MeshDocument, key RollKey, qty int, reason, orderID string, now time.Time) error {
	available := 0
	for _, r := range doc.Inventory {
		if key.matches(r.MeshType, r.WidthMM, r.LengthM, r.Colour) && r.Quantity > 0 {
			available += r.Quantity
		}
	}
	if available < qty {
		return fmt.Errorf("%w: %d x %gm %dmm %s on hand, %d requested",
			domain.ErrInsufficientStock, available, key.LengthM, key.WidthMM, key.Colour, qty)
	}

	remaining := qty
	kept := doc.Inventory[:0]
	for _, r := range doc.Inventory {
		if remaining > 0 && key.matches(r.MeshType, r.WidthMM, r.LengthM, r.Colour) && r.Quantity > 0 {
			take := min(r.Quantity, remaining)
			r.Quantity -= take
			remaining -= take
		}
		if r.Quantity > 0 {
			kept = append(kept, r)
		}
	}
	doc.Inventory = kept

	doc.UsageHistory = append(doc.UsageHistory, domain.UsageEvent{
		Date:     now,
		Category: domain.CategoryMesh,
		Type:     key.MeshType,
		WidthMM:  key.WidthMM,
		LengthM:  key.LengthM,
		Colour:   key.Colour,
		Quantity: qty,
		Reason:   reason,
		OrderID:  orderID,
	})
	doc.LastUpdated = now
	return nil
}

// RemoveRolls takes rolls off the shelf and logs the usage. Asking for more
// than is on hand fails with ErrInsufficientStock and changes nothing.
func (s *Store) RemoveRolls(ctx context.Context, key RollKey, qty int, reason, orderID string) error {
	if err := key.validate(); err != nil {
		return err
	}
	if qty <= 0 {
		return fmt.Errorf("%w: got %d rolls", domain.ErrInvalidQuantity, qty)
	}
	if reason == "" {
		reason = "order"
	}
	return s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		return removeRolls(doc, key, qty, reason, orderID, s.now())
	})
}

// Stock lists rolls on hand matching filter.
func (s *Store) Stock(ctx context.Context, filter domain.MeshFilter) ([]domain.MeshRoll, error) {
	doc, err := s.meshDocument(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.MeshRoll{}
	for _, r := range doc.Inventory {
		if r.Quantity > 0 && filter.Match(r.MeshType, r.WidthMM, r.LengthM, r.Colour) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) StockMetres(ctx context.Context, filter domain.MeshFilter) (float64, error) {
	rolls, err := s.Stock(ctx, filter)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, r := range rolls {
		total += r.Metres()
	}
	return total, nil
}

// MeshSummary groups shelf stock by type, width, length and colour.
func (s *Store) MeshSummary(ctx context.Context) ([]MeshSummaryLine, error) {
	rolls, err := s.Stock(ctx, domain.MeshFilter{})
	if err != nil {
		return nil, err
	}
	return summarize(rolls, func(r domain.MeshRoll) (RollKey, int) {
		return RollKey{MeshType: r.MeshType, WidthMM: r.WidthMM, LengthM: r.LengthM, Colour: r.Colour}, r.Quantity
	}), nil
}

func summarize[T any](items []T, keyOf func(T) (RollKey, int)) []MeshSummaryLine {
	index := make(map[RollKey]int)
	out := []MeshSummaryLine{}
	for _, it := range items {
		k, qty := keyOf(it)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, MeshSummaryLine{RollKey: k})
		}
		out[i].Quantity += qty
		out[i].TotalMetres += float64(qty) * k.LengthM
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].RollKey, out[j].RollKey
		if a.MeshType != b.MeshType {
			return a.MeshType < b.MeshType
		}
		if a.Colour != b.Colour {
			return a.Colour < b.Colour
		}
		if a.WidthMM != b.WidthMM {
			return a.WidthMM < b.WidthMM
		}
		return a.LengthM < b.LengthM
	})
	return out
}

// CuttingOptions lists the presets a roll of sourceWidthMM can be cut into.
func (s *Store) CuttingOptions(sourceWidthMM int) []config.CutPreset {
	opts := s.catalog.Get().CuttingOptions(sourceWidthMM)
	if opts == nil {
		return []config.CutPreset{}
	}
	return opts
}

// CutRoll splits one source roll into narrower rolls of the same length and
// colour. The target widths must add up to the source width exactly.
func (s *Store) CutRoll(ctx context.Context, req CutRequest) (domain.CutRecord, error) {
	source := RollKey{MeshType: req.MeshType, WidthMM: req.SourceWidthMM, LengthM: req.LengthM, Colour: req.Colour}
	if err := source.validate(); err != nil {
		return domain.CutRecord{}, err
	}
	if len(req.TargetWidths) == 0 {
		return domain.CutRecord{}, fmt.Errorf("%w: no target widths", domain.ErrInvalidCut)
	}
	total := 0
	for _, w := range req.TargetWidths {
		if w <= 0 {
			return domain.CutRecord{}, fmt.Errorf("%w: target width %dmm", domain.ErrInvalidCut, w)
		}
		total += w
	}
	if total != req.SourceWidthMM {
		return domain.CutRecord{}, fmt.Errorf("%w: target widths (%dmm) must equal source width (%dmm)",
			domain.ErrInvalidCut, total, req.SourceWidthMM)
	}

	var record domain.CutRecord
	err := s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		now := s.now()
		if err := removeRolls(doc, source, 1, "cut", "", now); err != nil {
			return err
		}

		var widths []int
		counts := make(map[int]int)
		for _, w := range req.TargetWidths {
			if counts[w] == 0 {
				widths = append(widths, w)
			}
			counts[w]++
		}

		record = domain.CutRecord{
			ID:            newID(),
			Date:          now,
			MeshType:      req.MeshType,
			SourceWidthMM: req.SourceWidthMM,
			LengthM:       req.LengthM,
			Colour:        req.Colour,
			Operator:      req.Operator,
			Notes:         req.Notes,
		}
		for _, w := range widths {
			roll := addRolls(doc, AddRollsRequest{
				RollKey:  RollKey{MeshType: req.MeshType, WidthMM: w, LengthM: req.LengthM, Colour: req.Colour},
				Quantity: counts[w],
				Notes:    fmt.Sprintf("Cut from %dmm roll", req.SourceWidthMM),
			}, now)
			record.Results = append(record.Results, domain.CutResult{WidthMM: w, Quantity: counts[w], RollID: roll.ID})
		}
		doc.CuttingHistory = append(doc.CuttingHistory, record)
		return nil
	})
	return record, err
}

// CuttingHistory returns cuts from the last days, newest first.
func (s *Store) CuttingHistory(ctx context.Context, days int) ([]domain.CutRecord, error) {
	doc, err := s.meshDocument(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := s.now().AddDate(0, 0, -days)
	out := []domain.CutRecord{}
	for _, c := range doc.CuttingHistory {
		if !c.Date.Before(cutoff) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// AddIncoming records mesh ordered from the supplier.
func (s *Store) AddIncoming(ctx context.Context, req IncomingRequest) (domain.IncomingOrder, error) {
	if err := req.validate(); err != nil {
		return domain.IncomingOrder{}, err
	}
	if req.Quantity <= 0 {
		return domain.IncomingOrder{}, fmt.Errorf("%w: got %d rolls", domain.ErrInvalidQuantity, req.Quantity)
	}

	var order domain.IncomingOrder
	err := s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		now := s.now()
		orderDate := req.OrderDate
		if orderDate == "" {
			orderDate = today(now)
		}
		order = domain.IncomingOrder{
			ID:               newID(),
			MeshType:         req.MeshType,
			WidthMM:          req.WidthMM,
			LengthM:          req.LengthM,
			Colour:           req.Colour,
			Quantity:         req.Quantity,
			OrderDate:        orderDate,
			ExpectedDelivery: req.ExpectedDelivery,
			Supplier:         req.Supplier,
			Status:           domain.IncomingOrdered,
			CreatedAt:        now,
		}
		doc.IncomingOrders = append(doc.IncomingOrders, order)
		doc.LastUpdated = now
		return nil
	})
	return order, err
}

// Incoming lists orders with the given status (all when empty), soonest
// expected delivery first.
func (s *Store) Incoming(ctx context.Context, status domain.IncomingStatus) ([]domain.IncomingOrder, error) {
	doc, err := s.meshDocument(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.IncomingOrder{}
	for _, o := range doc.IncomingOrders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpectedDelivery < out[j].ExpectedDelivery })
	return out, nil
}

func findOrder(doc *domain.MeshDocument, id string) (int, error) {
	for i, o := range doc.IncomingOrders {
		if o.ID == id {
			if o.Status != domain.IncomingOrdered {
				return -1, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidStatus, id, o.Status)
			}
			return i, nil
		}
	}
	return -1, fmt.Errorf("incoming order %s: %w", id, domain.ErrNotFound)
}

// ReceiveIncoming puts an ordered delivery on the shelf and marks it received.
func (s *Store) ReceiveIncoming(ctx context.Context, id string) (domain.IncomingOrder, error) {
	var order domain.IncomingOrder
	err := s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		i, err := findOrder(doc, id)
		if err != nil {
			return err
		}
		now := s.now()
		o := &doc.IncomingOrders[i]
		addRolls(doc, AddRollsRequest{
			RollKey:      RollKey{MeshType: o.MeshType, WidthMM: o.WidthMM, LengthM: o.LengthM, Colour: o.Colour},
			Quantity:     o.Quantity,
			ReceivedDate: today(now),
			Notes:        "Received from incoming order " + id,
		}, now)
		o.Status = domain.IncomingReceived
		o.ReceivedDate = today(now)
		order = *o
		return nil
	})
	return order, err
}

// CancelIncoming deletes an order that has not been received.
func (s *Store) CancelIncoming(ctx context.Context, id string) error {
	return s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		i, err := findOrder(doc, id)
		if err != nil {
			return err
		}
		doc.IncomingOrders = append(doc.IncomingOrders[:i], doc.IncomingOrders[i+1:]...)
		doc.LastUpdated = s.now()
		return nil
	})
}

// IncomingMetres totals ordered, not yet received, metres matching filter.
func (s *Store) IncomingMetres(ctx context.Context, filter domain.MeshFilter) (float64, error) {
	orders, err := s.Incoming(ctx, domain.IncomingOrdered)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, o := range orders {
		if filter.Match(o.MeshType, o.WidthMM, o.LengthM, o.Colour) {
			total += o.Metres()
		}
	}
	return total, nil
}

// IncomingSummary groups ordered mesh by type, width, length and colour.
func (s *Store) IncomingSummary(ctx context.Context) ([]MeshSummaryLine, error) {
	orders, err := s.Incoming(ctx, domain.IncomingOrdered)
	if err != nil {
		return nil, err
	}
	return summarize(orders, func(o domain.IncomingOrder) (RollKey, int) {
		return RollKey{MeshType: o.MeshType, WidthMM: o.WidthMM, LengthM: o.LengthM, Colour: o.Colour}, o.Quantity
	}), nil
}

func (s *Store) StockWithIncoming(ctx context.Context, key RollKey) (StockPosition, error) {
	doc, err := s.meshDocument(ctx)
	if err != nil {
		return StockPosition{}, err
	}
	var pos StockPosition
	for _, r := range doc.Inventory {
		if key.matches(r.MeshType, r.WidthMM, r.LengthM, r.Colour) {
			pos.OnShelfQty += r.Quantity
		}
	}
	for _, o := range doc.IncomingOrders {
		if o.Status == domain.IncomingOrdered && key.matches(o.MeshType, o.WidthMM, o.LengthM, o.Colour) {
			pos.IncomingQty += o.Quantity
		}
	}
	pos.OnShelfMetres = float64(pos.OnShelfQty) * key.LengthM
	pos.IncomingMetres = float64(pos.IncomingQty) * key.LengthM
	pos.TotalQty = pos.OnShelfQty + pos.IncomingQty
	pos.TotalMetres = pos.OnShelfMetres + pos.IncomingMetres
	return pos, nil
}

// ReplaceMeshType swaps the shelf stock of one mesh type for a count,
// leaving other mesh types, incoming orders and history alone.
func (s *Store) ReplaceMeshType(ctx context.Context, meshType string, counts map[RollKey]int, source string) error {
	for k, qty := range counts {
		if qty < 0 {
			return fmt.Errorf("%w: negative count for %+v", domain.ErrInvalidQuantity, k)
		}
		if k.MeshType != meshType {
			return fmt.Errorf("%w: %s counted under %s", domain.ErrInvalidInput, k.MeshType, meshType)
		}
		if err := k.validate(); err != nil {
			return err
		}
	}

	keys := make([]RollKey, 0, len(counts))
	for k, qty := range counts {
		if qty > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Colour != keys[j].Colour {
			return keys[i].Colour < keys[j].Colour
		}
		if keys[i].WidthMM != keys[j].WidthMM {
			return keys[i].WidthMM < keys[j].WidthMM
		}
		return keys[i].LengthM < keys[j].LengthM
	})

	return s.updateMesh(ctx, func(doc *domain.MeshDocument) error {
		now := s.now()
		kept := doc.Inventory[:0]
		for _, r := range doc.Inventory {
			if r.MeshType != meshType {
				kept = append(kept, r)
			}
		}
		doc.Inventory = kept
		for _, k := range keys {
			addRolls(doc, AddRollsRequest{RollKey: k, Quantity: counts[k], Location: "Warehouse", Notes: source}, now)
		}
		doc.LastUpdated = now
		return nil
	})
}
