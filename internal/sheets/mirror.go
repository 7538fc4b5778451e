package sheets

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/domain"
)

// Writer replaces the rows of one spreadsheet tab.
type Writer interface {
	WriteTab(ctx context.Context, tab string, rows [][]interface{}) error
}

// StockReader is the part of the inventory store the mirror reads.
type StockReader interface {
	MeshRolls(ctx context.Context) ([]domain.MeshRoll, error)
	Screws(ctx context.Context) ([]domain.ScrewRecord, error)
	Saddles(ctx context.Context) ([]domain.SaddleRecord, error)
	Trims(ctx context.Context) ([]domain.TrimRecord, error)
	Boxes(ctx context.Context) ([]domain.BoxRecord, error)
	Coils(ctx context.Context, filter domain.CoilFilter) ([]domain.Coil, error)
}

// Tab names, one per collection.
const (
	TabMesh    = "Mesh Rolls"
	TabScrews  = "Screws"
	TabSaddles = "Saddles"
	TabTrims   = "Trims"
	TabBoxes   = "Boxes"
	TabCoils   = "Coils"
)

type Status struct {
	LastSync  *time.Time     `json:"last_sync,omitempty"`
	Rows      map[string]int `json:"rows"`
	LastError string         `json:"last_error,omitempty"`
	Running   bool           `json:"running"`
}

// Mirror copies current stock into the spreadsheet. Syncs are serialised.
type Mirror struct {
	stock  StockReader
	writer Writer
	now    func() time.Time

	syncMu sync.Mutex
	mu     sync.RWMutex
	status Status
}

func NewMirror(stock StockReader, writer Writer, now func() time.Time) *Mirror {
	if now == nil {
		now = time.Now
	}
	return &Mirror{stock: stock, writer: writer, now: now, status: Status{Rows: map[string]int{}}}
}

type tab struct {
	name  string
	build func(ctx context.Context) ([][]interface{}, error)
}

func (m *Mirror) tabs() []tab {
	return []tab{
		{TabMesh, m.meshRows},
		{TabScrews, m.screwRows},
		{TabSaddles, m.saddleRows},
		{TabTrims, m.trimRows},
		{TabBoxes, m.boxRows},
		{TabCoils, m.coilRows},
	}
}

// Sync writes every tab. A failing tab stops the sync; tabs already written
// keep their new contents.
func (m *Mirror) Sync(ctx context.Context) (Status, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	m.setRunning(true)
	rows := make(map[string]int)
	var syncErr error
	for _, t := range m.tabs() {
		data, err := t.build(ctx)
		if err == nil {
			err = m.writer.WriteTab(ctx, t.name, data)
		}
		if err != nil {
			syncErr = fmt.Errorf("sync %s: %w", t.name, err)
			break
		}
		rows[t.name] = len(data) - 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.Running = false
	if syncErr != nil {
		m.status.LastError = syncErr.Error()
		log.Error().Err(syncErr).Msg("sheets: sync failed")
		return m.snapshot(), syncErr
	}
	ts := m.now()
	m.status.LastSync = &ts
	m.status.Rows = rows
	m.status.LastError = ""
	log.Info().Interface("rows", rows).Msg("sheets: sync complete")
	return m.snapshot(), nil
}

func (m *Mirror) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Mirror) setRunning(running bool) {
	m.mu.Lock()
	m.status.Running = running
	m.mu.Unlock()
}

// snapshot must be called with mu held.
func (m *Mirror) snapshot() Status {
	out := m.status
	out.Rows = make(map[string]int, len(m.status.Rows))
	for k, v := range m.status.Rows {
		out.Rows[k] = v
	}
	return out
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (m *Mirror) meshRows(ctx context.Context) ([][]interface{}, error) {
	rolls, err := m.stock.MeshRolls(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rolls, func(i, j int) bool { return rolls[i].StockKey() < rolls[j].StockKey() })

	rows := [][]interface{}{{"id", "mesh_type", "width_mm", "length_m", "colour", "quantity", "metres", "received_date", "location"}}
	for _, r := range rolls {
		if r.Quantity <= 0 {
			continue
		}
		rows = append(rows, []interface{}{r.ID, r.MeshType, r.WidthMM, r.LengthM, r.Colour, r.Quantity, r.Metres(), r.ReceivedDate, r.Location})
	}
	return rows, nil
}

func (m *Mirror) screwRows(ctx context.Context) ([][]interface{}, error) {
	records, err := m.stock.Screws(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{"id", "screw_type", "colour", "quantity", "source", "last_updated"}}
	for _, r := range records {
		rows = append(rows, []interface{}{r.ID, r.ScrewType, r.Colour, r.Quantity, r.Source, stamp(r.LastUpdated)})
	}
	return rows, nil
}

func (m *Mirror) saddleRows(ctx context.Context) ([][]interface{}, error) {
	records, err := m.stock.Saddles(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{"id", "saddle_type", "colour", "quantity", "source", "last_updated"}}
	for _, r := range records {
		rows = append(rows, []interface{}{r.ID, r.SaddleType, r.Colour, r.Quantity, r.Source, stamp(r.LastUpdated)})
	}
	return rows, nil
}

func (m *Mirror) trimRows(ctx context.Context) ([][]interface{}, error) {
	records, err := m.stock.Trims(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{"id", "colour", "quantity", "source", "last_updated"}}
	for _, r := range records {
		rows = append(rows, []interface{}{r.ID, r.Colour, r.Quantity, r.Source, stamp(r.LastUpdated)})
	}
	return rows, nil
}

func (m *Mirror) boxRows(ctx context.Context) ([][]interface{}, error) {
	records, err := m.stock.Boxes(ctx)
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{"id", "box_type", "quantity", "source", "last_updated"}}
	for _, r := range records {
		rows = append(rows, []interface{}{r.ID, r.BoxType, r.Quantity, r.Source, stamp(r.LastUpdated)})
	}
	return rows, nil
}

func (m *Mirror) coilRows(ctx context.Context) ([][]interface{}, error) {
	coils, err := m.stock.Coils(ctx, domain.CoilFilter{})
	if err != nil {
		return nil, err
	}
	rows := [][]interface{}{{"id", "saddle_type", "colour", "initial_weight_kg", "current_weight_kg", "estimated_yield", "status", "supplier", "received_date"}}
	for _, c := range coils {
		rows = append(rows, []interface{}{c.ID, c.SaddleType, c.Colour, c.InitialWeightKg, c.CurrentWeightKg, c.EstimatedYield, string(c.Status), c.Supplier, c.ReceivedDate})
	}
	return rows, nil
}
