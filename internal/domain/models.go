package domain

import (
	"fmt"
	"strings"
	"time"
)

// Category names one stock collection.
type Category string

const (
	CategoryMesh    Category = "mesh"
	CategoryScrews  Category = "screws"
	CategorySaddles Category = "saddles"
	CategoryTrims   Category = "trims"
	CategoryBoxes   Category = "boxes"
	CategoryCoils   Category = "coils"
)

// ParseCategory accepts the singular and plural spellings used by clients.
func ParseCategory(name string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mesh", "mesh_rolls":
		return CategoryMesh, nil
	case "screws", "screw":
		return CategoryScrews, nil
	case "saddles", "saddle":
		return CategorySaddles, nil
	case "trims", "trim":
		return CategoryTrims, nil
	case "boxes", "box":
		return CategoryBoxes, nil
	case "coils", "coil":
		return CategoryCoils, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// Stockable is implemented by every counted stock record.
type Stockable interface {
	// StockKey identifies the dimension combination the record counts.
	StockKey() string
	OnHand() int
}

// ProductKey groups mesh stock and usage for forecasting. Length is not part
// of it: a 10m and a 30m roll of the same width and colour are one product.
type ProductKey struct {
	MeshType string `json:"mesh_type"`
	WidthMM  int    `json:"width_mm"`
	Colour   string `json:"colour"`
}

func (k ProductKey) String() string {
	return fmt.Sprintf("%s/%dmm/%s", k.MeshType, k.WidthMM, k.Colour)
}

// MeshRoll counts finished rolls of one type, width, length and colour.
type MeshRoll struct {
	ID           string    `json:"id"`
	MeshType     string    `json:"mesh_type"`
	WidthMM      int       `json:"width_mm"`
	LengthM      float64   `json:"length_m"`
	Colour       string    `json:"colour"`
	Quantity     int       `json:"quantity"`
	ReceivedDate string    `json:"received_date,omitempty"`
	Location     string    `json:"location,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r MeshRoll) StockKey() string {
	return fmt.Sprintf("%s|%d|%g|%s", r.MeshType, r.WidthMM, r.LengthM, r.Colour)
}

func (r MeshRoll) OnHand() int { return r.Quantity }

func (r MeshRoll) Metres() float64 { return float64(r.Quantity) * r.LengthM }

func (r MeshRoll) Product() ProductKey {
	return ProductKey{MeshType: r.MeshType, WidthMM: r.WidthMM, Colour: r.Colour}
}

// MeshFilter selects rolls; zero fields match everything.
type MeshFilter struct {
	MeshType string
	WidthMM  int
	LengthM  float64
	Colour   string
}

func (f MeshFilter) Match(meshType string, widthMM int, lengthM float64, colour string) bool {
	if f.MeshType != "" && f.MeshType != meshType {
		return false
	}
	if f.WidthMM != 0 && f.WidthMM != widthMM {
		return false
	}
	if f.LengthM != 0 && f.LengthM != lengthM {
		return false
	}
	if f.Colour != "" && f.Colour != colour {
		return false
	}
	return true
}

// StockCount is the shared part of counted stock records.
type StockCount struct {
	ID          string    `json:"id"`
	Quantity    int       `json:"quantity"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	LastUpdated time.Time `json:"last_updated"`
}

func (c StockCount) OnHand() int { return c.Quantity }

// Counter exposes the mutable count to the inventory ledgers.
func (c *StockCount) Counter() *StockCount { return c }

type ScrewRecord struct {
	StockCount
	ScrewType string `json:"screw_type"`
	Colour    string `json:"colour"`
}

func (r ScrewRecord) StockKey() string { return r.ScrewType + "|" + r.Colour }

type SaddleRecord struct {
	StockCount
	SaddleType string `json:"saddle_type"`
	Colour     string `json:"colour"`
}

func (r SaddleRecord) StockKey() string { return r.SaddleType + "|" + r.Colour }

type TrimRecord struct {
	StockCount
	Colour string `json:"colour"`
}

func (r TrimRecord) StockKey() string { return r.Colour }

type BoxRecord struct {
	StockCount
	BoxType string `json:"box_type"`
}

func (r BoxRecord) StockKey() string { return r.BoxType }

// Coil is raw steel waiting to be pressed into saddles or trims.
type Coil struct {
	ID              string     `json:"id"`
	SaddleType      string     `json:"saddle_type"`
	Colour          string     `json:"colour"`
	InitialWeightKg float64    `json:"initial_weight_kg"`
	CurrentWeightKg float64    `json:"current_weight_kg"`
	EstimatedYield  int        `json:"estimated_yield"`
	Status          CoilStatus `json:"status"`
	Supplier        string     `json:"supplier,omitempty"`
	ReceivedDate    string     `json:"received_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// weightEpsilon only absorbs float residue left by repeated subtraction when
// a coil is used up exactly; a real over-draw still fails.
const weightEpsilon = 1e-9

// Consume takes weightKg off the coil. Asking for more than is left fails
// and leaves the coil untouched.
func (c *Coil) Consume(weightKg float64) error {
	if weightKg <= 0 {
		return ErrInvalidQuantity
	}
	if weightKg > c.CurrentWeightKg+weightEpsilon {
		return fmt.Errorf("%w: coil %s has %.2fkg, requested %.2fkg",
			ErrInsufficientMaterial, c.ID, c.CurrentWeightKg, weightKg)
	}
	c.CurrentWeightKg -= weightKg
	if c.CurrentWeightKg < weightEpsilon {
		c.CurrentWeightKg = 0
	}
	c.Status = DeriveCoilStatus(c.InitialWeightKg, c.CurrentWeightKg)
	return nil
}

// DeriveCoilStatus is depleted at zero, in use once partially consumed.
func DeriveCoilStatus(initialKg, currentKg float64) CoilStatus {
	switch {
	case currentKg <= 0:
		return CoilDepleted
	case currentKg < initialKg:
		return CoilInUse
	default:
		return CoilInStock
	}
}

// UsageEvent is an append-only record of stock leaving the shelf.
type UsageEvent struct {
	Date     time.Time `json:"date"`
	Category Category  `json:"category"`
	Type     string    `json:"type,omitempty"`
	WidthMM  int       `json:"width_mm,omitempty"`
	LengthM  float64   `json:"length_m,omitempty"`
	Colour   string    `json:"colour,omitempty"`
	Quantity int       `json:"quantity"`
	Reason   string    `json:"reason"`
	OrderID  string    `json:"order_id,omitempty"`
}

// Metres is only meaningful for mesh events.
func (e UsageEvent) Metres() float64 { return float64(e.Quantity) * e.LengthM }

func (e UsageEvent) Product() ProductKey {
	return ProductKey{MeshType: e.Type, WidthMM: e.WidthMM, Colour: e.Colour}
}

type ProductionRecord struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	CoilID         string    `json:"coil_id"`
	SaddleType     string    `json:"saddle_type"`
	Colour         string    `json:"colour"`
	WeightUsedKg   float64   `json:"weight_used_kg"`
	UsableKg       float64   `json:"usable_kg"`
	WasteKg        float64   `json:"waste_kg"`
	ExpectedOutput int       `json:"expected_output"`
	ActualOutput   int       `json:"actual_output"`
	OutputUnit     string    `json:"output_unit"`
	Operator       string    `json:"operator,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

// IncomingOrder is mesh on the way from the supplier.
type IncomingOrder struct {
	ID               string         `json:"id"`
	MeshType         string         `json:"mesh_type"`
	WidthMM          int            `json:"width_mm"`
	LengthM          float64        `json:"length_m"`
	Colour           string         `json:"colour"`
	Quantity         int            `json:"quantity"`
	OrderDate        string         `json:"order_date"`
	ExpectedDelivery string         `json:"expected_delivery"`
	Supplier         string         `json:"supplier,omitempty"`
	Status           IncomingStatus `json:"status"`
	ReceivedDate     string         `json:"received_date,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (o IncomingOrder) Metres() float64 { return float64(o.Quantity) * o.LengthM }

type CutResult struct {
	WidthMM  int    `json:"width_mm"`
	Quantity int    `json:"quantity"`
	RollID   string `json:"roll_id"`
}

// CutRecord logs one wide roll split into narrower rolls.
type CutRecord struct {
	ID            string      `json:"id"`
	Date          time.Time   `json:"date"`
	MeshType      string      `json:"mesh_type"`
	SourceWidthMM int         `json:"source_width_mm"`
	LengthM       float64     `json:"length_m"`
	Colour        string      `json:"colour"`
	Results       []CutResult `json:"results"`
	Operator      string      `json:"operator,omitempty"`
	Notes         string      `json:"notes,omitempty"`
}

// CoilFilter selects coils; zero fields match everything.
type CoilFilter struct {
	SaddleType string
	Colour     string
	Status     CoilStatus
}

func (f CoilFilter) Match(c Coil) bool {
	if f.SaddleType != "" && f.SaddleType != c.SaddleType {
		return false
	}
	if f.Colour != "" && f.Colour != c.Colour {
		return false
	}
	if f.Status != "" && f.Status != c.Status {
		return false
	}
	return true
}
