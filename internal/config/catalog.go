package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is the domain configuration: product types, lead times, yields,
// prices and the kit breakdown used to turn orders into component usage.
type Catalog struct {
	Colours     []string              `yaml:"colours"`
	Mesh        MeshCatalog           `yaml:"mesh"`
	Production  YieldParams           `yaml:"production"`
	SaddleTypes map[string]SaddleType `yaml:"saddle_types"`
	ScrewTypes  map[string]ScrewType  `yaml:"screw_types"`
	Boxes       BoxCatalog            `yaml:"boxes"`
	LeadTimes   LeadTimes             `yaml:"lead_times"`
	Cutting     map[int][]CutPreset   `yaml:"cutting"`
	Pricing     Pricing               `yaml:"pricing"`
	KitTerms    []string              `yaml:"kit_terms"`
	Kits        []Kit                 `yaml:"kits"`
}

type MeshCatalog struct {
	DefaultLeadTimeMonths float64             `yaml:"default_lead_time_months"`
	Types                 map[string]MeshType `yaml:"types"`
}

type MeshType struct {
	Name              string    `yaml:"name"`
	LeadTimeMonths    *float64  `yaml:"lead_time_months"`
	Widths            []int     `yaml:"widths"`
	Lengths           []float64 `yaml:"lengths"`
	StocktakeCategory string    `yaml:"stocktake_category"`
}

type YieldParams struct {
	YieldPerKg   float64 `yaml:"yield_per_kg"`
	WastePercent float64 `yaml:"waste_percent"`
}

// SaddleType covers every coil type that can be pressed, including trims.
// Nil fields fall back to Production.
type SaddleType struct {
	Name         string   `yaml:"name"`
	YieldPerKg   *float64 `yaml:"yield_per_kg"`
	WastePercent *float64 `yaml:"waste_percent"`
	OutputUnit   string   `yaml:"output_unit"`
}

type ScrewType struct {
	Name     string `yaml:"name"`
	UsageKey string `yaml:"usage_key"`
}

type BoxCatalog struct {
	DefaultUsageRatio float64            `yaml:"default_usage_ratio"`
	Types             map[string]BoxType `yaml:"types"`
}

type BoxType struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	PackSize    int      `yaml:"pack_size"`
	UsageRatio  *float64 `yaml:"usage_ratio"`
}

// LeadTimes for fast moving components, in days.
type LeadTimes struct {
	SaddleDays float64 `yaml:"saddle_days"`
	TrimDays   float64 `yaml:"trim_days"`
	ScrewDays  float64 `yaml:"screw_days"`
	BoxDays    float64 `yaml:"box_days"`
}

type CutPreset struct {
	Label  string `yaml:"label"`
	Widths []int  `yaml:"widths"`
}

type Pricing struct {
	MeshPerMetre map[string]float64 `yaml:"mesh_per_metre"`
	ScrewPerBox  float64            `yaml:"screw_per_box"`
	ScrewBoxSize int                `yaml:"screw_box_size"`
	SaddleEach   map[string]float64 `yaml:"saddle_each"`
	TrimEach     float64            `yaml:"trim_each"`
	BoxEach      map[string]float64 `yaml:"box_each"`
	CoilPerKg    float64            `yaml:"coil_per_kg"`
}

type Kit struct {
	ProductName string       `yaml:"product_name"`
	Variants    []KitVariant `yaml:"variants"`
}

type KitVariant struct {
	Size       string        `yaml:"size"`
	Components KitComponents `yaml:"components"`
}

type KitComponents struct {
	Mesh         *KitMesh `yaml:"mesh"`
	Saddles      int      `yaml:"saddles"`
	SaddleScrews int      `yaml:"saddle_screws"`
	TrimScrews   int      `yaml:"trim_screws"`
	MeshScrews   int      `yaml:"mesh_screws"`
	Trims        int      `yaml:"trims"`
}

type KitMesh struct {
	MeshType string  `yaml:"mesh_type"`
	WidthMM  int     `yaml:"width_mm"`
	LengthM  float64 `yaml:"length_m"`
}

// Resolved yield parameters for one coil type.
type Yield struct {
	YieldPerKg   float64
	WastePercent float64
	OutputUnit   string
}

const (
	defaultOutputUnit    = "saddles"
	defaultScrewUsageKey = "saddle_screws"

	// DaysPerMonth is the month length used when converting daily rates.
	DaysPerMonth = 30
)

// MeshLeadTimeMonths returns the supplier lead time for a mesh type.
func (c *Catalog) MeshLeadTimeMonths(meshType string) float64 {
	if t, ok := c.Mesh.Types[meshType]; ok && t.LeadTimeMonths != nil {
		return *t.LeadTimeMonths
	}
	return c.Mesh.DefaultLeadTimeMonths
}

// MeshName is the display name, the raw key when unknown.
func (c *Catalog) MeshName(meshType string) string {
	if t, ok := c.Mesh.Types[meshType]; ok && t.Name != "" {
		return t.Name
	}
	return meshType
}

// YieldFor resolves yield parameters field by field against the global
// production defaults.
func (c *Catalog) YieldFor(coilType string) Yield {
	y := Yield{
		YieldPerKg:   c.Production.YieldPerKg,
		WastePercent: c.Production.WastePercent,
		OutputUnit:   defaultOutputUnit,
	}
	t, ok := c.SaddleTypes[coilType]
	if !ok {
		return y
	}
	if t.YieldPerKg != nil {
		y.YieldPerKg = *t.YieldPerKg
	}
	if t.WastePercent != nil {
		y.WastePercent = *t.WastePercent
	}
	if t.OutputUnit != "" {
		y.OutputUnit = t.OutputUnit
	}
	return y
}

// ScrewUsageKey maps a screw type onto the order usage counter it consumes.
func (c *Catalog) ScrewUsageKey(screwType string) string {
	if t, ok := c.ScrewTypes[screwType]; ok && t.UsageKey != "" {
		return t.UsageKey
	}
	return defaultScrewUsageKey
}

// BoxUsageRatio is the share of orders assumed to ship in this box type.
func (c *Catalog) BoxUsageRatio(boxType string) float64 {
	if t, ok := c.Boxes.Types[boxType]; ok && t.UsageRatio != nil {
		return *t.UsageRatio
	}
	return c.Boxes.DefaultUsageRatio
}

// BoxName is the display name of a box type.
func (c *Catalog) BoxName(boxType string) string {
	if t, ok := c.Boxes.Types[boxType]; ok && t.Name != "" {
		return t.Name
	}
	return boxType
}

// CuttingOptions lists the cut presets for a source width, nil when the
// width cannot be cut.
func (c *Catalog) CuttingOptions(sourceWidthMM int) []CutPreset {
	return c.Cutting[sourceWidthMM]
}

// SortedColours returns the colour list in alphabetical order.
func (c *Catalog) SortedColours() []string {
	out := append([]string(nil), c.Colours...)
	sort.Strings(out)
	return out
}

// Validate rejects values the forecast and yield maths cannot work with.
func (c *Catalog) Validate() error {
	var errs []error
	checkWaste := func(name string, w float64) {
		if w < 0 || w > 100 {
			errs = append(errs, fmt.Errorf("%s: waste_percent %.2f outside 0..100", name, w))
		}
	}
	checkWaste("production", c.Production.WastePercent)
	if c.Production.YieldPerKg < 0 {
		errs = append(errs, errors.New("production: yield_per_kg must not be negative"))
	}
	for key, t := range c.SaddleTypes {
		if t.WastePercent != nil {
			checkWaste("saddle_types."+key, *t.WastePercent)
		}
		if t.YieldPerKg != nil && *t.YieldPerKg < 0 {
			errs = append(errs, fmt.Errorf("saddle_types.%s: yield_per_kg must not be negative", key))
		}
	}
	if c.Mesh.DefaultLeadTimeMonths <= 0 {
		errs = append(errs, errors.New("mesh: default_lead_time_months must be positive"))
	}
	for name, lt := range map[string]float64{
		"saddle_days": c.LeadTimes.SaddleDays,
		"trim_days":   c.LeadTimes.TrimDays,
		"screw_days":  c.LeadTimes.ScrewDays,
		"box_days":    c.LeadTimes.BoxDays,
	} {
		if lt <= 0 {
			errs = append(errs, fmt.Errorf("lead_times.%s must be positive", name))
		}
	}
	for width, presets := range c.Cutting {
		for _, p := range presets {
			sum := 0
			for _, w := range p.Widths {
				sum += w
			}
			if sum != width {
				errs = append(errs, fmt.Errorf("cutting.%d: preset %q sums to %d", width, p.Label, sum))
			}
		}
	}
	return errors.Join(errs...)
}

// LoadCatalog reads a YAML catalogue on top of the compiled-in defaults.
// A missing file yields the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	cat := DefaultCatalog()
	if path == "" {
		return cat, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cat, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return cat, nil
}

// CatalogStore holds the active catalogue. Readers get a consistent
// snapshot; Reload swaps it atomically and keeps the old one on failure.
type CatalogStore struct {
	path string
	mu   sync.RWMutex
	cur  *Catalog
}

func NewCatalogStore(path string) (*CatalogStore, error) {
	cat, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return &CatalogStore{path: path, cur: cat}, nil
}

// NewStaticCatalogStore wraps an in-memory catalogue; Reload is a no-op.
func NewStaticCatalogStore(cat *Catalog) *CatalogStore {
	return &CatalogStore{cur: cat}
}

func (s *CatalogStore) Get() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func (s *CatalogStore) Reload() error {
	if s.path == "" {
		return nil
	}
	cat, err := LoadCatalog(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cur = cat
	s.mu.Unlock()
	return nil
}

func f64(v float64) *float64 { return &v }

// DefaultCatalog is the built-in catalogue used when no file is present.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Colours: []string{
			"Basalt", "Classic Cream", "Cottage Green", "Deep Ocean", "Dune",
			"Evening Haze", "Gully", "Ironstone", "Jasper", "Mangrove",
			"Manor Red", "Monument", "Night Sky", "Pale Eucalypt", "Paperbark",
			"Shale Grey", "Surfmist", "Wallaby", "Windspray", "Woodland Grey",
		},
		Mesh: MeshCatalog{
			DefaultLeadTimeMonths: 4,
			Types: map[string]MeshType{
				"4mm_aluminium": {
					Name:              "4mm Aluminium Mesh",
					LeadTimeMonths:    f64(4),
					Widths:            []int{250, 500, 750, 1000},
					Lengths:           []float64{10, 20, 30},
					StocktakeCategory: "mesh_4mm",
				},
				"2mm_ember_guard": {
					Name:              "2mm Ember Guard Mesh",
					LeadTimeMonths:    f64(4),
					Widths:            []int{250, 500, 1000},
					Lengths:           []float64{10, 20, 30},
					StocktakeCategory: "mesh_2mm",
				},
			},
		},
		Production: YieldParams{YieldPerKg: 66, WastePercent: 27},
		SaddleTypes: map[string]SaddleType{
			"corrugated": {Name: "Corrugated", YieldPerKg: f64(66), WastePercent: f64(27), OutputUnit: "saddles"},
			"trimdek":    {Name: "Trimdek", YieldPerKg: f64(66), WastePercent: f64(27), OutputUnit: "saddles"},
			"trim":       {Name: "Trim", YieldPerKg: f64(8.4), WastePercent: f64(0), OutputUnit: "trims"},
		},
		ScrewTypes: map[string]ScrewType{
			"saddle_screw": {Name: "Saddle Screws", UsageKey: "saddle_screws"},
			"trim_screw":   {Name: "Trim Screws", UsageKey: "trim_screws"},
			"mesh_screw":   {Name: "Mesh Screws", UsageKey: "mesh_screws"},
			"screws":       {Name: "Screws", UsageKey: "saddle_screws"},
		},
		Boxes: BoxCatalog{
			DefaultUsageRatio: 0.33,
			Types: map[string]BoxType{
				"small_tube": {Name: "Small Tube", Description: "Up to 10m kits", PackSize: 25, UsageRatio: f64(0.5)},
				"large_tube": {Name: "Large Tube", Description: "20m and 30m kits", PackSize: 25, UsageRatio: f64(0.3)},
				"saddle_box": {Name: "Saddle Box", Description: "Saddles and screws", PackSize: 50, UsageRatio: f64(0.2)},
			},
		},
		LeadTimes: LeadTimes{SaddleDays: 14, TrimDays: 14, ScrewDays: 7, BoxDays: 7},
		Cutting: map[int][]CutPreset{
			1000: {
				{Label: "4x 250mm", Widths: []int{250, 250, 250, 250}},
				{Label: "2x 500mm", Widths: []int{500, 500}},
				{Label: "1x 500mm + 2x 250mm", Widths: []int{500, 250, 250}},
				{Label: "1x 750mm + 1x 250mm", Widths: []int{750, 250}},
			},
			750: {
				{Label: "3x 250mm", Widths: []int{250, 250, 250}},
				{Label: "1x 500mm + 1x 250mm", Widths: []int{500, 250}},
			},
			500: {
				{Label: "2x 250mm", Widths: []int{250, 250}},
			},
		},
		Pricing: Pricing{
			MeshPerMetre: map[string]float64{"4mm_aluminium": 6.5, "2mm_ember_guard": 9.8},
			ScrewPerBox:  42,
			ScrewBoxSize: 1000,
			SaddleEach:   map[string]float64{"corrugated": 0.45, "trimdek": 0.55},
			TrimEach:     1.2,
			BoxEach:      map[string]float64{"small_tube": 2.1, "large_tube": 3.4, "saddle_box": 0.9},
			CoilPerKg:    4.75,
		},
		KitTerms: []string{"corrugated", "trimdek", "klip-lok", "tiled", "valley", "box gutter", "ember"},
		Kits: []Kit{
			corrugatedKit("Corrugated Roof Gutter Guard Kit", "4mm_aluminium"),
			corrugatedKit("Trimdek Roof Gutter Guard Kit", "4mm_aluminium"),
			corrugatedKit("Ember Guard Corrugated Kit", "2mm_ember_guard"),
			{
				ProductName: "Tiled Roof Gutter Guard Kit",
				Variants: []KitVariant{
					{Size: "10m", Components: KitComponents{Mesh: &KitMesh{MeshType: "4mm_aluminium", WidthMM: 250, LengthM: 10}, TrimScrews: 20, Trims: 10}},
					{Size: "20m", Components: KitComponents{Mesh: &KitMesh{MeshType: "4mm_aluminium", WidthMM: 250, LengthM: 20}, TrimScrews: 40, Trims: 20}},
				},
			},
		},
	}
}

func corrugatedKit(name, meshType string) Kit {
	variant := func(metres float64) KitVariant {
		m := int(metres)
		return KitVariant{
			Size: fmt.Sprintf("%dm", m),
			Components: KitComponents{
				Mesh:         &KitMesh{MeshType: meshType, WidthMM: 250, LengthM: metres},
				Saddles:      m * 5,
				SaddleScrews: m * 5,
				TrimScrews:   m * 2,
				MeshScrews:   m,
				Trims:        m,
			},
		}
	}
	return Kit{ProductName: name, Variants: []KitVariant{variant(10), variant(20), variant(50)}}
}

// normalizeKey lower-cases and strips spaces, used for kit size matching.
func normalizeKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "")
}

// FindKitComponents resolves an order line onto kit components. The size
// is read from the variant prefix ("50m / Monument"); without a size match
// the first variant of the matched kit is used.
func (c *Catalog) FindKitComponents(title, variant string) (KitComponents, bool) {
	size := ""
	if variant != "" {
		part := strings.TrimSpace(strings.Split(variant, "/")[0])
		if strings.Contains(strings.ToLower(part), "m") {
			size = normalizeKey(part)
		}
	}
	for _, kit := range c.Kits {
		if !c.productMatches(title, kit.ProductName) || len(kit.Variants) == 0 {
			continue
		}
		for _, v := range kit.Variants {
			if size != "" && normalizeKey(v.Size) == size {
				return v.Components, true
			}
		}
		return kit.Variants[0].Components, true
	}
	return KitComponents{}, false
}

func (c *Catalog) productMatches(orderTitle, productName string) bool {
	order := strings.ToLower(orderTitle)
	product := strings.ToLower(productName)
	for _, term := range c.KitTerms {
		if strings.Contains(order, term) && strings.Contains(product, term) {
			return true
		}
	}
	return false
}
