package domain

import "time"

// Classification is the outcome of comparing stock runway with a lead time.
// Remaining is nil when there is no usage to project from.
type Classification struct {
	Remaining *float64 `json:"remaining"`
	Status    Status   `json:"status"`
}

type MeshForecast struct {
	MeshType        string   `json:"mesh_type"`
	MeshName        string   `json:"mesh_name"`
	WidthMM         int      `json:"width_mm"`
	Colour          string   `json:"colour"`
	CurrentRolls    int      `json:"current_rolls"`
	CurrentMetres   float64  `json:"current_metres"`
	IncomingMetres  float64  `json:"incoming_metres"`
	AvgDailyUsage   float64  `json:"avg_daily_usage"`
	AvgMonthlyUsage float64  `json:"avg_monthly_usage"`
	DaysRemaining   *float64 `json:"days_remaining"`
	MonthsRemaining *float64 `json:"months_remaining"`
	LeadTimeMonths  float64  `json:"lead_time_months"`
	Status          Status   `json:"status"`
}

func (f MeshForecast) Product() ProductKey {
	return ProductKey{MeshType: f.MeshType, WidthMM: f.WidthMM, Colour: f.Colour}
}

// ComponentTypeCoilYield marks entries that describe coil potential.
const ComponentTypeCoilYield = "coil_yield"

type ComponentForecast struct {
	Category      Category `json:"category"`
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Colour        string   `json:"colour,omitempty"`
	CurrentStock  int      `json:"current_stock"`
	Unit          string   `json:"unit"`
	UsageKey      string   `json:"usage_key,omitempty"`
	DailyUsage    float64  `json:"daily_usage"`
	DaysRemaining *float64 `json:"days_remaining"`
	LeadTimeDays  float64  `json:"lead_time_days"`
	Status        Status   `json:"status"`
	CoilID        string   `json:"coil_id,omitempty"`
	CoilWeightKg  float64  `json:"coil_weight_kg,omitempty"`
}

type ComponentForecasts struct {
	Saddles []ComponentForecast `json:"saddles"`
	Screws  []ComponentForecast `json:"screws"`
	Trims   []ComponentForecast `json:"trims"`
	Boxes   []ComponentForecast `json:"boxes"`
	Usage   UsageSummary        `json:"usage"`
}

// All returns every component entry in category order.
func (c ComponentForecasts) All() []ComponentForecast {
	out := make([]ComponentForecast, 0, len(c.Saddles)+len(c.Screws)+len(c.Trims)+len(c.Boxes))
	out = append(out, c.Saddles...)
	out = append(out, c.Screws...)
	out = append(out, c.Trims...)
	return append(out, c.Boxes...)
}

type ReorderSuggestion struct {
	MeshType             string  `json:"mesh_type"`
	MeshName             string  `json:"mesh_name"`
	WidthMM              int     `json:"width_mm"`
	Colour               string  `json:"colour"`
	CurrentMetres        float64 `json:"current_metres"`
	AvgMonthlyUsage      float64 `json:"avg_monthly_usage"`
	TargetMonths         float64 `json:"target_months"`
	TargetMetres         float64 `json:"target_metres"`
	SuggestedOrderMetres float64 `json:"suggested_order_metres"`
	IncomingMetres       float64 `json:"incoming_metres"`
	NetOrderMetres       float64 `json:"net_order_metres"`
	Urgency              Status  `json:"urgency"`
	Reason               string  `json:"reason"`
}

type SummaryStats struct {
	TotalRolls        int        `json:"total_rolls"`
	TotalMetres       float64    `json:"total_metres"`
	UniqueProducts    int        `json:"unique_products"`
	UsageRecentDays   int        `json:"usage_recent_days"`
	UsageRecentMetres float64    `json:"usage_last_30_days_metres"`
	IncomingMetres    float64    `json:"incoming_metres"`
	CriticalItems     int        `json:"critical_items"`
	LowStockItems     int        `json:"low_stock_items"`
	LastUpdated       *time.Time `json:"last_updated"`
	OrdersAnalyzed    int        `json:"orders_analyzed"`
}

type PeriodUsage struct {
	Period string  `json:"period"`
	Metres float64 `json:"metres"`
}

type ProductUsage struct {
	MeshType       string  `json:"mesh_type"`
	WidthMM        int     `json:"width_mm"`
	Colour         string  `json:"colour"`
	Rolls          int     `json:"rolls"`
	Metres         float64 `json:"metres"`
	AvgDailyMetres float64 `json:"avg_daily_metres"`
}

type YieldEstimate struct {
	CoilType       string  `json:"coil_type"`
	WeightKg       float64 `json:"weight_kg"`
	UsableKg       float64 `json:"usable_kg"`
	WasteKg        float64 `json:"waste_kg"`
	WastePercent   float64 `json:"waste_percent"`
	YieldPerKg     float64 `json:"yield_per_kg"`
	ExpectedOutput int     `json:"expected_output"`
	OutputUnit     string  `json:"output_unit"`
}

// Usage summary keys, shared by DailyAvg and the screw type mapping.
const (
	UsageSaddles      = "saddles"
	UsageSaddleScrews = "saddle_screws"
	UsageTrimScrews   = "trim_screws"
	UsageMeshScrews   = "mesh_screws"
	UsageTrims        = "trims"
	UsageOrders       = "orders"
)

// MeshDemand is metres of mesh that left in shipped orders.
type MeshDemand struct {
	MeshType string  `json:"mesh_type,omitempty"`
	WidthMM  int     `json:"width_mm"`
	LengthM  float64 `json:"length_m"`
	Colour   string  `json:"colour,omitempty"`
}

// UsageSummary aggregates component consumption from shipped orders over a
// trailing period.
type UsageSummary struct {
	Mesh         []MeshDemand       `json:"mesh"`
	Saddles      int                `json:"saddles"`
	SaddleScrews int                `json:"saddle_screws"`
	TrimScrews   int                `json:"trim_screws"`
	MeshScrews   int                `json:"mesh_screws"`
	Trims        int                `json:"trims"`
	OrderCount   int                `json:"order_count"`
	PeriodDays   int                `json:"period_days"`
	DailyAvg     map[string]float64 `json:"daily_avg"`
	FetchedAt    time.Time          `json:"fetched_at"`
}

// ZeroUsageSummary is what consumers see when order data is unavailable.
func ZeroUsageSummary(days int) UsageSummary {
	return UsageSummary{
		Mesh:       []MeshDemand{},
		PeriodDays: days,
		DailyAvg: map[string]float64{
			UsageSaddles:      0,
			UsageSaddleScrews: 0,
			UsageTrimScrews:   0,
			UsageMeshScrews:   0,
			UsageTrims:        0,
			UsageOrders:       0,
		},
	}
}

// Daily returns the daily average for a key, zero when absent.
func (u UsageSummary) Daily(key string) float64 {
	return u.DailyAvg[key]
}

type SyncStatus struct {
	LastSynced  *time.Time `json:"last_synced"`
	TotalOrders int        `json:"total_orders"`
	DaysFetched int        `json:"days_fetched"`
}
