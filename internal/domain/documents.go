package domain

import "time"

// Documents are the persisted shape of each stock collection.

type MeshDocument struct {
	LastUpdated    time.Time       `json:"last_updated"`
	Inventory      []MeshRoll      `json:"inventory"`
	UsageHistory   []UsageEvent    `json:"usage_history"`
	IncomingOrders []IncomingOrder `json:"incoming_orders"`
	CuttingHistory []CutRecord     `json:"cutting_history"`
	Notes          string          `json:"notes,omitempty"`
}

// CountedDocument holds screws, saddles, trims or boxes.
type CountedDocument[T any] struct {
	LastUpdated  time.Time    `json:"last_updated"`
	Inventory    []T          `json:"inventory"`
	UsageHistory []UsageEvent `json:"usage_history"`
	Notes        string       `json:"notes,omitempty"`
}

type CoilDocument struct {
	LastUpdated       time.Time          `json:"last_updated"`
	Inventory         []Coil             `json:"inventory"`
	ProductionHistory []ProductionRecord `json:"production_history"`
	Notes             string             `json:"notes,omitempty"`
}
