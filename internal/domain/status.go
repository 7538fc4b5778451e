package domain

import "strings"

// Status is the urgency classification of a forecast entry.
type Status string

const (
	StatusCritical Status = "CRITICAL"
	StatusOrderNow Status = "ORDER_NOW"
	StatusLow      Status = "LOW"
	StatusOK       Status = "OK"
	StatusNoUsage  Status = "NO_USAGE"
	// StatusCoil tags coil-derived potential supply, never on-shelf stock.
	StatusCoil Status = "COIL"
)

var statusRank = map[Status]int{
	StatusCritical: 0,
	StatusOrderNow: 1,
	StatusLow:      2,
	StatusOK:       3,
	StatusNoUsage:  4,
	StatusCoil:     5,
}

// Rank orders statuses from most to least urgent.
func (s Status) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}

// NeedsReorder is true for the statuses the reorder advisor acts on.
func (s Status) NeedsReorder() bool {
	return s == StatusCritical || s == StatusOrderNow || s == StatusLow
}

var statusLabels = map[Status]string{
	StatusCritical: "Critical",
	StatusOrderNow: "Order now",
	StatusLow:      "Low",
	StatusOK:       "OK",
	StatusNoUsage:  "No usage",
	StatusCoil:     "Coil supply",
}

// Label returns a human-readable label for a status.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ParseStatus returns the status for a given name (case-insensitive).
func ParseStatus(name string) (Status, bool) {
	s := Status(strings.ToUpper(strings.TrimSpace(name)))
	_, ok := statusRank[s]
	return s, ok
}

// CoilStatus is derived from the remaining weight of a coil.
type CoilStatus string

const (
	CoilInStock  CoilStatus = "in_stock"
	CoilInUse    CoilStatus = "in_use"
	CoilDepleted CoilStatus = "depleted"
)

// IncomingStatus tracks a supplier order for mesh rolls.
type IncomingStatus string

const (
	IncomingOrdered  IncomingStatus = "ordered"
	IncomingReceived IncomingStatus = "received"
)
