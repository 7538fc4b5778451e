package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInsufficientMaterial = errors.New("insufficient material")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrInvalidCut           = errors.New("invalid cut")
	ErrInvalidStatus        = errors.New("invalid status transition")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrInvalidInput         = errors.New("invalid input")
)
