package domain

import "errors"

var (
	ErrItemNotFound    = errors.New("item not found in cart")
	ErrMissingName     = errors.New("item name is required")
	ErrInvalidQuantity = errors.New("quantity must be a positive multiple of 0.5")
	ErrInvalidDelta    = errors.New("quantity change must be a non-zero multiple of 0.5")
)
