package domain

import "errors"

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout stage")
	ErrMissingReference  = errors.New("payment reference is required")
)
