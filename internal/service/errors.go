package service

import (
	"errors"
	"fmt"
)

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrEmptyCart          = errors.New("cart is empty, nothing to checkout")
	ErrInvalidPromoCode   = errors.New("invalid promo code")
	ErrPromoMinimumNotMet = errors.New("promo minimum order amount not met")
)

// ValidationError names the checkout field that rejected the input. It never
// advances the stage and never discards previously collected fields.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
