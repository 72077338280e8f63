package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity           = errors.New("quantity must be greater than zero")
	ErrInvalidIdentity           = errors.New("cart identity must be exactly one of user or session")
	ErrProductUnavailable        = errors.New("product not found or inactive")
	ErrInsufficientStock         = errors.New("insufficient stock")
	ErrCartItemNotFound          = errors.New("item not found in cart")
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrInvalidCheckout           = errors.New("invalid checkout details")
	ErrOrderNotFound             = errors.New("order not found")
	ErrOrderNumberTaken          = errors.New("order number already taken")
	ErrIllegalTransition         = errors.New("illegal order status transition")
	ErrUnknownStatus             = errors.New("unknown order status")
	ErrAlreadyPaid               = errors.New("order is already paid")
	ErrMalformedCallback         = errors.New("malformed payment callback")
	ErrVerificationUnreachable   = errors.New("payment verification service unreachable")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrImmutableOrder            = errors.New("order totals cannot change after creation")
	ErrImmutableOrderItem        = errors.New("order items cannot change after creation")
)

// InsufficientStockError names the product that could not cover a request.
type InsufficientStockError struct {
	ProductID   uint
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.ProductName, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// TransitionError records a rejected status change.
type TransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }
