package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart                 = errors.New("cart is empty")
	ErrInvalidOrder              = errors.New("invalid order")
	ErrOrderNotFound             = errors.New("order not found")
	ErrIllegalStatusTransition   = errors.New("illegal status transition")
	ErrPaymentVerificationFailed = errors.New("payment verification failed")
	ErrPaymentInitFailed         = errors.New("payment initialization failed")
	ErrStatusConflict            = errors.New("order status changed concurrently")
)

// TransitionError names the rejected transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrIllegalStatusTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalStatusTransition
}
