package payment

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrGatewayUnavailable   = errors.New("payment gateway unavailable")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUnsupportedEventType = errors.New("unsupported webhook event")
)
