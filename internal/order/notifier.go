package order

import "context"

// Notifier delivers a customer notification for an order that has just
// entered status. Callers invoke it once per applied change.
type Notifier interface {
	Notify(ctx context.Context, o *Order, status Status) error
}
