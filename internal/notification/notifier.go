package notification

import (
	"context"

	"storefront-be/internal/logger"
	"storefront-be/internal/order"

	"go.uber.org/zap"
)

type Notifier struct {
	renderer *Renderer
	sender   Sender
}

func NewNotifier(renderer *Renderer, sender Sender) *Notifier {
	return &Notifier{renderer: renderer, sender: sender}
}

func (n *Notifier) Notify(ctx context.Context, o *order.Order, status order.Status) error {
	msg, err := n.renderer.Render(o, status)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("notification sent",
		zap.String("order_id", o.ID.String()),
		zap.String("status", status.String()),
	)
	return nil
}

var _ order.Notifier = (*Notifier)(nil)
