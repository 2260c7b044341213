package payment

import (
	"context"
	"database/sql"
	"time"
)

type Repository interface {
	// SaveWebhook records a delivery. duplicate is true only when the same
	// provider event has already been processed; unprocessed redeliveries
	// bump the attempt counter and are handed back for another try.
	SaveWebhook(ctx context.Context, w *Webhook) (webhookID int64, duplicate bool, err error)
	MarkWebhookProcessed(ctx context.Context, webhookID int64) error
	MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *repository) SaveWebhook(ctx context.Context, w *Webhook) (int64, bool, error) {
	const q = `
	INSERT INTO payment_webhooks (
		provider,
		event_id,
		event_type,
		reference,
		signature_valid,
		payload,
		attempts,
		created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7)
	ON CONFLICT (provider, event_id)
	DO UPDATE SET attempts = payment_webhooks.attempts + 1
	RETURNING id, processed_at;
	`

	var (
		id          int64
		processedAt sql.NullTime
	)
	err := r.db.QueryRowContext(
		ctx,
		q,
		w.Provider,
		w.EventID,
		w.EventType,
		w.Reference,
		w.SignatureValid,
		string(w.Payload),
		r.now(),
	).Scan(&id, &processedAt)
	if err != nil {
		return 0, false, err
	}

	w.ID = id
	if processedAt.Valid {
		w.ProcessedAt = &processedAt.Time
		return id, true, nil
	}
	return id, false, nil
}

func (r *repository) MarkWebhookProcessed(ctx context.Context, webhookID int64) error {
	const q = `
	UPDATE payment_webhooks
	SET processed_at = $2, process_error = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, r.now())
	return err
}

func (r *repository) MarkWebhookFailed(ctx context.Context, webhookID int64, reason string) error {
	const q = `
	UPDATE payment_webhooks
	SET process_error = $2
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, webhookID, reason)
	return err
}
