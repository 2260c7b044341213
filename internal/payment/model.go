package payment

import (
	"encoding/json"
	"time"

	"storefront-be/internal/pricing"
)

const ProviderPaystack = "PAYSTACK"

// TransactionStatus is the provider-reported state of a single charge.
type TransactionStatus string

const (
	TransactionSuccess    TransactionStatus = "success"
	TransactionFailed     TransactionStatus = "failed"
	TransactionAbandoned  TransactionStatus = "abandoned"
	TransactionReversed   TransactionStatus = "reversed"
	TransactionPending    TransactionStatus = "pending"
	TransactionOngoing    TransactionStatus = "ongoing"
	TransactionProcessing TransactionStatus = "processing"
	TransactionQueued     TransactionStatus = "queued"
)

// Outcome collapses provider statuses into what the order cares about.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomePending   Outcome = "pending"
)

func (s TransactionStatus) Outcome() Outcome {
	switch s {
	case TransactionSuccess:
		return OutcomeSucceeded
	case TransactionFailed, TransactionAbandoned, TransactionReversed:
		return OutcomeFailed
	default:
		return OutcomePending
	}
}

type InitializeRequest struct {
	Reference   string
	Email       string
	Amount      int64
	Currency    pricing.Currency
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Verification is the provider's view of a transaction. Amount is in the
// currency's internal minor units, not provider subunits.
type Verification struct {
	Reference       string
	Status          TransactionStatus
	Amount          int64
	Currency        pricing.Currency
	PaidAt          *time.Time
	GatewayResponse string
}

// Webhook is one stored delivery from the provider.
type Webhook struct {
	ID             int64
	Provider       string
	EventID        string
	EventType      string
	Reference      string
	SignatureValid bool
	Payload        json.RawMessage
	Attempts       int
	ProcessedAt    *time.Time
	FailedReason   *string
	CreatedAt      time.Time
}

// paystackEnvelope wraps every Paystack API response.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackTransaction struct {
	ID              int64      `json:"id"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	PaidAt          *time.Time `json:"paid_at"`
	GatewayResponse string     `json:"gateway_response"`
}

// PaystackEvent is the webhook body.
type PaystackEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
