package order

import (
	"time"

	"storefront-be/internal/pricing"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

type Customer struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Item struct {
	ID        int64  `json:"-"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (i Item) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// Order amounts are in the base currency's minor units. ChargeAmount is the
// total converted into ChargeCurrency, which is what the provider bills.
type Order struct {
	ID               uuid.UUID              `json:"id"`
	Items            []Item                 `json:"items"`
	Customer         Customer               `json:"customer"`
	ShippingMethod   pricing.ShippingMethod `json:"shipping_method"`
	DiscountCode     string                 `json:"discount_code,omitempty"`
	Subtotal         int64                  `json:"subtotal"`
	ShippingCost     int64                  `json:"shipping_cost"`
	Discount         int64                  `json:"discount"`
	Total            int64                  `json:"total"`
	Currency         pricing.Currency       `json:"currency"`
	ChargeCurrency   pricing.Currency       `json:"charge_currency"`
	ChargeAmount     int64                  `json:"charge_amount"`
	Status           Status                 `json:"status"`
	PaymentStatus    PaymentStatus          `json:"payment_status"`
	PaymentReference string                 `json:"payment_reference"`
	PaidAt           *time.Time             `json:"paid_at,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func (o *Order) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, pricing.Line{UnitPrice: it.UnitPrice, Quantity: it.Quantity})
	}
	return lines
}

type ListFilter struct {
	Status *Status
	Email  string
	Limit  int
	Offset int
}

// CreateOrderInput is a validated cart snapshot plus checkout selections.
type CreateOrderInput struct {
	Items          []Item
	ShippingMethod pricing.ShippingMethod
	DiscountCode   string
	ChargeCurrency pricing.Currency
	Customer       Customer
}

type CreateOrderResult struct {
	Order            *Order `json:"order"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
	Reference        string `json:"reference"`
}

// Payment event sources.
const (
	SourceVerify  = "verify"
	SourceWebhook = "webhook"
	SourceSystem  = "system"
)

// PaymentEvent is one report of a charge outcome, from either the client
// verify path or the provider webhook.
type PaymentEvent struct {
	Source    string
	Reference string
	Outcome   PaymentOutcome
	Amount    int64
	Currency  pricing.Currency
	PaidAt    *time.Time
}

type PaymentOutcome string

const (
	OutcomeSucceeded PaymentOutcome = "succeeded"
	OutcomeFailed    PaymentOutcome = "failed"
	OutcomePending   PaymentOutcome = "pending"
)

// PaymentResult is the backend's settled view after reconciling an event.
// Changed is true only for the caller that applied the confirmation.
type PaymentResult struct {
	OrderID       uuid.UUID     `json:"order_id"`
	PaymentStatus PaymentStatus `json:"status"`
	OrderStatus   Status        `json:"order_status"`
	// NeedsReview marks money captured for an order that was cancelled
	// before the payment landed; it has to be refunded by hand.
	NeedsReview   bool          `json:"needs_review,omitempty"`
	Changed       bool          `json:"-"`
}

type StatusView struct {
	OrderID       uuid.UUID     `json:"order_id"`
	OrderStatus   Status        `json:"order_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
