package inventory

import "time"

// StockLevel is the on-hand quantity tracked for one product. Paid orders
// decrement it; products without a row are not stock-tracked.
type StockLevel struct {
	ProductID string    `json:"product_id"`
	Stock     int       `json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}
