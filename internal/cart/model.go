package cart

import (
	"time"

	"storefront-be/internal/pricing"
)

// ItemKey identifies a cart line. Adding an item with an existing key
// increments its quantity instead of adding a new line.
type ItemKey struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, Color: i.Color, Size: i.Size}
}

func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * int64(i.Quantity)
}

// CartState is the explicit cart value owned by one client session. It is
// loaded from and saved to a Repository; nothing else holds cart state.
type CartState struct {
	SessionID    string     `json:"session_id"`
	Items        []CartItem `json:"items"`
	DiscountCode string     `json:"discount_code,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func NewCartState(sessionID string) *CartState {
	return &CartState{SessionID: sessionID, Items: []CartItem{}}
}

func (c *CartState) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *CartState) indexOf(key ItemKey) int {
	for i, item := range c.Items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Add merges the item into the cart by key.
func (c *CartState) Add(item CartItem) error {
	if item.ProductID == "" || item.UnitPrice < 0 || item.UnitPrice > pricing.MaxUnitPrice {
		return ErrInvalidItem
	}
	if item.Quantity < 1 || item.Quantity > pricing.MaxLineQuantity {
		return ErrInvalidQuantity
	}

	if i := c.indexOf(item.Key()); i >= 0 {
		next := c.Items[i].Quantity + item.Quantity
		if next > pricing.MaxLineQuantity {
			return ErrInvalidQuantity
		}
		c.Items[i].Quantity = next
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// SetQuantity replaces the quantity of a line. Zero removes the line.
func (c *CartState) SetQuantity(key ItemKey, quantity int) error {
	if quantity < 0 || quantity > pricing.MaxLineQuantity {
		return ErrInvalidQuantity
	}
	i := c.indexOf(key)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity == 0 {
		c.removeAt(i)
		return nil
	}
	c.Items[i].Quantity = quantity
	return nil
}

// AdjustQuantity applies a delta. A result below 1 removes the line.
func (c *CartState) AdjustQuantity(key ItemKey, delta int) error {
	i := c.indexOf(key)
	if i < 0 {
		return ErrItemNotFound
	}
	next := c.Items[i].Quantity + delta
	if next < 1 {
		c.removeAt(i)
		return nil
	}
	if next > pricing.MaxLineQuantity {
		return ErrInvalidQuantity
	}
	c.Items[i].Quantity = next
	return nil
}

func (c *CartState) Remove(key ItemKey) error {
	i := c.indexOf(key)
	if i < 0 {
		return ErrItemNotFound
	}
	c.removeAt(i)
	return nil
}

func (c *CartState) removeAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Clear drops every line and any applied code.
func (c *CartState) Clear() {
	c.Items = []CartItem{}
	c.DiscountCode = ""
}

// ApplyDiscount replaces any previously applied code.
func (c *CartState) ApplyDiscount(code string) {
	c.DiscountCode = pricing.NormalizeCode(code)
}

func (c *CartState) RemoveDiscount() {
	c.DiscountCode = ""
}

func (c *CartState) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, pricing.Line{UnitPrice: item.UnitPrice, Quantity: item.Quantity})
	}
	return lines
}

func (c *CartState) Subtotal() int64 {
	return pricing.ComputeSubtotal(c.Lines())
}
