// Package cart holds the shopping cart: a list of menu item snapshots keyed
// by item id, plus an in-memory registry of carts keyed by cookie token.
package cart

import (
	"slices"

	"github.com/johiruljahid/nsultan/internal/model"
)

// DefaultDeliveryFee is added once per order at checkout.
const DefaultDeliveryFee int64 = 50

// MaxQuantity is the most units of one item a cart or order may hold.
const MaxQuantity = 99

// Cart keeps at most one entry per item id, in insertion order.
type Cart struct {
	items []model.CartItem
}

// Add increments the quantity of an item already in the cart, or appends it
// with quantity 1. The quantity stops at MaxQuantity.
func (c *Cart) Add(item model.FoodItem) {
	if i := c.index(item.ID); i >= 0 {
		c.items[i].Quantity = min(MaxQuantity, c.items[i].Quantity+1)
		return
	}
	c.items = append(c.items, model.CartItem{
		ItemID:   item.ID,
		NameEn:   item.NameEn,
		NameBn:   item.NameBn,
		Price:    item.Price,
		Image:    item.Image,
		Category: item.Category,
		Quantity: 1,
	})
}

// UpdateQuantity applies delta to an item's quantity, keeping it between 1
// and MaxQuantity. It reports whether the item was in the cart.
func (c *Cart) UpdateQuantity(itemID string, delta int) bool {
	i := c.index(itemID)
	if i < 0 {
		return false
	}
	c.items[i].Quantity = clampQuantity(c.items[i].Quantity, delta)
	return true
}

// Quantity returns the units of itemID in the cart, or 0.
func (c *Cart) Quantity(itemID string) int {
	if i := c.index(itemID); i >= 0 {
		return c.items[i].Quantity
	}
	return 0
}

func clampQuantity(q, delta int) int {
	switch {
	case delta > MaxQuantity-q:
		return MaxQuantity
	case delta < 1-q:
		return 1
	}
	return q + delta
}

// Remove drops an item regardless of its quantity.
func (c *Cart) Remove(itemID string) bool {
	i := c.index(itemID)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *Cart) Clear() {
	c.items = nil
}

// Subtotal is Σ price × quantity. The delivery fee is not included.
func (c *Cart) Subtotal() int64 {
	return Subtotal(c.items)
}

// Count is the total number of units in the cart.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Items returns a copy of the cart contents.
func (c *Cart) Items() []model.CartItem {
	return slices.Clone(c.items)
}

func (c *Cart) index(itemID string) int {
	return slices.IndexFunc(c.items, func(it model.CartItem) bool {
		return it.ItemID == itemID
	})
}

// Subtotal sums price × quantity over items.
func Subtotal(items []model.CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}

// Total is the amount charged for items with the given delivery fee.
func Total(items []model.CartItem, deliveryFee int64) int64 {
	return Subtotal(items) + deliveryFee
}

// Summary is the JSON view of a cart.
type Summary struct {
	Items    []model.CartItem `json:"items"`
	Count    int              `json:"count"`
	Subtotal int64            `json:"subtotal"`
	Open     bool             `json:"open"`
}

func (c *Cart) Summary() Summary {
	items := c.Items()
	if items == nil {
		items = []model.CartItem{}
	}
	return Summary{Items: items, Count: c.Count(), Subtotal: c.Subtotal()}
}
