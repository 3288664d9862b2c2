// Package cart holds the volatile per-buyer purchase accumulation. A cart
// leaves no persistent trace until checkout commits it.
package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/evelest/storefront/internal/domain/pricing"
)

// InvalidQuantityError indicates an attempt to add a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d, got %d", e.ProductID, e.Quantity)
}

// Line is one requested (product, quantity) pair. Duplicate lines for the
// same product are legal and additive.
type Line struct {
	ProductID int64
	Quantity  int
}

// Pricer resolves the effective unit price of a product at an instant.
type Pricer interface {
	EffectivePrice(ctx context.Context, productID int64, at time.Time) (*pricing.Quote, error)
}

// Cart accumulates purchase lines for exactly one buyer. The HTTP layer can
// serve several requests for the same buyer at once, so access to the lines
// is serialized internally.
type Cart struct {
	buyerID int64

	mu    sync.Mutex
	lines []Line
}

// New creates an empty cart for the given buyer.
func New(buyerID int64) *Cart {
	return &Cart{buyerID: buyerID}
}

// BuyerID returns the owning buyer.
func (c *Cart) BuyerID() int64 {
	return c.buyerID
}

// Add appends a line. No stock check happens here: stock is only
// authoritative at checkout, when it is re-read under lock.
func (c *Cart) Add(productID int64, quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{ProductID: productID, Quantity: quantity}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, Line{ProductID: productID, Quantity: quantity})
	return nil
}

// Remove drops every line for the given product.
func (c *Cart) Remove(productID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Total computes the cart total at the given instant. It is derived on every
// call so it always reflects the current promotion state. Pricing runs over
// a snapshot of the lines, outside the cart lock.
func (c *Cart) Total(ctx context.Context, pricer Pricer, at time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, l := range c.Lines() {
		q, err := pricer.EffectivePrice(ctx, l.ProductID, at)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(q.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total.Round(2), nil
}
