// Package pricing computes effective product prices under time-bounded
// promotions. Display and settlement both go through the same arithmetic so
// a price shown to a buyer can never diverge from the price charged by a
// rounding or tie-break mismatch.
package pricing

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/promo"
)

var hundred = decimal.NewFromInt(100)

// Quote is the result of an effective price computation at one instant.
type Quote struct {
	ProductID int64
	BasePrice decimal.Decimal
	UnitPrice decimal.Decimal
	// Promotion is the discount applied, or nil when no promotion covered
	// the reference instant.
	Promotion *promo.Promotion
}

// ProductSource provides product lookups for pricing.
type ProductSource interface {
	GetByID(ctx context.Context, id int64) (*catalog.Product, error)
}

// PromotionSource provides the promotions covering a product at an instant.
type PromotionSource interface {
	ActiveFor(ctx context.Context, productID int64, at time.Time) ([]promo.Promotion, error)
}

// Engine maps (product, instant) to an effective unit price. It is a pure
// read over the catalog and promotion stores.
type Engine struct {
	products   ProductSource
	promotions PromotionSource
}

// NewEngine creates a pricing Engine over the given sources.
func NewEngine(products ProductSource, promotions PromotionSource) *Engine {
	return &Engine{products: products, promotions: promotions}
}

// EffectivePrice returns the unit price of the product at the given instant,
// applying the best covering promotion. Callers must pass an explicit
// instant: display paths use time.Now, settlement passes the one captured
// settlement instant for the whole checkout.
func (e *Engine) EffectivePrice(ctx context.Context, productID int64, at time.Time) (*Quote, error) {
	p, err := e.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", productID)
	}

	active, err := e.promotions.ActiveFor(ctx, productID, at)
	if err != nil {
		return nil, errors.Wrapf(err, "active promotions for product %d", productID)
	}

	best := promo.Best(active)
	q := &Quote{
		ProductID: productID,
		BasePrice: p.Price,
		UnitPrice: p.Price.Round(2),
		Promotion: best,
	}
	if best != nil {
		q.UnitPrice = Discounted(p.Price, best.DiscountPercent)
	}
	return q, nil
}

// Discounted applies a percentage discount to a base price and rounds to the
// currency's two minor-unit places. Every call site that turns a base price
// into a charged price must go through this function.
func Discounted(base decimal.Decimal, percent int) decimal.Decimal {
	return base.Mul(decimal.NewFromInt(int64(100 - percent))).Div(hundred).Round(2)
}
