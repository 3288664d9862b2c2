// Package checkout converts a cart into committed sales and stock
// decrements, atomically per checkout call.
package checkout

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/go-faster/errors"

	"github.com/evelest/storefront/internal/domain/cart"
	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/pricing"
	"github.com/evelest/storefront/internal/domain/promo"
	"github.com/evelest/storefront/internal/domain/sales"
)

// ErrEmptyCart is returned when checkout is invoked on a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// ProductNotFoundError indicates a cart line references a product that no
// longer exists. The checkout attempt cannot be retried as-is.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InsufficientStockError indicates the requested quantity exceeds the stock
// available at settlement time. The caller may adjust the cart and retry.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

// Shortfall returns how many units the request exceeded stock by.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d (short by %d)",
		e.ProductID, e.Requested, e.Available, e.Shortfall())
}

// Tx is the set of storage operations available inside one settlement
// transaction. Product rows returned by ProductsForUpdate stay locked until
// the transaction ends.
type Tx interface {
	// ProductsForUpdate locks and returns the products with the given IDs,
	// keyed by ID. IDs absent from the result do not exist.
	ProductsForUpdate(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
	// ActivePromotions returns the promotions covering the product at the
	// given instant, read within this transaction.
	ActivePromotions(ctx context.Context, productID int64, at time.Time) ([]promo.Promotion, error)
	// InsertSale appends a sale to the ledger and returns its ID.
	InsertSale(ctx context.Context, s *sales.Sale) (int64, error)
	// DecrementStock reduces the product's quantity by the given amount.
	DecrementStock(ctx context.Context, productID int64, by int) error
}

// Store runs a settlement function inside a single transaction. The function
// returning an error aborts the transaction; nothing it did is visible.
type Store interface {
	Settle(ctx context.Context, fn func(tx Tx) error) error
}

// Service is the settlement engine. One Checkout call is one atomic unit:
// all sales and decrements commit together or not at all.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a settlement Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Checkout validates and commits the cart. It captures one settlement
// instant for every pricing and validity decision in the call, re-reads
// stock under row locks, validates every line before any mutation, then
// writes sales and stock decrements in the same transaction. On success the
// cart is cleared and the created sale IDs are returned; on any failure the
// cart and the database are left unchanged.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart) ([]int64, error) {
	lines := c.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	settledAt := s.now().UTC()

	// Requested quantity per product: duplicate lines are additive, and
	// validation must consider their sum.
	requested := make(map[int64]int)
	for _, l := range lines {
		requested[l.ProductID] += l.Quantity
	}
	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	// Lock rows in ascending ID order so concurrent checkouts over
	// overlapping products cannot deadlock.
	slices.Sort(ids)

	var saleIDs []int64
	err := s.store.Settle(ctx, func(tx Tx) error {
		products, err := tx.ProductsForUpdate(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "lock products")
		}

		// Validate every line before touching anything.
		for _, id := range ids {
			p, ok := products[id]
			if !ok {
				return &ProductNotFoundError{ProductID: id}
			}
			if want := requested[id]; want > p.Quantity {
				return &InsufficientStockError{
					ProductID: id,
					Requested: want,
					Available: p.Quantity,
				}
			}
		}

		saleIDs = make([]int64, 0, len(lines))
		for _, l := range lines {
			p := products[l.ProductID]

			active, err := tx.ActivePromotions(ctx, l.ProductID, settledAt)
			if err != nil {
				return errors.Wrapf(err, "active promotions for product %d", l.ProductID)
			}

			sale := &sales.Sale{
				ProductID:    l.ProductID,
				BuyerID:      c.BuyerID(),
				SalePrice:    p.Price.Round(2),
				SoldQuantity: l.Quantity,
				SaleDate:     settledAt,
			}
			if best := promo.Best(active); best != nil {
				sale.SalePrice = pricing.Discounted(p.Price, best.DiscountPercent)
				promoID := best.ID
				sale.AppliedPromotionID = &promoID
			}

			id, err := tx.InsertSale(ctx, sale)
			if err != nil {
				return errors.Wrapf(err, "insert sale for product %d", l.ProductID)
			}
			saleIDs = append(saleIDs, id)
		}

		for _, id := range ids {
			if err := tx.DecrementStock(ctx, id, requested[id]); err != nil {
				return errors.Wrapf(err, "decrement stock for product %d", id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.Clear()
	return saleIDs, nil
}
