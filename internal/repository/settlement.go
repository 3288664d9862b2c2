package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/checkout"
	"github.com/evelest/storefront/internal/domain/promo"
	"github.com/evelest/storefront/internal/domain/sales"
)

const (
	lockProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	insertSaleSQL = `INSERT INTO sales (product_id, buyer_id, sale_price, sold_quantity, applied_promotion_id, sale_date)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	decrementStockSQL = `UPDATE products SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2`
)

var _ checkout.Store = (*SettlementStore)(nil)

// SettlementStore runs checkout settlements inside a single PostgreSQL
// transaction. Row locks taken by ProductsForUpdate serialize concurrent
// checkouts that touch the same products, so a validated quantity cannot be
// oversold before the decrement commits.
type SettlementStore struct {
	pool *pgxpool.Pool
}

// NewSettlementStore returns a SettlementStore that uses the given pool.
func NewSettlementStore(pool *pgxpool.Pool) *SettlementStore {
	return &SettlementStore{pool: pool}
}

// Settle runs fn inside one transaction. Any error from fn rolls everything
// back; commit errors are surfaced to the caller with no partial effect.
func (s *SettlementStore) Settle(ctx context.Context, fn func(tx checkout.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning settlement transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&settlementTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing settlement: %w", err)
	}
	return nil
}

// settlementTx implements checkout.Tx over one open pgx transaction.
type settlementTx struct {
	tx pgx.Tx
}

var _ checkout.Tx = (*settlementTx)(nil)

// ProductsForUpdate locks the given product rows and returns them keyed by
// ID. The caller passes IDs in ascending order; the query locks in the same
// order so concurrent settlements acquire locks consistently.
func (t *settlementTx) ProductsForUpdate(ctx context.Context, ids []int64) (map[int64]catalog.Product, error) {
	rows, err := t.tx.Query(ctx, lockProductsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}

	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("scanning locked products: %w", err)
	}

	byID := make(map[int64]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// ActivePromotions returns the promotions covering the product at the given
// instant, read inside this transaction.
func (t *settlementTx) ActivePromotions(ctx context.Context, productID int64, at time.Time) ([]promo.Promotion, error) {
	rows, err := t.tx.Query(ctx, activePromotionsSQL, productID, at)
	if err != nil {
		return nil, fmt.Errorf("listing active promotions for product %d: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanPromotion)
}

// InsertSale appends a sale row and returns its generated ID.
func (t *settlementTx) InsertSale(ctx context.Context, s *sales.Sale) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, insertSaleSQL,
		s.ProductID, s.BuyerID, s.SalePrice, s.SoldQuantity, s.AppliedPromotionID, s.SaleDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting sale for product %d: %w", s.ProductID, err)
	}
	return id, nil
}

// DecrementStock reduces the product's quantity. The WHERE guard backs up
// the validation already done under the row lock; zero rows affected means
// the invariant was about to be violated and the settlement must abort.
func (t *settlementTx) DecrementStock(ctx context.Context, productID int64, by int) error {
	tag, err := t.tx.Exec(ctx, decrementStockSQL, productID, by)
	if err != nil {
		return fmt.Errorf("decrementing stock for product %d: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.Errorf("stock for product %d changed under lock, aborting settlement", productID)
	}
	return nil
}
