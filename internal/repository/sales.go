package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/evelest/storefront/internal/domain/sales"
)

const (
	purchasesByBuyerSQL = `SELECT s.id, s.product_id, s.buyer_id, s.sale_price, s.sold_quantity,
			s.applied_promotion_id, s.sale_date, p.title, COALESCE(pr.name, '')
		FROM sales s
		JOIN products p ON p.id = s.product_id
		LEFT JOIN promotions pr ON pr.id = s.applied_promotion_id
		WHERE s.buyer_id = $1
		ORDER BY s.sale_date DESC, s.id DESC`

	salesBySellerSQL = `SELECT s.id, s.product_id, s.buyer_id, s.sale_price, s.sold_quantity,
			s.applied_promotion_id, s.sale_date, p.title, COALESCE(pr.name, '')
		FROM sales s
		JOIN products p ON p.id = s.product_id
		LEFT JOIN promotions pr ON pr.id = s.applied_promotion_id
		WHERE p.seller_id = $1
		ORDER BY s.sale_date DESC, s.id DESC`

	revenueBySellerSQL = `SELECT COALESCE(SUM(s.sale_price * s.sold_quantity), 0)
		FROM sales s
		JOIN products p ON p.id = s.product_id
		WHERE p.seller_id = $1`
)

var _ sales.Ledger = (*SalesLedger)(nil)

// SalesLedger implements the read side of sales.Ledger backed by PostgreSQL.
// Rows are only ever written by the settlement transaction.
type SalesLedger struct {
	pool *pgxpool.Pool
}

// NewSalesLedger returns a SalesLedger that uses the given pool.
func NewSalesLedger(pool *pgxpool.Pool) *SalesLedger {
	return &SalesLedger{pool: pool}
}

// PurchasesByBuyer returns the buyer's purchase history, newest first.
func (r *SalesLedger) PurchasesByBuyer(ctx context.Context, buyerID int64) ([]sales.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, purchasesByBuyerSQL, buyerID)
	if err != nil {
		return nil, fmt.Errorf("listing purchases for buyer %d: %w", buyerID, err)
	}
	return pgx.CollectRows(rows, scanHistoryEntry)
}

// SalesBySeller returns the sales of the seller's products, newest first.
func (r *SalesLedger) SalesBySeller(ctx context.Context, sellerID int64) ([]sales.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx, salesBySellerSQL, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing sales for seller %d: %w", sellerID, err)
	}
	return pgx.CollectRows(rows, scanHistoryEntry)
}

// RevenueBySeller returns the seller's total revenue across the ledger.
func (r *SalesLedger) RevenueBySeller(ctx context.Context, sellerID int64) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	if err := r.pool.QueryRow(ctx, revenueBySellerSQL, sellerID).Scan(&revenue); err != nil {
		return decimal.Zero, fmt.Errorf("summing revenue for seller %d: %w", sellerID, err)
	}
	return revenue, nil
}

func scanHistoryEntry(row pgx.CollectableRow) (sales.HistoryEntry, error) {
	var e sales.HistoryEntry
	err := row.Scan(
		&e.ID, &e.ProductID, &e.BuyerID, &e.SalePrice, &e.SoldQuantity,
		&e.AppliedPromotionID, &e.SaleDate, &e.ProductTitle, &e.PromotionName,
	)
	return e, err
}
