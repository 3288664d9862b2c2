// Package sales models the append-only ledger of completed sales.
package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Sale is the permanent record of what a buyer paid for one checkout line.
// SalePrice is the unit price actually charged at settlement; it is never
// recomputed afterwards.
type Sale struct {
	ID                 int64
	ProductID          int64
	BuyerID            int64
	SalePrice          decimal.Decimal
	SoldQuantity       int
	AppliedPromotionID *int64
	SaleDate           time.Time
}

// Amount returns the line total, sale price times quantity.
func (s Sale) Amount() decimal.Decimal {
	return s.SalePrice.Mul(decimal.NewFromInt(int64(s.SoldQuantity))).Round(2)
}

// HistoryEntry is a ledger row joined with the names a reader wants to see.
// PromotionName is empty when no promotion was applied.
type HistoryEntry struct {
	Sale
	ProductTitle  string
	PromotionName string
}

// Ledger is the read side of the sales record. Writes happen only inside the
// settlement transaction.
type Ledger interface {
	// PurchasesByBuyer returns the buyer's purchase history, newest first.
	PurchasesByBuyer(ctx context.Context, buyerID int64) ([]HistoryEntry, error)
	// SalesBySeller returns the sales of the seller's products, newest first.
	SalesBySeller(ctx context.Context, sellerID int64) ([]HistoryEntry, error)
	// RevenueBySeller returns the total revenue of the seller's products,
	// SUM(sale_price * sold_quantity) over the ledger.
	RevenueBySeller(ctx context.Context, sellerID int64) (decimal.Decimal, error)
}
