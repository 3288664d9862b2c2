package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrCategoryNotFound is returned when a referenced category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// ErrInUse is returned when a product cannot be removed because the sales
// ledger references it.
var ErrInUse = errors.New("product is referenced by the sales ledger")

// Product represents a catalog item offered by a seller. Quantity is the
// stock on hand; settlement is the only writer allowed to decrease it.
type Product struct {
	ID          int64
	CategoryID  int64
	Title       string
	Description string
	Price       decimal.Decimal
	Quantity    int
	SellerID    int64
}

// Category groups products for browsing and filtering.
type Category struct {
	ID   int64
	Name string
}

// SearchFilter narrows product listings. A zero CategoryID means all
// categories; an empty Query matches every title.
type SearchFilter struct {
	CategoryID int64
	Query      string
}

// Repository defines persistence operations for the product catalog.
// Stock decrements happen through the settlement transaction, not here.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Search(ctx context.Context, filter SearchFilter) ([]Product, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]Category, error)
}
