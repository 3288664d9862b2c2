package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evelest/storefront/internal/domain/catalog"
)

const (
	productColumns = `id, category_id, title, description, price, quantity, seller_id`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY id`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (category_id, title, description, price, quantity, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	updateProductSQL = `UPDATE products
		SET category_id = $2, title = $3, description = $4, price = $5, quantity = $6
		WHERE id = $1`

	detachProductPromotionsSQL = `DELETE FROM promotion_items WHERE product_id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listCategoriesSQL = `SELECT id, name FROM categories ORDER BY name`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns all products ordered by ID.
func (r *CatalogRepository) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// Search returns products filtered by category and/or a case-insensitive
// title substring.
func (r *CatalogRepository) Search(ctx context.Context, filter catalog.SearchFilter) ([]catalog.Product, error) {
	var (
		conds []string
		args  []any
	)
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}

	sql := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	sql += " ORDER BY id"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("searching products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product and returns its generated ID.
func (r *CatalogRepository) Create(ctx context.Context, p *catalog.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.CategoryID, p.Title, p.Description, p.Price, p.Quantity, p.SellerID,
	).Scan(&id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, catalog.ErrCategoryNotFound
		}
		return 0, fmt.Errorf("creating product: %w", err)
	}
	return id, nil
}

// Update rewrites a product's editable attributes. Seller ownership does not
// change on update.
func (r *CatalogRepository) Update(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.CategoryID, p.Title, p.Description, p.Price, p.Quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrCategoryNotFound
		}
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// Delete removes a product along with its promotion attachments. Products
// that already appear in the sales ledger cannot be deleted; the ledger
// keeps its history.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(ctx, detachProductPromotionsSQL, id); err != nil {
		return fmt.Errorf("detaching product %d from promotions: %w", id, err)
	}

	tag, err := tx.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return catalog.ErrInUse
		}
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing product delete: %w", err)
	}
	return nil
}

// Categories returns all categories ordered by name.
func (r *CatalogRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Title, &p.Description,
		&p.Price, &p.Quantity, &p.SellerID,
	)
	return p, err
}

// isForeignKeyViolation reports whether err is a PostgreSQL foreign key
// constraint violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
