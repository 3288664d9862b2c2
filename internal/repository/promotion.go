package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evelest/storefront/internal/domain/catalog"
	"github.com/evelest/storefront/internal/domain/promo"
)

const (
	createPromotionSQL = `INSERT INTO promotions (name, discount_percent, valid_from, valid_to)
		VALUES ($1, $2, $3, $4) RETURNING id`

	assignProductSQL = `INSERT INTO promotion_items (promotion_id, product_id)
		VALUES ($1, $2) ON CONFLICT (promotion_id, product_id) DO NOTHING`

	activePromotionsSQL = `SELECT pr.id, pr.name, pr.discount_percent, pr.valid_from, pr.valid_to
		FROM promotion_items pi
		JOIN promotions pr ON pr.id = pi.promotion_id
		WHERE pi.product_id = $1 AND pr.valid_from <= $2 AND pr.valid_to >= $2
		ORDER BY pr.id`
)

var _ promo.Repository = (*PromotionRepository)(nil)

// PromotionRepository implements promo.Repository backed by PostgreSQL.
type PromotionRepository struct {
	pool *pgxpool.Pool
}

// NewPromotionRepository returns a PromotionRepository that uses the given pool.
func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// Create inserts a new promotion after validating its invariants and returns
// the generated ID.
func (r *PromotionRepository) Create(ctx context.Context, p *promo.Promotion) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := r.pool.QueryRow(ctx, createPromotionSQL,
		p.Name, p.DiscountPercent, p.ValidFrom, p.ValidTo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("creating promotion: %w", err)
	}
	return id, nil
}

// AssignProduct links a product to a promotion. Assigning the same pair
// twice is a no-op.
func (r *PromotionRepository) AssignProduct(ctx context.Context, promotionID, productID int64) error {
	_, err := r.pool.Exec(ctx, assignProductSQL, promotionID, productID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// The violated constraint tells us which side of the pair is missing.
			if strings.Contains(pgErr.ConstraintName, "product_id") {
				return catalog.ErrNotFound
			}
			return promo.ErrNotFound
		}
		return fmt.Errorf("assigning product %d to promotion %d: %w", productID, promotionID, err)
	}
	return nil
}

// ActiveFor returns the promotions assigned to the product whose validity
// window covers at, ordered by promotion ID.
func (r *PromotionRepository) ActiveFor(ctx context.Context, productID int64, at time.Time) ([]promo.Promotion, error) {
	rows, err := r.pool.Query(ctx, activePromotionsSQL, productID, at)
	if err != nil {
		return nil, fmt.Errorf("listing active promotions for product %d: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanPromotion)
}

func scanPromotion(row pgx.CollectableRow) (promo.Promotion, error) {
	var p promo.Promotion
	err := row.Scan(&p.ID, &p.Name, &p.DiscountPercent, &p.ValidFrom, &p.ValidTo)
	return p, err
}
