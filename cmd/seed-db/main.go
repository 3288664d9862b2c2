// Command seed-db loads a JSON seed file (optionally gzip-compressed) into
// the storefront database: categories, sellers, buyers, products, and
// promotions with their product assignments.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/evelest/storefront/internal/repository"
)

const insertWorkers = 8

type seedFile struct {
	Categories []categoryJSON  `json:"categories"`
	Sellers    []personJSON    `json:"sellers"`
	Buyers     []personJSON    `json:"buyers"`
	Products   []productJSON   `json:"products"`
	Promotions []promotionJSON `json:"promotions"`
}

type categoryJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type personJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type productJSON struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"categoryId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	SellerID    int64           `json:"sellerId"`
}

type promotionJSON struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	DiscountPercent int       `json:"discountPercent"`
	ValidFrom       time.Time `json:"validFrom"`
	ValidTo         time.Time `json:"validTo"`
	ProductIDs      []int64   `json:"productIds"`
}

func main() {
	var (
		databaseURL string
		seedPath    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/storefront.json", "path to seed JSON file (.json or .json.gz)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seed, err := readSeed(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}

	if err := seedTaxonomy(ctx, pool, seed); err != nil {
		return err
	}
	if err := seedProducts(ctx, pool, seed.Products); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromotions(ctx, pool, seed.Promotions); err != nil {
		return errors.Wrap(err, "seed promotions")
	}

	return nil
}

func readSeed(path string) (*seedFile, error) {
	slog.Info("reading seed file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}

	var seed seedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	return &seed, nil
}

const (
	upsertCategorySQL = `INSERT INTO categories (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	upsertSellerSQL = `INSERT INTO sellers (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	upsertUserSQL = `INSERT INTO users (id, name) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`
	upsertProductSQL = `INSERT INTO products (id, category_id, title, description, price, quantity, seller_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			quantity = EXCLUDED.quantity,
			seller_id = EXCLUDED.seller_id`
	upsertPromotionSQL = `INSERT INTO promotions (id, name, discount_percent, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			discount_percent = EXCLUDED.discount_percent,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to`
	assignPromotionSQL = `INSERT INTO promotion_items (promotion_id, product_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`
	bumpSequencesSQL = `SELECT
		setval(pg_get_serial_sequence('categories', 'id'), (SELECT COALESCE(MAX(id), 1) FROM categories)),
		setval(pg_get_serial_sequence('sellers', 'id'), (SELECT COALESCE(MAX(id), 1) FROM sellers)),
		setval(pg_get_serial_sequence('users', 'id'), (SELECT COALESCE(MAX(id), 1) FROM users)),
		setval(pg_get_serial_sequence('products', 'id'), (SELECT COALESCE(MAX(id), 1) FROM products)),
		setval(pg_get_serial_sequence('promotions', 'id'), (SELECT COALESCE(MAX(id), 1) FROM promotions))`
)

func seedTaxonomy(ctx context.Context, pool *pgxpool.Pool, seed *seedFile) error {
	slog.Info("upserting categories", slog.Int("count", len(seed.Categories)))
	for _, c := range seed.Categories {
		if _, err := pool.Exec(ctx, upsertCategorySQL, c.ID, c.Name); err != nil {
			return errors.Wrapf(err, "upsert category %d", c.ID)
		}
	}

	slog.Info("upserting sellers", slog.Int("count", len(seed.Sellers)))
	for _, s := range seed.Sellers {
		if _, err := pool.Exec(ctx, upsertSellerSQL, s.ID, s.Name); err != nil {
			return errors.Wrapf(err, "upsert seller %d", s.ID)
		}
	}

	slog.Info("upserting buyers", slog.Int("count", len(seed.Buyers)))
	for _, b := range seed.Buyers {
		if _, err := pool.Exec(ctx, upsertUserSQL, b.ID, b.Name); err != nil {
			return errors.Wrapf(err, "upsert buyer %d", b.ID)
		}
	}

	return nil
}

// seedProducts upserts products concurrently; the rows are independent so a
// small worker pool keeps large seed files fast.
func seedProducts(ctx context.Context, pool *pgxpool.Pool, products []productJSON) error {
	slog.Info("upserting products", slog.Int("count", len(products)))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(insertWorkers)

	for _, p := range products {
		g.Go(func() error {
			if _, err := pool.Exec(ctx, upsertProductSQL,
				p.ID, p.CategoryID, p.Title, p.Description, p.Price, p.Quantity, p.SellerID,
			); err != nil {
				return errors.Wrapf(err, "upsert product %d", p.ID)
			}
			return nil
		})
	}

	return g.Wait()
}

func seedPromotions(ctx context.Context, pool *pgxpool.Pool, promotions []promotionJSON) error {
	slog.Info("upserting promotions", slog.Int("count", len(promotions)))

	for _, p := range promotions {
		if _, err := pool.Exec(ctx, upsertPromotionSQL,
			p.ID, p.Name, p.DiscountPercent, p.ValidFrom, p.ValidTo,
		); err != nil {
			return errors.Wrapf(err, "upsert promotion %d", p.ID)
		}
		for _, productID := range p.ProductIDs {
			if _, err := pool.Exec(ctx, assignPromotionSQL, p.ID, productID); err != nil {
				return errors.Wrapf(err, "assign promotion %d to product %d", p.ID, productID)
			}
		}
	}

	// Explicit seed IDs bypass the serial sequences; advance them so later
	// inserts do not collide.
	if _, err := pool.Exec(ctx, bumpSequencesSQL); err != nil {
		return errors.Wrap(err, "advance id sequences")
	}

	return nil
}
