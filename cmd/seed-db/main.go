// Command seed-db seeds a demo store with payment settings, a small product
// catalog, and discount codes. Intended for local development and demos.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alibolt/nuvi-checkout/internal/repository"
)

const (
	upsertStoreSQL = `INSERT INTO stores (id, subdomain, name, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET subdomain = $2, name = $3, currency = $4`

	upsertPaymentSettingSQL = `INSERT INTO payment_settings (store_id, provider, enabled,
		secret_key, publishable_key, commission_percent, fixed_fee,
		bank_name, account_name, account_number, instructions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (store_id, provider) DO UPDATE SET enabled = $3,
			secret_key = $4, publishable_key = $5, commission_percent = $6, fixed_fee = $7,
			bank_name = $8, account_name = $9, account_number = $10, instructions = $11`

	upsertProductSQL = `INSERT INTO products (id, store_id, title, description, images)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET title = $3, description = $4, images = $5`

	upsertVariantSQL = `INSERT INTO variants (id, product_id, title, price, stock, track_stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET title = $3, price = $4, stock = $5, track_stock = $6`

	upsertDiscountSQL = `INSERT INTO discounts (id, store_id, code, discount_type, value,
		min_order_amount, usage_limit, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (store_id, UPPER(code)) DO UPDATE SET discount_type = $4,
			value = $5, min_order_amount = $6, usage_limit = $7, active = $8`
)

func main() {
	var (
		databaseURL     string
		subdomain       string
		stripeSecretKey string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&subdomain, "subdomain", "demo", "subdomain of the seeded store")
	flag.StringVar(&stripeSecretKey, "stripe-secret-key", "", "merchant Stripe secret key for the demo store (or NUVI_SEED_STRIPE_SECRET_KEY env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if stripeSecretKey == "" {
		stripeSecretKey = os.Getenv("NUVI_SEED_STRIPE_SECRET_KEY")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, subdomain, stripeSecretKey); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, subdomain, stripeSecretKey string) error {
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

	storeID := "store_" + subdomain

	if err := seedStore(ctx, pool, storeID, subdomain, stripeSecretKey); err != nil {
		return errors.Wrap(err, "seed store")
	}
	if err := seedCatalog(ctx, pool, storeID); err != nil {
		return errors.Wrap(err, "seed catalog")
	}
	if err := seedDiscounts(ctx, pool, storeID); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

func seedStore(ctx context.Context, pool *pgxpool.Pool, storeID, subdomain, stripeSecretKey string) error {
	slog.Info("upserting store", slog.String("subdomain", subdomain))

	_, err := pool.Exec(ctx, upsertStoreSQL, storeID, subdomain, "Demo Store", "USD")
	if err != nil {
		return errors.Wrap(err, "upsert store")
	}

	// provider rows: store_id, provider, enabled, secret_key, publishable_key,
	// commission_percent, fixed_fee, bank_name, account_name, account_number, instructions
	settings := [][]any{
		{storeID, "stripe", stripeSecretKey != "", stripeSecretKey, "", nil, nil, "", "", "", ""},
		{storeID, "nuvi", true, "", "", nil, nil, "", "", "", ""},
		{storeID, "manual", true, "", "", nil, nil,
			"Demo Bank", "Demo Store Ltd", "DE00 0000 0000 0000 0000 00",
			"Include your order number in the transfer reference."},
	}
	for _, s := range settings {
		if _, err := pool.Exec(ctx, upsertPaymentSettingSQL, s...); err != nil {
			return errors.Wrapf(err, "upsert payment setting %s", s[1])
		}
		slog.Info("upserted payment setting", slog.String("provider", s[1].(string)))
	}

	return nil
}

type seedProduct struct {
	id          string
	title       string
	description string
	images      []string
	variants    []seedVariant
}

type seedVariant struct {
	id         string
	title      string
	price      string
	stock      int
	trackStock bool
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, storeID string) error {
	products := []seedProduct{
		{
			id:          "prod_tee",
			title:       "Organic Cotton Tee",
			description: "Heavyweight organic cotton t-shirt.",
			images:      []string{"https://cdn.nuvi.dev/demo/tee.jpg"},
			variants: []seedVariant{
				{id: "var_tee_s", title: "S", price: "25.00", stock: 12, trackStock: true},
				{id: "var_tee_m", title: "M", price: "25.00", stock: 20, trackStock: true},
				{id: "var_tee_l", title: "L", price: "25.00", stock: 0, trackStock: true},
			},
		},
		{
			id:          "prod_mug",
			title:       "Stoneware Mug",
			description: "Hand-glazed 350ml stoneware mug.",
			images:      []string{"https://cdn.nuvi.dev/demo/mug.jpg"},
			variants: []seedVariant{
				{id: "var_mug", title: "", price: "12.50", stock: 0, trackStock: false},
			},
		},
		{
			id:          "prod_tote",
			title:       "Canvas Tote",
			description: "Natural canvas tote bag.",
			images:      []string{"https://cdn.nuvi.dev/demo/tote.jpg"},
			variants: []seedVariant{
				{id: "var_tote", title: "", price: "18.00", stock: 35, trackStock: true},
			},
		},
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, upsertProductSQL, p.id, storeID, p.title, p.description, p.images); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.id)
		}
		for _, v := range p.variants {
			if _, err := pool.Exec(ctx, upsertVariantSQL, v.id, p.id, v.title, v.price, v.stock, v.trackStock); err != nil {
				return errors.Wrapf(err, "upsert variant %s", v.id)
			}
		}
		slog.Info("upserted product", slog.String("id", p.id), slog.String("title", p.title))
	}

	return nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, storeID string) error {
	// id, code, type, value, min_order_amount, usage_limit, active
	discounts := [][]any{
		{"disc_save10", "SAVE10", "percentage", "10", "0", 0, true},
		{"disc_welcome5", "WELCOME5", "fixed", "5.00", "20.00", 0, true},
		{"disc_vip", "VIP25", "percentage", "25", "100.00", 50, true},
	}

	slog.Info("upserting discounts", slog.Int("count", len(discounts)))

	for _, d := range discounts {
		args := append([]any{d[0], storeID}, d[1:]...)
		if _, err := pool.Exec(ctx, upsertDiscountSQL, args...); err != nil {
			return errors.Wrapf(err, "upsert discount %s", d[1])
		}
		slog.Info("upserted discount", slog.String("code", d[1].(string)))
	}

	return nil
}
