package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alibolt/nuvi-checkout/internal/domain/catalog"
)

const (
	listProductsSQL = `SELECT id, store_id, title, description, images
		FROM products WHERE store_id = $1 ORDER BY id`

	getProductByIDSQL = `SELECT id, store_id, title, description, images
		FROM products WHERE store_id = $1 AND id = $2`

	getVariantsByProductSQL = `SELECT v.id, v.product_id, v.title, v.price, v.stock, v.track_stock,
		p.title, p.description, p.images
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.store_id = $1 AND v.product_id = $2
		ORDER BY v.id`

	// The join enforces tenant isolation: a variant resolves only through a
	// product owned by the requested store.
	getVariantsByIDsSQL = `SELECT v.id, v.product_id, v.title, v.price, v.stock, v.track_stock,
		p.title, p.description, p.images
		FROM variants v
		JOIN products p ON p.id = v.product_id
		WHERE p.store_id = $1 AND v.id = ANY($2)`
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

// ListProducts returns all products of the store ordered by ID.
func (r *CatalogRepository) ListProducts(ctx context.Context, storeID string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanCatalogProduct)
}

// ProductByID returns a single product scoped to the store.
func (r *CatalogRepository) ProductByID(ctx context.Context, storeID, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, storeID, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanCatalogProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// VariantsByProduct returns the variants of one product scoped to the store.
func (r *CatalogRepository) VariantsByProduct(ctx context.Context, storeID, productID string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantsByProductSQL, storeID, productID)
	if err != nil {
		return nil, fmt.Errorf("getting variants of product %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

// VariantsByIDs returns the variants matching any of the given IDs whose
// parent product belongs to the store. Missing or foreign-tenant IDs are
// simply absent from the result.
func (r *CatalogRepository) VariantsByIDs(ctx context.Context, storeID string, ids []string) ([]catalog.Variant, error) {
	rows, err := r.pool.Query(ctx, getVariantsByIDsSQL, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("getting variants by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanVariant)
}

func scanCatalogProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.StoreID, &p.Title, &p.Description, &p.Images)
	return p, err
}

func scanVariant(row pgx.CollectableRow) (catalog.Variant, error) {
	var v catalog.Variant
	err := row.Scan(
		&v.ID, &v.ProductID, &v.Title, &v.Price, &v.Stock, &v.TrackStock,
		&v.ProductTitle, &v.Description, &v.Images,
	)
	return v, err
}
