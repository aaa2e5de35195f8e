package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alibolt/nuvi-checkout/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, store_id, number, email, name, phone,
		status, payment_status, currency,
		subtotal, discount, tax, shipping, total, discount_code,
		shipping_address, billing_address, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	createOrderItemSQL = `INSERT INTO order_items (order_id, position, product_id, variant_id,
		title, variant_title, price, quantity, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order and its line items in a single transaction.
// Address snapshots are stored as JSONB. A collision on the per-store order
// number surfaces order.ErrDuplicateNumber so the caller can regenerate.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	shippingJSON, err := json.Marshal(o.ShippingAddr)
	if err != nil {
		return fmt.Errorf("marshaling shipping address: %w", err)
	}
	billingJSON, err := json.Marshal(o.BillingAddr)
	if err != nil {
		return fmt.Errorf("marshaling billing address: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.StoreID, o.Number, o.Email, o.Name, o.Phone,
		o.Status, o.PaymentStatus, o.Currency,
		o.Subtotal, o.Discount, o.Tax, o.Shipping, o.Total, o.DiscountCode,
		shippingJSON, billingJSON, o.Note,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "orders_store_number_key" {
			return order.ErrDuplicateNumber
		}
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, createOrderItemSQL,
			o.ID, item.Position, item.ProductID, item.VariantID,
			item.Title, item.VariantTitle, item.Price, item.Quantity, item.Total,
		)
		if err != nil {
			return fmt.Errorf("creating order item %d for order %q: %w", item.Position, o.Number, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.Number, err)
	}
	return nil
}
