package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alibolt/nuvi-checkout/internal/domain/discount"
)

const (
	getDiscountByCodeSQL = `SELECT code, discount_type, value, min_order_amount,
		starts_at, ends_at, usage_limit, usage_count, active
		FROM discounts WHERE store_id = $1 AND UPPER(code) = UPPER($2)`

	incrementDiscountUsageSQL = `UPDATE discounts SET usage_count = usage_count + 1
		WHERE store_id = $1 AND UPPER(code) = UPPER($2)`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// FindByCode looks up a discount by code (case-insensitive), scoped to the
// store. The active flag is returned as-is; eligibility checks live in the
// validator. Returns discount.ErrInvalidCode when no matching row exists.
func (r *DiscountRepository) FindByCode(ctx context.Context, storeID, code string) (*discount.Rule, error) {
	rows, err := r.pool.Query(ctx, getDiscountByCodeSQL, storeID, code)
	if err != nil {
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanDiscountRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrInvalidCode
		}
		return nil, fmt.Errorf("finding discount by code %q: %w", code, err)
	}
	return &rule, nil
}

// IncrementUsage atomically increments the usage counter for the given code.
func (r *DiscountRepository) IncrementUsage(ctx context.Context, storeID, code string) error {
	_, err := r.pool.Exec(ctx, incrementDiscountUsageSQL, storeID, code)
	if err != nil {
		return fmt.Errorf("incrementing usage for discount %q: %w", code, err)
	}
	return nil
}

func scanDiscountRule(row pgx.CollectableRow) (discount.Rule, error) {
	var (
		rule         discount.Rule
		discountType string
		value        decimal.Decimal
		minOrder     decimal.Decimal
		startsAt     *time.Time
		endsAt       *time.Time
		usageLimit   int32
		usageCount   int32
	)
	err := row.Scan(
		&rule.Code, &discountType, &value, &minOrder,
		&startsAt, &endsAt, &usageLimit, &usageCount, &rule.Active,
	)
	rule.Type = discount.Type(discountType)
	rule.Value = value
	rule.MinOrderAmount = minOrder
	rule.StartsAt = startsAt
	rule.EndsAt = endsAt
	rule.UsageLimit = int(usageLimit)
	rule.UsageCount = int(usageCount)
	return rule, err
}
