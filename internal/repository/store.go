package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/alibolt/nuvi-checkout/internal/domain/store"
)

const (
	getStoreBySubdomainSQL = `SELECT id, subdomain, name, currency
		FROM stores WHERE subdomain = $1`

	getPaymentSettingsSQL = `SELECT provider, enabled, secret_key, publishable_key,
		client_id, client_secret, commission_percent, fixed_fee,
		bank_name, account_name, account_number, instructions
		FROM payment_settings WHERE store_id = $1`
)

var _ store.Repository = (*StoreRepository)(nil)

// StoreRepository implements store.Repository backed by PostgreSQL.
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository returns a StoreRepository that uses the given pool.
func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// BySubdomain resolves a tenant and its payment settings in one call.
// Returns store.ErrNotFound when no store exists for the subdomain.
func (r *StoreRepository) BySubdomain(ctx context.Context, subdomain string) (*store.Store, error) {
	var s store.Store
	err := r.pool.QueryRow(ctx, getStoreBySubdomainSQL, subdomain).Scan(
		&s.ID, &s.Subdomain, &s.Name, &s.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting store %q: %w", subdomain, err)
	}

	rows, err := r.pool.Query(ctx, getPaymentSettingsSQL, s.ID)
	if err != nil {
		return nil, fmt.Errorf("getting payment settings for store %q: %w", subdomain, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scanPaymentSetting(rows, &s.Payments); err != nil {
			return nil, fmt.Errorf("scanning payment settings for store %q: %w", subdomain, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading payment settings for store %q: %w", subdomain, err)
	}

	return &s, nil
}

// scanPaymentSetting maps one provider row into the typed settings union.
// Unknown provider tags are skipped rather than failing the whole store.
func scanPaymentSetting(rows pgx.Rows, p *store.PaymentSettings) error {
	var (
		provider, secretKey, publishableKey     string
		clientID, clientSecret                  string
		bankName, accountName, accountNumber    string
		instructions                            string
		enabled                                 bool
		commissionPercent, fixedFee             *decimal.Decimal
	)
	err := rows.Scan(
		&provider, &enabled, &secretKey, &publishableKey,
		&clientID, &clientSecret, &commissionPercent, &fixedFee,
		&bankName, &accountName, &accountNumber, &instructions,
	)
	if err != nil {
		return err
	}

	switch provider {
	case "stripe":
		p.Stripe = &store.StripeSettings{
			Enabled:        enabled,
			SecretKey:      secretKey,
			PublishableKey: publishableKey,
		}
	case "nuvi":
		p.Nuvi = &store.NuviSettings{
			Enabled:           enabled,
			CommissionPercent: commissionPercent,
			FixedFee:          fixedFee,
		}
	case "paypal":
		p.PayPal = &store.PayPalSettings{
			Enabled:      enabled,
			ClientID:     clientID,
			ClientSecret: clientSecret,
		}
	case "manual":
		p.Manual = &store.ManualSettings{
			Enabled:       enabled,
			BankName:      bankName,
			AccountName:   accountName,
			AccountNumber: accountNumber,
			Instructions:  instructions,
		}
	}
	return nil
}
