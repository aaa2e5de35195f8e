package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a discount code against an order subtotal and returns
// the computed discount. At most one discount applies per checkout.
type Validator interface {
	Validate(ctx context.Context, storeID, code string, subtotal decimal.Decimal) (*Applied, error)
}

// RepoValidator implements Validator by looking up rules from a Repository
// and applying them via Apply. Successful validation increments the rule's
// usage counter so usage caps actually bind.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Validate looks up the rule for the given store and code, checks the active
// flag, validity window, minimum order amount, and usage cap, then computes
// the discount amount.
func (v *RepoValidator) Validate(ctx context.Context, storeID, code string, subtotal decimal.Decimal) (*Applied, error) {
	rule, err := v.repo.FindByCode(ctx, storeID, code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return nil, ErrInvalidCode
		}
		return nil, errors.Wrap(err, "lookup discount")
	}

	if !rule.Active {
		return nil, ErrInvalidCode
	}

	now := v.now()
	if rule.StartsAt != nil && now.Before(*rule.StartsAt) {
		return nil, ErrExpired
	}
	if rule.EndsAt != nil && now.After(*rule.EndsAt) {
		return nil, ErrExpired
	}

	if rule.MinOrderAmount.IsPositive() && subtotal.LessThan(rule.MinOrderAmount) {
		return nil, ErrMinimumNotMet
	}

	if rule.UsageLimit > 0 && rule.UsageCount >= rule.UsageLimit {
		return nil, ErrUsageLimitReached
	}

	amount, err := Apply(rule, subtotal)
	if err != nil {
		return nil, err
	}

	if err := v.repo.IncrementUsage(ctx, storeID, rule.Code); err != nil {
		return nil, errors.Wrap(err, "increment discount usage")
	}

	return &Applied{
		Code:   rule.Code,
		Type:   rule.Type,
		Amount: amount,
	}, nil
}
