package checkout

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/alibolt/nuvi-checkout/internal/domain/store"
	"github.com/alibolt/nuvi-checkout/internal/payment"
)

// SessionStatus is the companion read path: given a session identifier and an
// optional payment-method hint, it determines which provider owns the session
// (platform-connected vs merchant-owned) and queries it for the current,
// normalized status. When the hint is absent, ownership is inferred from
// which payment methods the store has enabled, platform first.
func (s *Service) SessionStatus(ctx context.Context, subdomain, sessionID string, hint Method) (*payment.Session, error) {
	st, err := s.stores.BySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	gw, err := s.sessionOwner(st.Payments, hint)
	if err != nil {
		return nil, err
	}

	sess, err := gw.GetSession(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "retrieve session")
	}
	return sess, nil
}

func (s *Service) sessionOwner(p store.PaymentSettings, hint Method) (payment.Gateway, error) {
	nuviEnabled := p.Nuvi != nil && p.Nuvi.Enabled
	stripeEnabled := p.Stripe != nil && p.Stripe.Enabled

	switch {
	case hint == MethodNuvi, hint == "" && nuviEnabled:
		if s.platform == nil {
			return nil, ErrPaymentNotConfigured
		}
		return s.platform, nil
	case hint == MethodStripe, hint == "" && stripeEnabled:
		if p.Stripe == nil || p.Stripe.SecretKey == "" {
			return nil, ErrPaymentNotConfigured
		}
		return s.merchant(p.Stripe.SecretKey), nil
	default:
		return nil, ErrPaymentNotConfigured
	}
}
