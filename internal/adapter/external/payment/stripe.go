package payment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"

	"github.com/seu-repo/upark/internal/ports"
)

type StripeGateway struct {
	currency string
	log      *zap.Logger
}

// NewStripeGateway creates a Stripe-backed payment gateway
func NewStripeGateway(apiKey, currency string, log *zap.Logger) ports.PaymentGateway {
	stripe.Key = apiKey
	if currency == "" {
		currency = "inr"
	}
	return &StripeGateway{
		currency: currency,
		log:      log,
	}
}

func (s *StripeGateway) Name() string { return "stripe" }

// Charge collects the fee in one confirmed payment intent and returns the
// intent ID as the payment reference.
func (s *StripeGateway) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	if amount <= 0 {
		return "", errors.New("invalid amount")
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String(s.currency),
		Confirm:  stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("reference", reference)

	pi, err := paymentintent.New(params)
	if err != nil {
		s.log.Error("Failed to create payment intent",
			zap.String("reference", reference),
			zap.Error(err),
		)
		return "", fmt.Errorf("stripe: create payment intent: %w", err)
	}

	s.log.Info("Payment intent confirmed",
		zap.String("payment_intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
	)
	return pi.ID, nil
}

func (s *StripeGateway) Refund(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return errors.New("payment ID is required")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
	}
	params.Context = ctx

	r, err := refund.New(params)
	if err != nil {
		s.log.Error("Failed to refund payment", zap.String("payment_id", paymentID), zap.Error(err))
		return fmt.Errorf("stripe: refund payment: %w", err)
	}

	s.log.Info("Payment refunded",
		zap.String("refund_id", r.ID),
		zap.String("status", string(r.Status)),
	)
	return nil
}
