package ports

import (
	"context"
)

// PaymentGateway charges and refunds reservation fees. Implementations must
// complete or fail within a bounded interval; the lifecycle manager treats
// the outcome synchronously and never retries inside the hot path.
type PaymentGateway interface {
	// Charge attempts to collect the amount. On success it returns the
	// provider's payment id.
	Charge(ctx context.Context, amount float64, reference string) (string, error)
	// Refund returns a previously collected payment.
	Refund(ctx context.Context, paymentID string) error
	// Name identifies the provider.
	Name() string
}
