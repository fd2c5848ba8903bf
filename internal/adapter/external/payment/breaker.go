package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

// BreakerGateway wraps a payment gateway with a circuit breaker so a
// misbehaving provider fails fast instead of tying up booking requests.
type BreakerGateway struct {
	inner ports.PaymentGateway
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker decorates a gateway with circuit-breaker protection
func WithBreaker(inner ports.PaymentGateway, log *zap.Logger) ports.PaymentGateway {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Payment circuit breaker state changed",
				zap.String("gateway", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &BreakerGateway{inner: inner, cb: cb}
}

func (g *BreakerGateway) Name() string { return g.inner.Name() }

func (g *BreakerGateway) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Charge(ctx, amount, reference)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", domain.ErrTransientStore("payment provider unavailable", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (g *BreakerGateway) Refund(ctx context.Context, paymentID string) error {
	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.inner.Refund(ctx, paymentID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.ErrTransientStore("payment provider unavailable", err)
	}
	return err
}
