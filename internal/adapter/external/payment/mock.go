package payment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/ports"
)

// MockGateway approves charges without contacting a provider. A configurable
// fraction of charges is declined so the payment failure path stays
// reachable in deployments without a real acquirer.
type MockGateway struct {
	failureRate float64
	log         *zap.Logger
}

// NewMockGateway creates a mock gateway that declines roughly failureRate of
// charges. The rate is clamped to [0, 1].
func NewMockGateway(failureRate float64, log *zap.Logger) ports.PaymentGateway {
	if failureRate < 0 {
		failureRate = 0
	}
	if failureRate > 1 {
		failureRate = 1
	}
	return &MockGateway{failureRate: failureRate, log: log}
}

func (g *MockGateway) Name() string { return "mock" }

func (g *MockGateway) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	if g.failureRate > 0 && rand.Float64() < g.failureRate {
		g.log.Info("Mock payment declined",
			zap.Float64("amount", amount),
			zap.String("reference", reference),
		)
		return "", fmt.Errorf("mock: charge declined for %s", reference)
	}

	paymentID := fmt.Sprintf("mock_%s", uuid.NewString())
	g.log.Info("Mock payment approved",
		zap.Float64("amount", amount),
		zap.String("reference", reference),
		zap.String("payment_id", paymentID),
	)
	return paymentID, nil
}

func (g *MockGateway) Refund(ctx context.Context, paymentID string) error {
	g.log.Info("Mock payment refunded", zap.String("payment_id", paymentID))
	return nil
}
