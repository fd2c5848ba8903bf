package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
	"github.com/seu-repo/upark/internal/service/email"
)

// ReceiptAdapter delivers payment receipts. Users with an email address on
// file get the rendered receipt; everyone else gets an SMS summary.
type ReceiptAdapter struct {
	users ports.UserRepository
	email *email.Service
	sms   ports.SMSSender
	log   *zap.Logger
}

// NewReceiptAdapter creates a receipt sender with email and SMS delivery
func NewReceiptAdapter(users ports.UserRepository, emailSvc *email.Service, sms ports.SMSSender, log *zap.Logger) *ReceiptAdapter {
	return &ReceiptAdapter{
		users: users,
		email: emailSvc,
		sms:   sms,
		log:   log,
	}
}

var _ ports.ReceiptSender = (*ReceiptAdapter)(nil)

func (a *ReceiptAdapter) SendReceipt(ctx context.Context, to string, r *domain.Reservation) error {
	user, err := a.users.FindByPhone(ctx, to)
	if err != nil {
		return fmt.Errorf("receipt: load user: %w", err)
	}

	if user != nil && user.Email != "" && a.email != nil {
		if err := a.email.SendReceipt(ctx, user.Email, r); err == nil {
			return nil
		} else {
			a.log.Warn("Email receipt failed, falling back to SMS",
				zap.String("phone", to),
				zap.Error(err),
			)
		}
	}

	if a.sms == nil {
		return fmt.Errorf("receipt: no delivery channel for %s", to)
	}

	message := fmt.Sprintf("uPark receipt: slot %d, %s, paid %.2f (ref %s)",
		r.SlotNumber, r.VehiclePlate, r.TotalAmount, r.PaymentID)
	return a.sms.SendSMS(ctx, to, message)
}
