package mocks

import (
	"context"

	"github.com/seu-repo/upark/internal/domain"
)

// MockReconciler is a mock implementation of Reconciler
type MockReconciler struct {
	ApplyFunc      func(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error)
	ApplyBatchFunc func(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange
	ReserveFunc    func(ctx context.Context, slotNumber int, phone, plate string) (*domain.SlotChange, error)
	SnapshotFunc   func(ctx context.Context) ([]domain.Slot, error)
}

func (m *MockReconciler) Apply(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, delta)
	}
	return nil, nil
}

func (m *MockReconciler) ApplyBatch(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
	if m.ApplyBatchFunc != nil {
		return m.ApplyBatchFunc(ctx, deltas)
	}
	return nil
}

func (m *MockReconciler) Reserve(ctx context.Context, slotNumber int, phone, plate string) (*domain.SlotChange, error) {
	if m.ReserveFunc != nil {
		return m.ReserveFunc(ctx, slotNumber, phone, plate)
	}
	return &domain.SlotChange{SlotNumber: slotNumber, IsReserved: true, ReservedBy: phone, VehiclePlate: plate}, nil
}

func (m *MockReconciler) Snapshot(ctx context.Context) ([]domain.Slot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx)
	}
	return []domain.Slot{}, nil
}

// MockSlotNotifier is a mock implementation of SlotNotifier
type MockSlotNotifier struct {
	SlotChangedFunc func(ctx context.Context, change domain.SlotChange)
	Changes         []domain.SlotChange
}

func (m *MockSlotNotifier) SlotChanged(ctx context.Context, change domain.SlotChange) {
	m.Changes = append(m.Changes, change)
	if m.SlotChangedFunc != nil {
		m.SlotChangedFunc(ctx, change)
	}
}

// MockLivePublisher is a mock implementation of LivePublisher
type MockLivePublisher struct {
	BroadcastFunc func(payload []byte)
	Payloads      [][]byte
}

func (m *MockLivePublisher) Broadcast(payload []byte) {
	m.Payloads = append(m.Payloads, payload)
	if m.BroadcastFunc != nil {
		m.BroadcastFunc(payload)
	}
}

// MockSMSSender is a mock implementation of SMSSender
type MockSMSSender struct {
	SendSMSFunc func(ctx context.Context, to, message string) error
}

func (m *MockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(ctx, to, message)
	}
	return nil
}

// MockReceiptSender is a mock implementation of ReceiptSender
type MockReceiptSender struct {
	SendReceiptFunc func(ctx context.Context, to string, r *domain.Reservation) error
}

func (m *MockReceiptSender) SendReceipt(ctx context.Context, to string, r *domain.Reservation) error {
	if m.SendReceiptFunc != nil {
		return m.SendReceiptFunc(ctx, to, r)
	}
	return nil
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	ChargeFunc func(ctx context.Context, amount float64, reference string) (string, error)
	RefundFunc func(ctx context.Context, paymentID string) error
}

func (m *MockPaymentGateway) Name() string { return "test" }

func (m *MockPaymentGateway) Charge(ctx context.Context, amount float64, reference string) (string, error) {
	if m.ChargeFunc != nil {
		return m.ChargeFunc(ctx, amount, reference)
	}
	return "pay_test", nil
}

func (m *MockPaymentGateway) Refund(ctx context.Context, paymentID string) error {
	if m.RefundFunc != nil {
		return m.RefundFunc(ctx, paymentID)
	}
	return nil
}
