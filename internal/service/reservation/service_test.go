package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/mocks"
	"github.com/seu-repo/upark/internal/ports"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type fixture struct {
	reservations *mocks.MockReservationRepository
	slots        *mocks.MockSlotRepository
	users        *mocks.MockUserRepository
	profiles     *mocks.MockProfileRepository
	reconciler   *mocks.MockReconciler
	gateway      *mocks.MockPaymentGateway
	receipts     *mocks.MockReceiptSender
	service      *Service
}

func newFixture() *fixture {
	f := &fixture{
		reservations: &mocks.MockReservationRepository{},
		slots:        &mocks.MockSlotRepository{},
		users:        &mocks.MockUserRepository{},
		profiles:     &mocks.MockProfileRepository{},
		reconciler:   &mocks.MockReconciler{},
		gateway:      &mocks.MockPaymentGateway{},
		receipts:     &mocks.MockReceiptSender{},
	}
	f.service = NewService(f.reservations, f.slots, f.users, f.profiles, f.reconciler, f.gateway, f.receipts, newTestLogger())
	return f
}

func validRequest() *ports.CreateReservationRequest {
	return &ports.CreateReservationRequest{
		Phone:        "+911234567890",
		SlotNumber:   3,
		VehiclePlate: "KA01AB1234",
		VehicleType:  domain.VehicleTypeFourWheeler,
		Duration:     2,
		DurationUnit: domain.DurationHourly,
	}
}

func (f *fixture) withRegisteredUser() {
	f.users.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.User, error) {
		return &domain.User{Phone: phone, Name: "Asha"}, nil
	}
	f.users.FindVehicleFunc = func(ctx context.Context, plate string) (*domain.Vehicle, error) {
		return &domain.Vehicle{NumberPlate: plate, OwnerPhone: "+911234567890", Type: domain.VehicleTypeFourWheeler}, nil
	}
	f.slots.FindByNumberFunc = func(ctx context.Context, slotNumber int) (*domain.Slot, error) {
		return &domain.Slot{SlotNumber: slotNumber, SlotType: domain.SlotTypeFourWheeler}, nil
	}
}

func TestCreate_Success(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()

	var created *domain.Reservation
	f.reservations.CreateFunc = func(ctx context.Context, r *domain.Reservation) error {
		r.ID = 42
		created = r
		return nil
	}

	// Act
	res, err := f.service.Create(ctx, validRequest())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.ID != 42 {
		t.Errorf("expected persisted id, got %d", res.ID)
	}
	if res.TotalAmount != 40 {
		t.Errorf("expected fee 40 for 2h 4W, got %v", res.TotalAmount)
	}
	if res.Status != domain.ReservationStatusActive || res.PaymentStatus != domain.PaymentStatusPending {
		t.Errorf("expected ACTIVE/PENDING, got %s/%s", res.Status, res.PaymentStatus)
	}
	if created == nil {
		t.Fatal("expected reservation persisted")
	}
	if !created.BookingEnd.Equal(created.BookingStart.Add(2 * time.Hour)) {
		t.Error("booking end must be start plus duration")
	}
}

func TestCreate_DuplicateActiveReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()
	f.reservations.FindHoldingFunc = func(ctx context.Context, phone string) (*domain.Reservation, error) {
		return &domain.Reservation{ID: 7, Status: domain.ReservationStatusActive}, nil
	}

	_, err := f.service.Create(ctx, validRequest())

	if !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreate_SlotTypeMismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()
	f.slots.FindByNumberFunc = func(ctx context.Context, slotNumber int) (*domain.Slot, error) {
		return &domain.Slot{SlotNumber: slotNumber, SlotType: domain.SlotTypeTwoWheeler}, nil
	}

	_, err := f.service.Create(ctx, validRequest())

	if !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_VehicleNotOwned(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()
	f.users.FindVehicleFunc = func(ctx context.Context, plate string) (*domain.Vehicle, error) {
		return &domain.Vehicle{NumberPlate: plate, OwnerPhone: "+919999999999", Type: domain.VehicleTypeFourWheeler}, nil
	}

	_, err := f.service.Create(ctx, validRequest())

	if !domain.IsKind(err, domain.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreate_ReserveConflictPropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()
	f.reconciler.ReserveFunc = func(ctx context.Context, slotNumber int, phone, plate string) (*domain.SlotChange, error) {
		return nil, domain.ErrConflict("slot %d is not available", slotNumber)
	}

	_, err := f.service.Create(ctx, validRequest())

	if !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestCreate_InsertFailureReleasesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.withRegisteredUser()
	f.reservations.CreateFunc = func(ctx context.Context, r *domain.Reservation) error {
		return errors.New("connection reset")
	}

	released := false
	f.reconciler.ApplyFunc = func(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error) {
		if delta.Source == domain.SourceLifecycle && delta.Reserved != nil && !*delta.Reserved {
			released = true
		}
		return nil, nil
	}

	_, err := f.service.Create(ctx, validRequest())

	if !domain.IsKind(err, domain.KindTransientStore) {
		t.Fatalf("expected transient store error, got %v", err)
	}
	if !released {
		t.Error("failed insert must give the slot back")
	}
}

func activeReservation() *domain.Reservation {
	return &domain.Reservation{
		ID:            42,
		SlotNumber:    3,
		UserPhone:     "+911234567890",
		TotalAmount:   40,
		Status:        domain.ReservationStatusActive,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func TestProcessPayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		return activeReservation(), nil
	}
	f.gateway.ChargeFunc = func(ctx context.Context, amount float64, reference string) (string, error) {
		return "pay_abc123", nil
	}

	receiptSent := false
	f.receipts.SendReceiptFunc = func(ctx context.Context, to string, r *domain.Reservation) error {
		receiptSent = true
		return nil
	}

	res, err := f.service.ProcessPayment(ctx, 42, "+911234567890")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PaymentStatus != domain.PaymentStatusCompleted || res.PaymentID != "pay_abc123" {
		t.Errorf("expected completed payment, got %s/%s", res.PaymentStatus, res.PaymentID)
	}
	if !receiptSent {
		t.Error("expected receipt sent after successful payment")
	}
}

func TestProcessPayment_WrongOwnerLooksLikeMissing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		return activeReservation(), nil
	}

	charged := false
	f.gateway.ChargeFunc = func(ctx context.Context, amount float64, reference string) (string, error) {
		charged = true
		return "pay_abc", nil
	}

	_, err := f.service.ProcessPayment(ctx, 42, "+910000000000")

	if !domain.IsKind(err, domain.KindNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
	if charged {
		t.Error("gateway must not be charged for someone else's reservation")
	}
}

func TestProcessPayment_AlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		res := activeReservation()
		res.PaymentStatus = domain.PaymentStatusCompleted
		return res, nil
	}

	_, err := f.service.ProcessPayment(ctx, 42, "+911234567890")

	if !domain.IsKind(err, domain.KindConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestProcessPayment_FailureReleasesSlotKeepsRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		return activeReservation(), nil
	}
	f.gateway.ChargeFunc = func(ctx context.Context, amount float64, reference string) (string, error) {
		return "", errors.New("card declined")
	}

	var updated *domain.Reservation
	f.reservations.UpdateFunc = func(ctx context.Context, r *domain.Reservation) error {
		updated = r
		return nil
	}
	released := false
	f.reconciler.ApplyFunc = func(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error) {
		released = true
		return nil, nil
	}

	res, err := f.service.ProcessPayment(ctx, 42, "+911234567890")

	// A declined card is an outcome, not an internal failure.
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.PaymentStatus != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED payment status, got %s", res.PaymentStatus)
	}
	if updated == nil {
		t.Error("failed attempt must stay recorded")
	}
	if !released {
		t.Error("failed payment must release the slot")
	}
}

func TestCancel_RefundsPaidReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		res := activeReservation()
		res.PaymentStatus = domain.PaymentStatusCompleted
		res.PaymentID = "pay_abc123"
		return res, nil
	}

	var updated *domain.Reservation
	f.reservations.UpdateFunc = func(ctx context.Context, r *domain.Reservation) error {
		updated = r
		return nil
	}
	refunded := ""
	f.gateway.RefundFunc = func(ctx context.Context, paymentID string) error {
		refunded = paymentID
		return nil
	}

	err := f.service.Cancel(ctx, 42, "+911234567890")

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.ReservationStatusCancelled || updated.PaymentStatus != domain.PaymentStatusRefunded {
		t.Errorf("expected CANCELLED/REFUNDED, got %s/%s", updated.Status, updated.PaymentStatus)
	}
	if refunded != "pay_abc123" {
		t.Errorf("expected refund of pay_abc123, got %q", refunded)
	}
}

func TestCancel_InactiveReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindByIDFunc = func(ctx context.Context, id int64) (*domain.Reservation, error) {
		res := activeReservation()
		res.Status = domain.ReservationStatusExpired
		return res, nil
	}

	err := f.service.Cancel(ctx, 42, "+911234567890")

	if !domain.IsKind(err, domain.KindNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestExpire_ReleasesEachExpiredReservation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	f := newFixture()
	f.reservations.FindExpiredFunc = func(ctx context.Context, at time.Time) ([]domain.Reservation, error) {
		return []domain.Reservation{
			{ID: 1, SlotNumber: 1, UserPhone: "+911111111111", Status: domain.ReservationStatusActive},
			{ID: 2, SlotNumber: 2, UserPhone: "+912222222222", Status: domain.ReservationStatusActive},
		}, nil
	}

	releases := 0
	f.reconciler.ApplyFunc = func(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error) {
		releases++
		return nil, nil
	}

	count, err := f.service.Expire(ctx, now)

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 expired, got %d", count)
	}
	if releases != 2 {
		t.Errorf("expected 2 slot releases, got %d", releases)
	}
}

func TestExpire_SkipsFailedUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.reservations.FindExpiredFunc = func(ctx context.Context, at time.Time) ([]domain.Reservation, error) {
		return []domain.Reservation{
			{ID: 1, SlotNumber: 1, Status: domain.ReservationStatusActive},
			{ID: 2, SlotNumber: 2, Status: domain.ReservationStatusActive},
		}, nil
	}
	f.reservations.UpdateFunc = func(ctx context.Context, r *domain.Reservation) error {
		if r.ID == 1 {
			return errors.New("deadlock detected")
		}
		return nil
	}

	count, err := f.service.Expire(ctx, time.Now())

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 expired despite the failure, got %d", count)
	}
}
