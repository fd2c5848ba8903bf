package reservation

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/observability/telemetry"
	"github.com/seu-repo/upark/internal/ports"
	"github.com/seu-repo/upark/internal/service/reconcile"
)

const userLockStripes = 32

// Service owns the reservation/payment state machine. It is the only writer
// of the reserved/link bits, and every slot mutation it makes is routed
// through the reconciler; it never writes occupancy directly.
type Service struct {
	reservations ports.ReservationRepository
	slots        ports.SlotRepository
	users        ports.UserRepository
	profiles     ports.ProfileRepository
	reconciler   ports.Reconciler
	gateway      ports.PaymentGateway
	receipts     ports.ReceiptSender
	log          *zap.Logger

	// Serializes the duplicate-reservation check and the insert per user.
	userLocks [userLockStripes]sync.Mutex
}

func NewService(
	reservations ports.ReservationRepository,
	slots ports.SlotRepository,
	users ports.UserRepository,
	profiles ports.ProfileRepository,
	reconciler ports.Reconciler,
	gateway ports.PaymentGateway,
	receipts ports.ReceiptSender,
	log *zap.Logger,
) *Service {
	return &Service{
		reservations: reservations,
		slots:        slots,
		users:        users,
		profiles:     profiles,
		reconciler:   reconciler,
		gateway:      gateway,
		receipts:     receipts,
		log:          log,
	}
}

func (s *Service) userLock(phone string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(phone))
	return &s.userLocks[h.Sum32()%userLockStripes]
}

// Create books a slot. Fee computation and the slot hold must both succeed
// or neither is persisted.
func (s *Service) Create(ctx context.Context, req *ports.CreateReservationRequest) (*domain.Reservation, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}

	fee, err := CalculateFee(req.VehicleType, req.Duration, req.DurationUnit)
	if err != nil {
		return nil, err
	}

	mu := s.userLock(req.Phone)
	mu.Lock()
	defer mu.Unlock()

	user, err := s.users.FindByPhone(ctx, req.Phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load user", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound("user not found")
	}

	vehicle, err := s.users.FindVehicle(ctx, req.VehiclePlate)
	if err != nil {
		return nil, domain.ErrTransientStore("load vehicle", err)
	}
	if vehicle == nil || vehicle.OwnerPhone != req.Phone {
		return nil, domain.ErrValidation("vehicle not found or not owned by user")
	}
	if vehicle.Type != req.VehicleType {
		return nil, domain.ErrValidation("vehicle %s is registered as %s", req.VehiclePlate, vehicle.Type)
	}

	holding, err := s.reservations.FindHolding(ctx, req.Phone)
	if err != nil {
		return nil, domain.ErrTransientStore("check active reservations", err)
	}
	if holding != nil {
		return nil, domain.ErrConflict("you already have an active reservation")
	}

	slot, err := s.slots.FindByNumber(ctx, req.SlotNumber)
	if err != nil {
		return nil, domain.ErrTransientStore("load slot", err)
	}
	if slot == nil {
		return nil, domain.ErrNotFound("slot %d not found", req.SlotNumber)
	}
	if slot.SlotType != domain.SlotTypeBoth && string(slot.SlotType) != string(req.VehicleType) {
		return nil, domain.ErrValidation("slot %d does not accept %s vehicles", req.SlotNumber, req.VehicleType)
	}
	if slot.IsOccupied || slot.IsReserved {
		return nil, domain.ErrConflict("slot %d is not available", req.SlotNumber)
	}

	// The actual serialization point: check-and-mark as one compare-and-set.
	if _, err := s.reconciler.Reserve(ctx, req.SlotNumber, req.Phone, req.VehiclePlate); err != nil {
		return nil, err
	}

	start := req.BookingStart
	if start.IsZero() {
		start = time.Now()
	}

	res := &domain.Reservation{
		SlotNumber:    req.SlotNumber,
		UserPhone:     req.Phone,
		UserName:      user.Name,
		VehiclePlate:  req.VehiclePlate,
		VehicleType:   req.VehicleType,
		BookingStart:  start,
		DurationValue: req.Duration,
		DurationUnit:  req.DurationUnit,
		BookingEnd:    start.Add(time.Duration(req.Duration) * time.Hour),
		TotalAmount:   fee,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.ReservationStatusActive,
	}

	if err := s.reservations.Create(ctx, res); err != nil {
		// Half-created bookings are not allowed: give the slot back.
		s.releaseSlot(ctx, req.SlotNumber)
		return nil, domain.ErrTransientStore("create reservation", err)
	}

	if err := s.profiles.RecordCreated(ctx, req.Phone, user.Name); err != nil {
		// Derived aggregate; rebuildable from the reservation history.
		s.log.Error("Failed to update booking profile", zap.String("phone", req.Phone), zap.Error(err))
	}

	telemetry.ReservationsTotal.WithLabelValues("created").Inc()
	telemetry.ActiveReservations.Inc()

	s.log.Info("Reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int("slot", res.SlotNumber),
		zap.String("phone", res.UserPhone),
		zap.Float64("amount", res.TotalAmount),
	)
	return res, nil
}

func (s *Service) validateCreate(req *ports.CreateReservationRequest) error {
	if req.Phone == "" {
		return domain.ErrValidation("phone is required")
	}
	if req.SlotNumber <= 0 {
		return domain.ErrValidation("invalid slot number")
	}
	if req.VehiclePlate == "" {
		return domain.ErrValidation("vehicle number plate is required")
	}
	if !req.VehicleType.Valid() {
		return domain.ErrValidation("invalid vehicle type: %q", req.VehicleType)
	}
	if !req.DurationUnit.Valid() {
		return domain.ErrValidation("invalid duration unit: %q", req.DurationUnit)
	}
	if req.Duration < MinDurationHours || req.Duration > MaxDurationHours {
		return domain.ErrValidation("invalid duration: must be between %d hour and %d hours", MinDurationHours, MaxDurationHours)
	}
	return nil
}

// ProcessPayment collects the fee through the payment gateway and records
// the outcome. A failed payment releases the slot; the reservation row stays
// as the audit record of the failed attempt.
func (s *Service) ProcessPayment(ctx context.Context, reservationID int64, phone string) (*domain.Reservation, error) {
	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return nil, domain.ErrTransientStore("load reservation", err)
	}
	if res == nil || res.UserPhone != phone {
		return nil, domain.ErrNotFound("reservation not found")
	}
	if res.PaymentStatus == domain.PaymentStatusCompleted {
		return nil, domain.ErrConflict("payment already completed")
	}

	paymentID, err := s.gateway.Charge(ctx, res.TotalAmount, fmt.Sprintf("reservation-%d", res.ID))
	if err != nil {
		s.log.Warn("Payment failed",
			zap.Int64("reservation_id", res.ID),
			zap.Float64("amount", res.TotalAmount),
			zap.Error(err),
		)

		res.PaymentStatus = domain.PaymentStatusFailed
		res.UpdatedAt = time.Now()
		if uerr := s.reservations.Update(ctx, res); uerr != nil {
			return nil, domain.ErrTransientStore("record payment failure", uerr)
		}

		s.releaseSlot(ctx, res.SlotNumber)
		telemetry.ReservationsTotal.WithLabelValues("payment_failed").Inc()
		telemetry.ActiveReservations.Dec()
		return res, nil
	}

	res.PaymentStatus = domain.PaymentStatusCompleted
	res.PaymentID = paymentID
	res.UpdatedAt = time.Now()
	if err := s.reservations.Update(ctx, res); err != nil {
		return nil, domain.ErrTransientStore("record payment", err)
	}

	if err := s.profiles.RecordSpend(ctx, res.UserPhone, res.TotalAmount); err != nil {
		s.log.Error("Failed to update spend counters", zap.String("phone", res.UserPhone), zap.Error(err))
	}

	telemetry.ReservationsTotal.WithLabelValues("paid").Inc()
	telemetry.PaymentAmountTotal.Add(res.TotalAmount)

	// Receipt delivery is a separate, best-effort step after the state
	// change is durable.
	if s.receipts != nil {
		if err := s.receipts.SendReceipt(ctx, res.UserPhone, res); err != nil {
			s.log.Warn("Failed to send payment receipt", zap.Int64("reservation_id", res.ID), zap.Error(err))
		}
	}

	s.log.Info("Payment completed",
		zap.Int64("reservation_id", res.ID),
		zap.String("payment_id", paymentID),
		zap.Float64("amount", res.TotalAmount),
	)
	return res, nil
}

// Cancel ends an active reservation at its owner's request. A completed
// payment is refunded; a pending one is marked failed.
func (s *Service) Cancel(ctx context.Context, reservationID int64, phone string) error {
	res, err := s.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return domain.ErrTransientStore("load reservation", err)
	}
	if res == nil || res.UserPhone != phone || !res.IsActive() {
		return domain.ErrNotFound("active reservation not found")
	}

	wasPaid := res.PaymentStatus == domain.PaymentStatusCompleted

	res.Status = domain.ReservationStatusCancelled
	if wasPaid {
		res.PaymentStatus = domain.PaymentStatusRefunded
	} else {
		res.PaymentStatus = domain.PaymentStatusFailed
	}
	res.UpdatedAt = time.Now()

	if err := s.reservations.Update(ctx, res); err != nil {
		return domain.ErrTransientStore("cancel reservation", err)
	}

	if wasPaid && res.PaymentID != "" {
		if err := s.gateway.Refund(ctx, res.PaymentID); err != nil {
			s.log.Error("Refund failed", zap.String("payment_id", res.PaymentID), zap.Error(err))
		}
	}

	s.releaseSlot(ctx, res.SlotNumber)

	if err := s.profiles.RecordReleased(ctx, phone); err != nil {
		s.log.Error("Failed to update booking profile", zap.String("phone", phone), zap.Error(err))
	}

	telemetry.ReservationsTotal.WithLabelValues("cancelled").Inc()
	telemetry.ActiveReservations.Dec()

	s.log.Info("Reservation cancelled",
		zap.Int64("reservation_id", res.ID),
		zap.Bool("refunded", wasPaid),
	)
	return nil
}

// Expire transitions every active reservation whose booking window passed.
// The trigger is external; one reservation's failure does not block the rest.
func (s *Service) Expire(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.reservations.FindExpired(ctx, now)
	if err != nil {
		return 0, domain.ErrTransientStore("load expired reservations", err)
	}

	count := 0
	for i := range expired {
		res := &expired[i]
		res.Status = domain.ReservationStatusExpired
		res.UpdatedAt = now

		if err := s.reservations.Update(ctx, res); err != nil {
			s.log.Error("Failed to expire reservation", zap.Int64("reservation_id", res.ID), zap.Error(err))
			continue
		}

		s.releaseSlot(ctx, res.SlotNumber)

		if err := s.profiles.RecordReleased(ctx, res.UserPhone); err != nil {
			s.log.Error("Failed to update booking profile", zap.String("phone", res.UserPhone), zap.Error(err))
		}

		telemetry.ReservationsTotal.WithLabelValues("expired").Inc()
		telemetry.ActiveReservations.Dec()
		count++
	}

	if count > 0 {
		s.log.Info("Expired reservations released", zap.Int("count", count))
	}
	return count, nil
}

// releaseSlot routes the release through the reconciler. Occupancy stays
// with the hardware feed; only the hold and links are cleared.
func (s *Service) releaseSlot(ctx context.Context, slotNumber int) {
	if _, err := s.reconciler.Apply(ctx, reconcile.ReleaseDelta(slotNumber)); err != nil {
		s.log.Error("Failed to release slot", zap.Int("slot", slotNumber), zap.Error(err))
	}
}

// CalculateFee exposes the fee formula for price quotes.
func (s *Service) CalculateFee(vehicleType domain.VehicleType, duration int, unit domain.DurationUnit) (float64, error) {
	return CalculateFee(vehicleType, duration, unit)
}

// ListByUser returns the user's reservation history, newest first.
func (s *Service) ListByUser(ctx context.Context, phone string) ([]domain.Reservation, error) {
	return s.reservations.FindByUser(ctx, phone)
}

// GetProfile returns the user's booking profile, or an empty default when
// the user has never booked.
func (s *Service) GetProfile(ctx context.Context, phone string) (*domain.BookingProfile, error) {
	profile, err := s.profiles.Find(ctx, phone)
	if err != nil {
		return nil, domain.ErrTransientStore("load booking profile", err)
	}
	if profile == nil {
		return &domain.BookingProfile{
			UserPhone:       phone,
			MembershipLevel: domain.MembershipBronze,
		}, nil
	}
	return profile, nil
}
