package ports

import (
	"context"
	"time"

	"github.com/seu-repo/upark/internal/domain"
)

// Reconciler is the single precedence authority for slot state. Every
// writer routes its deltas through here; nothing else mutates slot flags.
type Reconciler interface {
	// Apply merges one delta against the stored slot state. It returns the
	// change record when the persisted state actually changed, or nil for a
	// suppressed no-op.
	Apply(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error)
	// ApplyBatch applies deltas for independent slots; one slot's failure
	// does not block the rest. Returns the accepted changes.
	ApplyBatch(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange
	// Reserve is the creation-time compare-and-set: it marks the slot
	// reserved and linked iff it is currently free.
	Reserve(ctx context.Context, slotNumber int, phone, plate string) (*domain.SlotChange, error)
	// Snapshot returns the current state of every slot.
	Snapshot(ctx context.Context) ([]domain.Slot, error)
}

// ReservationService owns the reservation/payment state machine.
type ReservationService interface {
	Create(ctx context.Context, req *CreateReservationRequest) (*domain.Reservation, error)
	ProcessPayment(ctx context.Context, reservationID int64, phone string) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID int64, phone string) error
	// Expire transitions every ACTIVE reservation whose window has passed.
	// Driven by an external trigger; the service owns no timer.
	Expire(ctx context.Context, now time.Time) (int, error)
	CalculateFee(vehicleType domain.VehicleType, duration int, unit domain.DurationUnit) (float64, error)
	ListByUser(ctx context.Context, phone string) ([]domain.Reservation, error)
	GetProfile(ctx context.Context, phone string) (*domain.BookingProfile, error)
}

// CreateReservationRequest carries a validated booking request.
type CreateReservationRequest struct {
	Phone        string
	SlotNumber   int
	VehiclePlate string
	VehicleType  domain.VehicleType
	Duration     int
	DurationUnit domain.DurationUnit
	BookingStart time.Time
}

// AdminService lets an operator force a slot's visible state and drive the
// barrier gates.
type AdminService interface {
	OverrideSlot(ctx context.Context, slotNumber int, state domain.SlotState) (*domain.SlotChange, error)
	ControlGate(ctx context.Context, gate domain.Gate, action domain.GateAction) error
	SimulateVehicle(ctx context.Context, status string) error
	Dashboard(ctx context.Context) (*DashboardStats, error)
}

// DashboardStats summarizes the lot for the operator console.
type DashboardStats struct {
	TotalSlots int `json:"totalSlots"`
	Available  int `json:"available"`
	Reserved   int `json:"reserved"`
	Occupied   int `json:"occupied"`
	Pinned     int `json:"pinned"`
}

// AuthService handles OTP signup and session tokens.
type AuthService interface {
	RequestOTP(ctx context.Context, name, phone, email string) (*OTPChallenge, error)
	VerifyOTP(ctx context.Context, phone, code string) (*Session, error)
	CheckPhone(ctx context.Context, phone string) (*domain.User, error)
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
	UpdateVehicles(ctx context.Context, phone string, vehicles []domain.Vehicle) (*domain.User, error)
}

// OTPChallenge is the result of an OTP request. DevCode is only populated
// when SMS delivery is not configured.
type OTPChallenge struct {
	ExpiresAt time.Time `json:"expiresAt"`
	DevCode   string    `json:"devCode,omitempty"`
}

// Session is an authenticated phone identity.
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// SlotNotifier receives accepted change records from the reconciler and
// propagates them to observers. Notification failure is never a state-change
// failure; implementations log and move on.
type SlotNotifier interface {
	SlotChanged(ctx context.Context, change domain.SlotChange)
}

// LivePublisher broadcasts a payload to every connected live viewer.
type LivePublisher interface {
	Broadcast(payload []byte)
}

// Cache is a string key/value store with TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// ReceiptSender delivers a payment receipt. Best-effort.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, to string, r *domain.Reservation) error
}
