package ports

import (
	"context"
	"time"

	"github.com/seu-repo/upark/internal/domain"
)

// SlotRepository is the durable slot table. It is the sole source of truth
// for occupancy and reservation flags.
type SlotRepository interface {
	FindByNumber(ctx context.Context, slotNumber int) (*domain.Slot, error)
	FindAll(ctx context.Context) ([]domain.Slot, error)
	// Save persists the full slot record.
	Save(ctx context.Context, slot *domain.Slot) error
	// ReserveIfFree atomically sets the reserved flag and links iff the slot
	// is currently neither occupied nor reserved. Returns false without
	// error when the compare-and-set lost.
	ReserveIfFree(ctx context.Context, slotNumber int, phone, plate string) (bool, error)
	// ReservedNumbers returns the slot numbers currently flagged reserved,
	// in ascending order.
	ReservedNumbers(ctx context.Context) ([]int, error)
	// Provision inserts the fixed slot set if the table is empty.
	Provision(ctx context.Context, total int) error
}

// ReservationRepository persists booking attempts. Rows are never deleted.
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	FindByID(ctx context.Context, id int64) (*domain.Reservation, error)
	FindByUser(ctx context.Context, phone string) ([]domain.Reservation, error)
	// FindHolding returns the user's reservation that currently holds a slot
	// (ACTIVE with PENDING or COMPLETED payment), or nil.
	FindHolding(ctx context.Context, phone string) (*domain.Reservation, error)
	// FindExpired returns ACTIVE reservations whose booking window passed.
	FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	Update(ctx context.Context, r *domain.Reservation) error
}

// UserRepository persists users and their vehicles.
type UserRepository interface {
	Save(ctx context.Context, user *domain.User) error
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindVehicle(ctx context.Context, plate string) (*domain.Vehicle, error)
	// ReplaceVehicles swaps the user's vehicle set for the given one.
	ReplaceVehicles(ctx context.Context, phone string, vehicles []domain.Vehicle) error
}

// ProfileRepository persists the derived booking-profile aggregate.
type ProfileRepository interface {
	Find(ctx context.Context, phone string) (*domain.BookingProfile, error)
	// RecordCreated increments the reservation counters for a new booking.
	RecordCreated(ctx context.Context, phone, name string) error
	// RecordSpend adds a completed payment to the spend counters and
	// recomputes loyalty points and membership level.
	RecordSpend(ctx context.Context, phone string, amount float64) error
	// RecordReleased decrements the active counter, flooring at zero.
	RecordReleased(ctx context.Context, phone string) error
}
