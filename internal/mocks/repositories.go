package mocks

import (
	"context"
	"time"

	"github.com/seu-repo/upark/internal/domain"
)

// MockSlotRepository is a mock implementation of SlotRepository
type MockSlotRepository struct {
	FindByNumberFunc    func(ctx context.Context, slotNumber int) (*domain.Slot, error)
	FindAllFunc         func(ctx context.Context) ([]domain.Slot, error)
	SaveFunc            func(ctx context.Context, slot *domain.Slot) error
	ReserveIfFreeFunc   func(ctx context.Context, slotNumber int, phone, plate string) (bool, error)
	ReservedNumbersFunc func(ctx context.Context) ([]int, error)
	ProvisionFunc       func(ctx context.Context, total int) error
}

func (m *MockSlotRepository) FindByNumber(ctx context.Context, slotNumber int) (*domain.Slot, error) {
	if m.FindByNumberFunc != nil {
		return m.FindByNumberFunc(ctx, slotNumber)
	}
	return nil, nil
}

func (m *MockSlotRepository) FindAll(ctx context.Context) ([]domain.Slot, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return []domain.Slot{}, nil
}

func (m *MockSlotRepository) Save(ctx context.Context, slot *domain.Slot) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, slot)
	}
	return nil
}

func (m *MockSlotRepository) ReserveIfFree(ctx context.Context, slotNumber int, phone, plate string) (bool, error) {
	if m.ReserveIfFreeFunc != nil {
		return m.ReserveIfFreeFunc(ctx, slotNumber, phone, plate)
	}
	return true, nil
}

func (m *MockSlotRepository) ReservedNumbers(ctx context.Context) ([]int, error) {
	if m.ReservedNumbersFunc != nil {
		return m.ReservedNumbersFunc(ctx)
	}
	return []int{}, nil
}

func (m *MockSlotRepository) Provision(ctx context.Context, total int) error {
	if m.ProvisionFunc != nil {
		return m.ProvisionFunc(ctx, total)
	}
	return nil
}

// MockReservationRepository is a mock implementation of ReservationRepository
type MockReservationRepository struct {
	CreateFunc      func(ctx context.Context, r *domain.Reservation) error
	FindByIDFunc    func(ctx context.Context, id int64) (*domain.Reservation, error)
	FindByUserFunc  func(ctx context.Context, phone string) ([]domain.Reservation, error)
	FindHoldingFunc func(ctx context.Context, phone string) (*domain.Reservation, error)
	FindExpiredFunc func(ctx context.Context, now time.Time) ([]domain.Reservation, error)
	UpdateFunc      func(ctx context.Context, r *domain.Reservation) error
}

func (m *MockReservationRepository) Create(ctx context.Context, r *domain.Reservation) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	return nil
}

func (m *MockReservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockReservationRepository) FindByUser(ctx context.Context, phone string) ([]domain.Reservation, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, phone)
	}
	return []domain.Reservation{}, nil
}

func (m *MockReservationRepository) FindHolding(ctx context.Context, phone string) (*domain.Reservation, error) {
	if m.FindHoldingFunc != nil {
		return m.FindHoldingFunc(ctx, phone)
	}
	return nil, nil
}

func (m *MockReservationRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	if m.FindExpiredFunc != nil {
		return m.FindExpiredFunc(ctx, now)
	}
	return []domain.Reservation{}, nil
}

func (m *MockReservationRepository) Update(ctx context.Context, r *domain.Reservation) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, r)
	}
	return nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	SaveFunc            func(ctx context.Context, user *domain.User) error
	FindByPhoneFunc     func(ctx context.Context, phone string) (*domain.User, error)
	FindVehicleFunc     func(ctx context.Context, plate string) (*domain.Vehicle, error)
	ReplaceVehiclesFunc func(ctx context.Context, phone string, vehicles []domain.Vehicle) error
}

func (m *MockUserRepository) Save(ctx context.Context, user *domain.User) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, user)
	}
	return nil
}

func (m *MockUserRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	return nil, nil
}

func (m *MockUserRepository) FindVehicle(ctx context.Context, plate string) (*domain.Vehicle, error) {
	if m.FindVehicleFunc != nil {
		return m.FindVehicleFunc(ctx, plate)
	}
	return nil, nil
}

func (m *MockUserRepository) ReplaceVehicles(ctx context.Context, phone string, vehicles []domain.Vehicle) error {
	if m.ReplaceVehiclesFunc != nil {
		return m.ReplaceVehiclesFunc(ctx, phone, vehicles)
	}
	return nil
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	FindFunc           func(ctx context.Context, phone string) (*domain.BookingProfile, error)
	RecordCreatedFunc  func(ctx context.Context, phone, name string) error
	RecordSpendFunc    func(ctx context.Context, phone string, amount float64) error
	RecordReleasedFunc func(ctx context.Context, phone string) error
}

func (m *MockProfileRepository) Find(ctx context.Context, phone string) (*domain.BookingProfile, error) {
	if m.FindFunc != nil {
		return m.FindFunc(ctx, phone)
	}
	return nil, nil
}

func (m *MockProfileRepository) RecordCreated(ctx context.Context, phone, name string) error {
	if m.RecordCreatedFunc != nil {
		return m.RecordCreatedFunc(ctx, phone, name)
	}
	return nil
}

func (m *MockProfileRepository) RecordSpend(ctx context.Context, phone string, amount float64) error {
	if m.RecordSpendFunc != nil {
		return m.RecordSpendFunc(ctx, phone, amount)
	}
	return nil
}

func (m *MockProfileRepository) RecordReleased(ctx context.Context, phone string) error {
	if m.RecordReleasedFunc != nil {
		return m.RecordReleasedFunc(ctx, phone)
	}
	return nil
}
