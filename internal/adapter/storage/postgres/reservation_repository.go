package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type reservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a GORM-backed reservation repository
func NewReservationRepository(db *gorm.DB) ports.ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	now := time.Now()
	res.CreatedAt = now
	res.UpdatedAt = now
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).First(&res, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindByUser(ctx context.Context, phone string) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("user_phone = ?", phone).
		Order("created_at DESC").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) FindHolding(ctx context.Context, phone string) (*domain.Reservation, error) {
	var res domain.Reservation
	err := r.db.WithContext(ctx).
		Where("user_phone = ? AND status = ? AND payment_status IN ?",
			phone,
			domain.ReservationStatusActive,
			[]domain.PaymentStatus{domain.PaymentStatusPending, domain.PaymentStatusCompleted},
		).
		First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) FindExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	var reservations []domain.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND booking_end <= ?", domain.ReservationStatusActive, now).
		Order("booking_end").
		Find(&reservations).Error
	return reservations, err
}

func (r *reservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	res.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(res).Error
}
