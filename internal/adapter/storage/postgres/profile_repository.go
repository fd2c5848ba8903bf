package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a GORM-backed booking-profile repository
func NewProfileRepository(db *gorm.DB) ports.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Find(ctx context.Context, phone string) (*domain.BookingProfile, error) {
	var profile domain.BookingProfile
	err := r.db.WithContext(ctx).First(&profile, "user_phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RecordCreated bumps the reservation counters, creating the profile row on
// first booking. The row is locked for the read-modify-write.
func (r *profileRepository) RecordCreated(ctx context.Context, phone, name string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := lockProfile(tx, phone)
		if err != nil {
			return err
		}

		now := time.Now()
		if profile == nil {
			profile = &domain.BookingProfile{
				UserPhone:       phone,
				MembershipLevel: domain.MembershipBronze,
				CreatedAt:       now,
			}
		}
		profile.UserName = name
		profile.TotalReservations++
		profile.ActiveReservations++
		profile.LastReservationAt = &now
		profile.UpdatedAt = now

		return tx.Save(profile).Error
	})
}

// RecordSpend adds a completed payment and recomputes the derived loyalty
// fields from the new lifetime total.
func (r *profileRepository) RecordSpend(ctx context.Context, phone string, amount float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile, err := lockProfile(tx, phone)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &domain.BookingProfile{
				UserPhone: phone,
				CreatedAt: time.Now(),
			}
		}

		profile.TotalAmountSpent += amount
		profile.LoyaltyPoints = int(profile.TotalAmountSpent / 10)
		profile.MembershipLevel = domain.MembershipFor(profile.TotalAmountSpent)
		profile.UpdatedAt = time.Now()

		return tx.Save(profile).Error
	})
}

func (r *profileRepository) RecordReleased(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Model(&domain.BookingProfile{}).
		Where("user_phone = ?", phone).
		Updates(map[string]interface{}{
			"active_reservations": gorm.Expr("GREATEST(active_reservations - 1, 0)"),
			"updated_at":          time.Now(),
		}).Error
}

func lockProfile(tx *gorm.DB, phone string) (*domain.BookingProfile, error) {
	var profile domain.BookingProfile
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, "user_phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
