package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a GORM-backed user repository
func NewUserRepository(db *gorm.DB) ports.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Preload("Vehicles").
		First(&user, "phone = ?", phone).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindVehicle(ctx context.Context, plate string) (*domain.Vehicle, error) {
	var vehicle domain.Vehicle
	err := r.db.WithContext(ctx).First(&vehicle, "number_plate = ?", plate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// ReplaceVehicles swaps the full vehicle set in one transaction so a failed
// write never leaves the user with a partial garage.
func (r *userRepository) ReplaceVehicles(ctx context.Context, phone string, vehicles []domain.Vehicle) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_phone = ?", phone).Delete(&domain.Vehicle{}).Error; err != nil {
			return err
		}
		if len(vehicles) == 0 {
			return nil
		}
		now := time.Now()
		for i := range vehicles {
			vehicles[i].OwnerPhone = phone
			vehicles[i].CreatedAt = now
			vehicles[i].UpdatedAt = now
		}
		return tx.Create(&vehicles).Error
	})
}
