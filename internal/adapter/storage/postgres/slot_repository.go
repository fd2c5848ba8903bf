package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
)

type slotRepository struct {
	db *gorm.DB
}

// NewSlotRepository creates a GORM-backed slot repository
func NewSlotRepository(db *gorm.DB) ports.SlotRepository {
	return &slotRepository{db: db}
}

func (r *slotRepository) FindByNumber(ctx context.Context, slotNumber int) (*domain.Slot, error) {
	var slot domain.Slot
	err := r.db.WithContext(ctx).First(&slot, "slot_number = ?", slotNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *slotRepository) FindAll(ctx context.Context) ([]domain.Slot, error) {
	var slots []domain.Slot
	err := r.db.WithContext(ctx).Order("slot_number").Find(&slots).Error
	return slots, err
}

func (r *slotRepository) Save(ctx context.Context, slot *domain.Slot) error {
	slot.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(slot).Error
}

// ReserveIfFree is a single-statement compare-and-set: the WHERE clause is
// the availability check, and the row count tells whether we won.
func (r *slotRepository) ReserveIfFree(ctx context.Context, slotNumber int, phone, plate string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Slot{}).
		Where("slot_number = ? AND is_reserved = ? AND is_occupied = ?", slotNumber, false, false).
		Updates(map[string]interface{}{
			"is_reserved":          true,
			"pinned":               false,
			"reserved_by":          phone,
			"vehicle_number_plate": plate,
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *slotRepository) ReservedNumbers(ctx context.Context) ([]int, error) {
	var numbers []int
	err := r.db.WithContext(ctx).
		Model(&domain.Slot{}).
		Where("is_reserved = ?", true).
		Order("slot_number").
		Pluck("slot_number", &numbers).Error
	return numbers, err
}

// Provision seeds the fixed slot set on an empty table. Odd slots take
// two-wheelers, even slots four-wheelers, matching the painted lot layout.
func (r *slotRepository) Provision(ctx context.Context, total int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Slot{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now()
		slots := make([]domain.Slot, 0, total)
		for n := 1; n <= total; n++ {
			slotType := domain.SlotTypeFourWheeler
			if n%2 == 1 {
				slotType = domain.SlotTypeTwoWheeler
			}
			slots = append(slots, domain.Slot{
				SlotNumber: n,
				SlotType:   slotType,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		return tx.Create(&slots).Error
	})
}
