package reservation

import (
	"math"

	"github.com/seu-repo/upark/internal/domain"
)

// Duration bounds for a booking, in hours.
const (
	MinDurationHours = 1
	MaxDurationHours = 7 * 24
)

type rateCard struct {
	hourly float64
	daily  float64
}

// Fixed rate lookup by vehicle class.
var rates = map[domain.VehicleType]rateCard{
	domain.VehicleTypeTwoWheeler:  {hourly: 10, daily: 80},
	domain.VehicleTypeFourWheeler: {hourly: 20, daily: 150},
}

// CalculateFee prices a booking. Duration is always expressed in hours;
// DAILY bookings are billed per started day. An unknown vehicle class or
// duration unit is a validation error, never a silent default.
func CalculateFee(vehicleType domain.VehicleType, durationHours int, unit domain.DurationUnit) (float64, error) {
	if durationHours < MinDurationHours || durationHours > MaxDurationHours {
		return 0, domain.ErrValidation("invalid duration: must be between %d hour and %d hours", MinDurationHours, MaxDurationHours)
	}

	card, ok := rates[vehicleType]
	if !ok {
		return 0, domain.ErrValidation("invalid vehicle type: %q", vehicleType)
	}

	switch unit {
	case domain.DurationHourly:
		return card.hourly * float64(durationHours), nil
	case domain.DurationDaily:
		days := math.Ceil(float64(durationHours) / 24)
		return card.daily * days, nil
	default:
		return 0, domain.ErrValidation("invalid duration unit: %q", unit)
	}
}

// Rates returns the per-hour and per-day rate for a vehicle class, for
// price quotes.
func Rates(vehicleType domain.VehicleType) (hourly, daily float64, err error) {
	card, ok := rates[vehicleType]
	if !ok {
		return 0, 0, domain.ErrValidation("invalid vehicle type: %q", vehicleType)
	}
	return card.hourly, card.daily, nil
}
