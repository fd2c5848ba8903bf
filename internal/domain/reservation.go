package domain

import (
	"time"
)

// ReservationStatus represents the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "ACTIVE"
	ReservationStatusCompleted ReservationStatus = "COMPLETED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
	ReservationStatusExpired   ReservationStatus = "EXPIRED"
)

// PaymentStatus represents the payment state of a reservation
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// VehicleType is the vehicle class a reservation is priced for
type VehicleType string

const (
	VehicleTypeTwoWheeler  VehicleType = "2W"
	VehicleTypeFourWheeler VehicleType = "4W"
)

// Valid reports whether v is a known vehicle class.
func (v VehicleType) Valid() bool {
	return v == VehicleTypeTwoWheeler || v == VehicleTypeFourWheeler
}

// DurationUnit is the billing granularity of a booking
type DurationUnit string

const (
	DurationHourly DurationUnit = "HOURLY"
	DurationDaily  DurationUnit = "DAILY"
)

// Valid reports whether u is a known duration unit.
func (u DurationUnit) Valid() bool {
	return u == DurationHourly || u == DurationDaily
}

// Reservation represents one booking attempt against a slot. Rows are never
// deleted; terminal outcomes are status transitions so the booking history
// stays append-only.
type Reservation struct {
	ID            int64             `json:"id" gorm:"primaryKey;autoIncrement"`
	SlotNumber    int               `json:"slotNumber" gorm:"column:slot_number;index"`
	UserPhone     string            `json:"userPhone" gorm:"column:user_phone;index"`
	UserName      string            `json:"userName" gorm:"column:user_name"`
	VehiclePlate  string            `json:"vehicleNumberPlate" gorm:"column:vehicle_number_plate"`
	VehicleType   VehicleType       `json:"vehicleType" gorm:"column:vehicle_type"`
	BookingStart  time.Time         `json:"bookingStartTime" gorm:"column:booking_start_time"`
	DurationValue int               `json:"duration" gorm:"column:booking_duration"`
	DurationUnit  DurationUnit      `json:"durationType" gorm:"column:duration_type"`
	BookingEnd    time.Time         `json:"bookingEndTime" gorm:"column:booking_end_time"`
	TotalAmount   float64           `json:"totalAmount" gorm:"column:total_amount"`
	PaymentStatus PaymentStatus     `json:"paymentStatus" gorm:"column:payment_status;index"`
	PaymentID     string            `json:"paymentId,omitempty" gorm:"column:payment_id"`
	Status        ReservationStatus `json:"status" gorm:"index"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (Reservation) TableName() string { return "reservations" }

// IsActive reports whether the reservation currently holds its slot.
func (r *Reservation) IsActive() bool {
	return r.Status == ReservationStatusActive
}

// HoldsSlot reports whether the reservation counts against the one-active-
// reservation-per-user rule: ACTIVE with a payment that is pending or done.
func (r *Reservation) HoldsSlot() bool {
	return r.Status == ReservationStatusActive &&
		(r.PaymentStatus == PaymentStatusPending || r.PaymentStatus == PaymentStatusCompleted)
}

// ExpiredBy reports whether the booking window has passed at the given time.
func (r *Reservation) ExpiredBy(now time.Time) bool {
	return r.Status == ReservationStatusActive && now.After(r.BookingEnd)
}
