package domain

import (
	"time"
)

// User is identified by a verified phone number.
type User struct {
	Phone string `json:"phone" gorm:"primaryKey"`
	Name  string `json:"name"`
	// Email is optional; receipts fall back to SMS without it.
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Role is derived from configuration at token time, never stored.
	Role string `json:"role,omitempty" gorm:"-"`

	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:OwnerPhone"`
}

func (User) TableName() string { return "users" }

// Vehicle is a registered plate owned by a user.
type Vehicle struct {
	NumberPlate string      `json:"numberPlate" gorm:"primaryKey;column:number_plate"`
	Type        VehicleType `json:"type"`
	OwnerPhone  string      `json:"-" gorm:"column:owner_phone;index"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

// MembershipLevel is a loyalty tier derived from spend.
type MembershipLevel string

const (
	MembershipBronze   MembershipLevel = "BRONZE"
	MembershipSilver   MembershipLevel = "SILVER"
	MembershipGold     MembershipLevel = "GOLD"
	MembershipPlatinum MembershipLevel = "PLATINUM"
)

// MembershipFor maps lifetime spend to a tier.
func MembershipFor(totalSpent float64) MembershipLevel {
	switch {
	case totalSpent >= 20000:
		return MembershipPlatinum
	case totalSpent >= 5000:
		return MembershipGold
	case totalSpent >= 1000:
		return MembershipSilver
	default:
		return MembershipBronze
	}
}

// BookingProfile is a derived per-user aggregate of reservation activity.
// It is not authoritative; it can be rebuilt from the reservation history.
type BookingProfile struct {
	UserPhone          string          `json:"userPhone" gorm:"primaryKey;column:user_phone"`
	UserName           string          `json:"userName" gorm:"column:user_name"`
	TotalReservations  int             `json:"totalReservations" gorm:"column:total_reservations"`
	ActiveReservations int             `json:"activeReservations" gorm:"column:active_reservations"`
	TotalAmountSpent   float64         `json:"totalAmountSpent" gorm:"column:total_amount_spent"`
	LoyaltyPoints      int             `json:"loyaltyPoints" gorm:"column:loyalty_points"`
	MembershipLevel    MembershipLevel `json:"membershipLevel" gorm:"column:membership_level"`
	LastReservationAt  *time.Time      `json:"lastReservationDate,omitempty" gorm:"column:last_reservation_date"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (BookingProfile) TableName() string { return "user_booking_profiles" }
