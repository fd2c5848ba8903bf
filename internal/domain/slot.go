package domain

import (
	"time"
)

// SlotType restricts which vehicle classes a slot accepts
type SlotType string

const (
	SlotTypeTwoWheeler  SlotType = "2W"
	SlotTypeFourWheeler SlotType = "4W"
	SlotTypeBoth        SlotType = "BOTH"
)

// SlotState is the visible state an operator can force onto a slot
type SlotState string

const (
	SlotStateAvailable SlotState = "AVAILABLE"
	SlotStateReserved  SlotState = "RESERVED"
	SlotStateOccupied  SlotState = "OCCUPIED"
)

// Valid reports whether s is one of the closed set of override states.
func (s SlotState) Valid() bool {
	switch s {
	case SlotStateAvailable, SlotStateReserved, SlotStateOccupied:
		return true
	}
	return false
}

// DeltaSource identifies which writer proposed a slot-state delta.
// Precedence between sources is decided in the reconciler, nowhere else.
type DeltaSource string

const (
	SourceHardware  DeltaSource = "hardware"
	SourceLifecycle DeltaSource = "lifecycle"
	SourceAdmin     DeltaSource = "admin"
)

// Slot represents one physical parking bay. SlotNumber is assigned at
// provisioning time and never changes.
type Slot struct {
	SlotNumber   int       `json:"slotNumber" gorm:"primaryKey;column:slot_number"`
	IsOccupied   bool      `json:"isOccupied" gorm:"column:is_occupied"`
	IsReserved   bool      `json:"isReserved" gorm:"column:is_reserved"`
	ReservedBy   string    `json:"reservedBy,omitempty" gorm:"column:reserved_by"`
	VehiclePlate string    `json:"vehicleNumberPlate,omitempty" gorm:"column:vehicle_number_plate"`
	Location     string    `json:"location,omitempty"`
	SlotType     SlotType  `json:"slotType" gorm:"column:slot_type"`
	// Pinned marks a slot held by an admin override. A pinned slot ignores
	// hardware input until the next lifecycle or admin event clears the pin.
	Pinned    bool      `json:"-" gorm:"column:pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Slot) TableName() string { return "parking_slots" }

// SlotDelta is a candidate update proposed by one of the three writers.
// Nil fields are left untouched.
type SlotDelta struct {
	SlotNumber   int
	Source       DeltaSource
	Occupied     *bool
	Reserved     *bool
	ReservedBy   *string
	VehiclePlate *string
}

// SlotChange is the normalized record emitted for every persisted change.
// Viewers apply it as a keyed upsert by SlotNumber.
type SlotChange struct {
	SlotNumber   int    `json:"slotNumber"`
	IsOccupied   bool   `json:"isOccupied"`
	IsReserved   bool   `json:"isReserved"`
	ReservedBy   string `json:"reservedBy,omitempty"`
	VehiclePlate string `json:"vehicleNumberPlate,omitempty"`
}

// Change builds the change record for the slot's current state.
func (s *Slot) Change() SlotChange {
	return SlotChange{
		SlotNumber:   s.SlotNumber,
		IsOccupied:   s.IsOccupied,
		IsReserved:   s.IsReserved,
		ReservedBy:   s.ReservedBy,
		VehiclePlate: s.VehiclePlate,
	}
}

// BoolPtr is a convenience for building deltas.
func BoolPtr(b bool) *bool { return &b }

// StringPtr is a convenience for building deltas.
func StringPtr(s string) *string { return &s }
