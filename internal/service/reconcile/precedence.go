package reconcile

import (
	"github.com/seu-repo/upark/internal/domain"
)

// ApplyDelta merges a candidate delta into the current slot state and reports
// whether any observable field changed. It is a pure function: the precedence
// rules between the three writers live here and nowhere else.
//
// Rules, in order:
//  1. Hardware may only touch the occupancy bit, and only while the slot is
//     neither reserved nor pinned by an admin override.
//  2. Admin deltas pin the slot against hardware input; lifecycle deltas
//     clear the pin. Neither source is ever blocked by the pin.
//  3. A delta that leaves every observable field unchanged is a no-op; the
//     pin bit alone is not observable.
func ApplyDelta(current domain.Slot, d domain.SlotDelta) (domain.Slot, bool) {
	next := current

	switch d.Source {
	case domain.SourceHardware:
		if current.IsReserved || current.Pinned {
			return current, false
		}
		if d.Occupied != nil {
			next.IsOccupied = *d.Occupied
			if !*d.Occupied {
				// A bay reported free carries no vehicle anymore.
				next.VehiclePlate = ""
			}
		}

	case domain.SourceLifecycle, domain.SourceAdmin:
		if d.Occupied != nil {
			next.IsOccupied = *d.Occupied
		}
		if d.Reserved != nil {
			next.IsReserved = *d.Reserved
		}
		if d.ReservedBy != nil {
			next.ReservedBy = *d.ReservedBy
		}
		if d.VehiclePlate != nil {
			next.VehiclePlate = *d.VehiclePlate
		}
		next.Pinned = d.Source == domain.SourceAdmin

	default:
		return current, false
	}

	changed := next.IsOccupied != current.IsOccupied ||
		next.IsReserved != current.IsReserved ||
		next.ReservedBy != current.ReservedBy ||
		next.VehiclePlate != current.VehiclePlate

	return next, changed
}

// OverrideDelta maps an operator's desired visible state to the concrete
// field-set submitted with admin precedence.
func OverrideDelta(slotNumber int, state domain.SlotState) (domain.SlotDelta, bool) {
	d := domain.SlotDelta{SlotNumber: slotNumber, Source: domain.SourceAdmin}

	switch state {
	case domain.SlotStateAvailable:
		d.Occupied = domain.BoolPtr(false)
		d.Reserved = domain.BoolPtr(false)
		d.ReservedBy = domain.StringPtr("")
		d.VehiclePlate = domain.StringPtr("")
	case domain.SlotStateReserved:
		d.Occupied = domain.BoolPtr(false)
		d.Reserved = domain.BoolPtr(true)
	case domain.SlotStateOccupied:
		d.Occupied = domain.BoolPtr(true)
		d.Reserved = domain.BoolPtr(false)
		d.ReservedBy = domain.StringPtr("")
		d.VehiclePlate = domain.StringPtr("")
	default:
		return domain.SlotDelta{}, false
	}

	return d, true
}

// ReleaseDelta is the lifecycle manager's slot release: it clears the
// reservation hold and links, leaving occupancy to the hardware feed.
func ReleaseDelta(slotNumber int) domain.SlotDelta {
	return domain.SlotDelta{
		SlotNumber:   slotNumber,
		Source:       domain.SourceLifecycle,
		Reserved:     domain.BoolPtr(false),
		ReservedBy:   domain.StringPtr(""),
		VehiclePlate: domain.StringPtr(""),
	}
}
