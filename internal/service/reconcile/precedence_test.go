package reconcile

import (
	"testing"

	"github.com/seu-repo/upark/internal/domain"
)

func TestApplyDelta_HardwareSetsOccupancy(t *testing.T) {
	current := domain.Slot{SlotNumber: 3}
	delta := domain.SlotDelta{
		SlotNumber: 3,
		Source:     domain.SourceHardware,
		Occupied:   domain.BoolPtr(true),
	}

	next, changed := ApplyDelta(current, delta)

	if !changed {
		t.Fatal("expected change, got no-op")
	}
	if !next.IsOccupied {
		t.Error("expected slot to be occupied")
	}
}

func TestApplyDelta_HardwareBlockedWhileReserved(t *testing.T) {
	current := domain.Slot{
		SlotNumber: 3,
		IsReserved: true,
		ReservedBy: "+919900112233",
	}
	delta := domain.SlotDelta{
		SlotNumber: 3,
		Source:     domain.SourceHardware,
		Occupied:   domain.BoolPtr(true),
	}

	next, changed := ApplyDelta(current, delta)

	if changed {
		t.Fatal("hardware delta must not touch a reserved slot")
	}
	if next.IsOccupied {
		t.Error("occupancy must stay false on a reserved slot")
	}
	if next.ReservedBy != "+919900112233" {
		t.Error("reservation link must survive the hardware delta")
	}
}

func TestApplyDelta_HardwareBlockedWhilePinned(t *testing.T) {
	current := domain.Slot{SlotNumber: 7, IsOccupied: true, Pinned: true}
	delta := domain.SlotDelta{
		SlotNumber: 7,
		Source:     domain.SourceHardware,
		Occupied:   domain.BoolPtr(false),
	}

	_, changed := ApplyDelta(current, delta)

	if changed {
		t.Fatal("hardware delta must not override a pinned slot")
	}
}

func TestApplyDelta_HardwareFreeClearsPlate(t *testing.T) {
	current := domain.Slot{SlotNumber: 2, IsOccupied: true, VehiclePlate: "KA01AB1234"}
	delta := domain.SlotDelta{
		SlotNumber: 2,
		Source:     domain.SourceHardware,
		Occupied:   domain.BoolPtr(false),
	}

	next, changed := ApplyDelta(current, delta)

	if !changed {
		t.Fatal("expected change")
	}
	if next.VehiclePlate != "" {
		t.Errorf("expected plate cleared, got %q", next.VehiclePlate)
	}
}

func TestApplyDelta_AdminPinsSlot(t *testing.T) {
	current := domain.Slot{SlotNumber: 5}
	delta, ok := OverrideDelta(5, domain.SlotStateOccupied)
	if !ok {
		t.Fatal("expected valid override delta")
	}

	next, changed := ApplyDelta(current, delta)

	if !changed {
		t.Fatal("expected change")
	}
	if !next.Pinned {
		t.Error("admin delta must pin the slot")
	}
	if !next.IsOccupied {
		t.Error("expected occupancy forced on")
	}
}

func TestApplyDelta_LifecycleClearsPin(t *testing.T) {
	current := domain.Slot{
		SlotNumber: 5,
		IsReserved: true,
		ReservedBy: "+911234567890",
		Pinned:     true,
	}

	next, changed := ApplyDelta(current, ReleaseDelta(5))

	if !changed {
		t.Fatal("expected change")
	}
	if next.Pinned {
		t.Error("lifecycle delta must clear the pin")
	}
	if next.IsReserved || next.ReservedBy != "" {
		t.Error("release must clear the reservation hold")
	}
}

func TestApplyDelta_LifecycleNeverBlockedByPin(t *testing.T) {
	current := domain.Slot{SlotNumber: 9, IsOccupied: true, Pinned: true}
	delta := domain.SlotDelta{
		SlotNumber: 9,
		Source:     domain.SourceLifecycle,
		Reserved:   domain.BoolPtr(true),
		ReservedBy: domain.StringPtr("+911111111111"),
	}

	next, changed := ApplyDelta(current, delta)

	if !changed {
		t.Fatal("lifecycle delta must apply on a pinned slot")
	}
	if !next.IsReserved {
		t.Error("expected reservation hold set")
	}
}

func TestApplyDelta_NoOpSuppressed(t *testing.T) {
	current := domain.Slot{SlotNumber: 4, IsOccupied: true}
	delta := domain.SlotDelta{
		SlotNumber: 4,
		Source:     domain.SourceHardware,
		Occupied:   domain.BoolPtr(true),
	}

	_, changed := ApplyDelta(current, delta)

	if changed {
		t.Error("identical state must be suppressed as a no-op")
	}
}

func TestApplyDelta_UnknownSourceIgnored(t *testing.T) {
	current := domain.Slot{SlotNumber: 1}
	delta := domain.SlotDelta{
		SlotNumber: 1,
		Source:     domain.DeltaSource("weather"),
		Occupied:   domain.BoolPtr(true),
	}

	next, changed := ApplyDelta(current, delta)

	if changed || next.IsOccupied {
		t.Error("unknown sources must be ignored")
	}
}

func TestOverrideDelta_AvailableClearsEverything(t *testing.T) {
	delta, ok := OverrideDelta(6, domain.SlotStateAvailable)
	if !ok {
		t.Fatal("expected valid delta")
	}

	current := domain.Slot{
		SlotNumber:   6,
		IsOccupied:   true,
		IsReserved:   true,
		ReservedBy:   "+919999999999",
		VehiclePlate: "MH12XY9999",
	}
	next, changed := ApplyDelta(current, delta)

	if !changed {
		t.Fatal("expected change")
	}
	if next.IsOccupied || next.IsReserved || next.ReservedBy != "" || next.VehiclePlate != "" {
		t.Errorf("expected a clean slot, got %+v", next)
	}
}

func TestOverrideDelta_RejectsUnknownState(t *testing.T) {
	if _, ok := OverrideDelta(1, domain.SlotState("BROKEN")); ok {
		t.Error("expected unknown state to be rejected")
	}
}
