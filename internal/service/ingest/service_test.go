package ingest

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func boardOf(numbers ...int) []domain.Slot {
	slots := make([]domain.Slot, len(numbers))
	for i, n := range numbers {
		slots[i] = domain.Slot{SlotNumber: n}
	}
	return slots
}

func TestHandleSweep_AbsenceMeansOccupied(t *testing.T) {
	// Arrange
	ctx := context.Background()
	slots := &mocks.MockSlotRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Slot, error) {
			return boardOf(1, 2, 3), nil
		},
	}
	var applied []domain.SlotDelta
	reconciler := &mocks.MockReconciler{
		ApplyBatchFunc: func(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
			applied = deltas
			return nil
		},
	}
	service := NewService(reconciler, slots, newTestLogger())

	// Act: only slot 2 reports free.
	err := service.HandleSweep(ctx, []byte("2"))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(applied) != 3 {
		t.Fatalf("expected a delta per known slot, got %d", len(applied))
	}
	for _, d := range applied {
		if d.Source != domain.SourceHardware {
			t.Errorf("slot %d: expected hardware source, got %s", d.SlotNumber, d.Source)
		}
		wantOccupied := d.SlotNumber != 2
		if d.Occupied == nil || *d.Occupied != wantOccupied {
			t.Errorf("slot %d: expected occupied=%v", d.SlotNumber, wantOccupied)
		}
	}
}

func TestHandleSweep_FullLot(t *testing.T) {
	ctx := context.Background()
	slots := &mocks.MockSlotRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Slot, error) {
			return boardOf(1, 2), nil
		},
	}
	var applied []domain.SlotDelta
	reconciler := &mocks.MockReconciler{
		ApplyBatchFunc: func(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
			applied = deltas
			return nil
		},
	}
	service := NewService(reconciler, slots, newTestLogger())

	if err := service.HandleSweep(ctx, []byte("FULL")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, d := range applied {
		if d.Occupied == nil || !*d.Occupied {
			t.Errorf("slot %d: full lot must mark every slot occupied", d.SlotNumber)
		}
	}
}

func TestHandleSweep_MalformedPayloadDropped(t *testing.T) {
	ctx := context.Background()
	batchCalls := 0
	reconciler := &mocks.MockReconciler{
		ApplyBatchFunc: func(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
			batchCalls++
			return nil
		},
	}
	service := NewService(reconciler, &mocks.MockSlotRepository{}, newTestLogger())

	err := service.HandleSweep(ctx, []byte("  "))

	// Dropped, not escalated: the bus must not redeliver garbage forever.
	if err != nil {
		t.Fatalf("expected malformed payload to be swallowed, got %v", err)
	}
	if batchCalls != 0 {
		t.Error("malformed payload must not reach the reconciler")
	}
}

func TestHandleSweep_StoreErrorEscalatesForRedelivery(t *testing.T) {
	ctx := context.Background()
	slots := &mocks.MockSlotRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Slot, error) {
			return nil, errors.New("connection refused")
		},
	}
	service := NewService(&mocks.MockReconciler{}, slots, newTestLogger())

	err := service.HandleSweep(ctx, []byte("1,2"))

	if !domain.IsKind(err, domain.KindTransientStore) {
		t.Errorf("expected transient store error, got %v", err)
	}
}

func TestHandleSweep_UnknownSlotNumbersIgnored(t *testing.T) {
	ctx := context.Background()
	slots := &mocks.MockSlotRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.Slot, error) {
			return boardOf(1, 2), nil
		},
	}
	var applied []domain.SlotDelta
	reconciler := &mocks.MockReconciler{
		ApplyBatchFunc: func(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
			applied = deltas
			return nil
		},
	}
	service := NewService(reconciler, slots, newTestLogger())

	// Slot 42 is not provisioned; only the known board produces deltas.
	if err := service.HandleSweep(ctx, []byte("1,42")); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected deltas only for provisioned slots, got %d", len(applied))
	}
}
