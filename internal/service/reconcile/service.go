package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/observability/telemetry"
	"github.com/seu-repo/upark/internal/ports"
)

const lockStripes = 64

// Service serializes "read flags, decide precedence, write" per slot while
// letting deltas for different slots proceed in parallel.
type Service struct {
	slots    ports.SlotRepository
	notifier ports.SlotNotifier
	log      *zap.Logger
	locks    [lockStripes]sync.Mutex
}

func NewService(slots ports.SlotRepository, notifier ports.SlotNotifier, log *zap.Logger) *Service {
	return &Service{
		slots:    slots,
		notifier: notifier,
		log:      log,
	}
}

func (s *Service) lockFor(slotNumber int) *sync.Mutex {
	return &s.locks[slotNumber%lockStripes]
}

// Apply merges one delta against the stored slot state, persists the result
// and forwards the change record. No-op deltas are suppressed.
func (s *Service) Apply(ctx context.Context, delta domain.SlotDelta) (*domain.SlotChange, error) {
	start := time.Now()
	defer func() { telemetry.ReconcileLatency.Observe(time.Since(start).Seconds()) }()

	mu := s.lockFor(delta.SlotNumber)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.slots.FindByNumber(ctx, delta.SlotNumber)
	if err != nil {
		return nil, domain.ErrTransientStore("load slot", err)
	}
	if current == nil {
		return nil, domain.ErrNotFound("slot %d not found", delta.SlotNumber)
	}

	next, changed := ApplyDelta(*current, delta)
	if !changed {
		telemetry.SuppressedDeltasTotal.WithLabelValues(string(delta.Source)).Inc()
		// The pin bit is not observable but must still survive: an admin
		// delta pins, a lifecycle delta unpins, even when the visible
		// fields end up identical.
		if next.Pinned != current.Pinned {
			next.UpdatedAt = time.Now()
			if err := s.slots.Save(ctx, &next); err != nil {
				return nil, domain.ErrTransientStore("save slot pin", err)
			}
		}
		return nil, nil
	}

	next.UpdatedAt = time.Now()
	if err := s.slots.Save(ctx, &next); err != nil {
		return nil, domain.ErrTransientStore("save slot", err)
	}

	telemetry.SlotChangesTotal.WithLabelValues(string(delta.Source)).Inc()
	change := next.Change()

	s.log.Info("Slot state changed",
		zap.Int("slot", change.SlotNumber),
		zap.String("source", string(delta.Source)),
		zap.Bool("occupied", change.IsOccupied),
		zap.Bool("reserved", change.IsReserved),
	)

	if s.notifier != nil {
		s.notifier.SlotChanged(ctx, change)
	}
	return &change, nil
}

// ApplyBatch reconciles a set of deltas for independent slots. A failure on
// one slot is logged and skipped; the slot is retried on the next signal.
func (s *Service) ApplyBatch(ctx context.Context, deltas []domain.SlotDelta) []domain.SlotChange {
	changes := make([]domain.SlotChange, 0, len(deltas))
	for _, d := range deltas {
		change, err := s.Apply(ctx, d)
		if err != nil {
			s.log.Error("Failed to reconcile slot",
				zap.Int("slot", d.SlotNumber),
				zap.String("source", string(d.Source)),
				zap.Error(err),
			)
			continue
		}
		if change != nil {
			changes = append(changes, *change)
		}
	}
	return changes
}

// Reserve is the creation-time serialization point: the availability check
// and the reserved-flag write are one compare-and-set, so two concurrent
// bookings of the same free slot cannot both win.
func (s *Service) Reserve(ctx context.Context, slotNumber int, phone, plate string) (*domain.SlotChange, error) {
	mu := s.lockFor(slotNumber)
	mu.Lock()
	defer mu.Unlock()

	ok, err := s.slots.ReserveIfFree(ctx, slotNumber, phone, plate)
	if err != nil {
		return nil, domain.ErrTransientStore("reserve slot", err)
	}
	if !ok {
		return nil, domain.ErrConflict("slot %d is not available", slotNumber)
	}

	slot, err := s.slots.FindByNumber(ctx, slotNumber)
	if err != nil || slot == nil {
		// The flag is set; observers catch up on the next change.
		s.log.Error("Failed to reload slot after reserve", zap.Int("slot", slotNumber), zap.Error(err))
		return &domain.SlotChange{SlotNumber: slotNumber, IsReserved: true, ReservedBy: phone, VehiclePlate: plate}, nil
	}

	telemetry.SlotChangesTotal.WithLabelValues(string(domain.SourceLifecycle)).Inc()
	change := slot.Change()
	if s.notifier != nil {
		s.notifier.SlotChanged(ctx, change)
	}
	return &change, nil
}

// Snapshot returns the current state of every slot, ordered by number.
func (s *Service) Snapshot(ctx context.Context) ([]domain.Slot, error) {
	slots, err := s.slots.FindAll(ctx)
	if err != nil {
		return nil, domain.ErrTransientStore("load slots", err)
	}
	return slots, nil
}
