package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/observability/telemetry"
	"github.com/seu-repo/upark/internal/ports"
)

// Service turns raw sensor sweeps into per-slot occupancy candidates and
// hands them to the reconciler. A single bad reading never desynchronizes
// the board: malformed payloads are logged and dropped.
type Service struct {
	reconciler ports.Reconciler
	slots      ports.SlotRepository
	log        *zap.Logger
}

func NewService(reconciler ports.Reconciler, slots ports.SlotRepository, log *zap.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		slots:      slots,
		log:        log,
	}
}

// HandleSweep processes one sensor sweep payload from the bus. Absence from
// the free list means physically occupied. Redundant sweeps are idempotent:
// the reconciler suppresses no-op deltas, so reprocessing the same payload
// produces zero additional change records.
func (s *Service) HandleSweep(ctx context.Context, payload []byte) error {
	free, err := ParseSweep(string(payload))
	if err != nil {
		telemetry.SensorSweepsTotal.WithLabelValues("malformed").Inc()
		s.log.Warn("Dropping malformed sensor payload",
			zap.ByteString("payload", payload),
			zap.Error(err),
		)
		return nil
	}

	known, err := s.slots.FindAll(ctx)
	if err != nil {
		// Let the at-least-once bus redeliver; reconciliation is idempotent.
		telemetry.SensorSweepsTotal.WithLabelValues("store_error").Inc()
		return domain.ErrTransientStore("load slots for sweep", err)
	}

	deltas := make([]domain.SlotDelta, 0, len(known))
	for _, slot := range known {
		occupied := !free[slot.SlotNumber]
		deltas = append(deltas, domain.SlotDelta{
			SlotNumber: slot.SlotNumber,
			Source:     domain.SourceHardware,
			Occupied:   domain.BoolPtr(occupied),
		})
	}

	changes := s.reconciler.ApplyBatch(ctx, deltas)
	telemetry.SensorSweepsTotal.WithLabelValues("accepted").Inc()

	s.log.Debug("Sensor sweep reconciled",
		zap.Int("free_reported", len(free)),
		zap.Int("slots", len(known)),
		zap.Int("changes", len(changes)),
	)
	return nil
}
