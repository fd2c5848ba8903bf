package admin

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/ports"
	"github.com/seu-repo/upark/internal/service/reconcile"
)

// CommandPublisher sends directed operator commands to the hardware unit.
type CommandPublisher interface {
	PublishOverrideCommand(ctx context.Context, slotNumber int, state domain.SlotState) error
	PublishGateCommand(ctx context.Context, gate domain.Gate, action domain.GateAction) error
	PublishVehicleSignal(ctx context.Context, status string) error
}

// Service implements AdminService. Overrides go through the reconciler like
// every other writer; the admin path gets no private access to slot state.
type Service struct {
	reconciler ports.Reconciler
	publisher  CommandPublisher
	log        *zap.Logger
}

// NewService creates a new admin service
func NewService(reconciler ports.Reconciler, publisher CommandPublisher, log *zap.Logger) *Service {
	return &Service{
		reconciler: reconciler,
		publisher:  publisher,
		log:        log,
	}
}

// OverrideSlot forces a slot into the given state and pins it against
// hardware corrections until the next reservation or admin event touches it.
func (s *Service) OverrideSlot(ctx context.Context, slotNumber int, state domain.SlotState) (*domain.SlotChange, error) {
	delta, ok := reconcile.OverrideDelta(slotNumber, state)
	if !ok {
		return nil, domain.ErrValidation("invalid override state: %q", state)
	}

	change, err := s.reconciler.Apply(ctx, delta)
	if err != nil {
		return nil, err
	}

	// The hardware command goes out even when the stored state already
	// matched; the unit's display may still disagree with the store.
	if s.publisher != nil {
		if perr := s.publisher.PublishOverrideCommand(ctx, slotNumber, state); perr != nil {
			s.log.Error("Failed to publish override command",
				zap.Int("slot", slotNumber),
				zap.String("state", string(state)),
				zap.Error(perr),
			)
		}
	}

	s.log.Info("Slot override applied",
		zap.Int("slot", slotNumber),
		zap.String("state", string(state)),
		zap.Bool("changed", change != nil),
	)
	return change, nil
}

// ControlGate commands a barrier gate open or closed. Unlike an override
// there is no stored state; the command itself is the action, so a publish
// failure is the caller's failure.
func (s *Service) ControlGate(ctx context.Context, gate domain.Gate, action domain.GateAction) error {
	if gate != domain.GateEntry && gate != domain.GateExit {
		return domain.ErrValidation("unknown gate: %q", gate)
	}
	if action != domain.GateActionOpen && action != domain.GateActionClose {
		return domain.ErrValidation("unknown gate action: %q", action)
	}

	if err := s.publisher.PublishGateCommand(ctx, gate, action); err != nil {
		return err
	}

	s.log.Info("Gate command issued",
		zap.String("gate", string(gate)),
		zap.String("action", string(action)),
	)
	return nil
}

// SimulateVehicle forwards a vehicle presence signal to the hardware unit,
// used to exercise the gate loop without a car on the sensor.
func (s *Service) SimulateVehicle(ctx context.Context, status string) error {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status == "" {
		return domain.ErrValidation("vehicle status required")
	}
	return s.publisher.PublishVehicleSignal(ctx, status)
}

// Dashboard aggregates the lot's current state for the operator console.
func (s *Service) Dashboard(ctx context.Context) (*ports.DashboardStats, error) {
	slots, err := s.reconciler.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ports.DashboardStats{TotalSlots: len(slots)}
	for _, slot := range slots {
		switch {
		case slot.IsOccupied:
			stats.Occupied++
		case slot.IsReserved:
			stats.Reserved++
		default:
			stats.Available++
		}
		if slot.Pinned {
			stats.Pinned++
		}
	}

	return stats, nil
}
