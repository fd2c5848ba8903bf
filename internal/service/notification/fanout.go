package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/seu-repo/upark/internal/adapter/queue"
	"github.com/seu-repo/upark/internal/domain"
	"github.com/seu-repo/upark/internal/observability/telemetry"
	"github.com/seu-repo/upark/internal/ports"
)

// NoReservedMarker is sent to the hardware unit when no slot is reserved.
const NoReservedMarker = "NONE"

// DeviceOnlineMarker is the device-status payload announcing the unit is up.
const DeviceOnlineMarker = "ONLINE"

// Topics names the bus subjects the fan-out publishes to. GateControl is the
// single-gate subject older firmware listens on; newer boards use the
// per-gate subjects.
type Topics struct {
	ReservationStatus string
	AdminOverride     string
	GateControl       string
	EntryGateControl  string
	ExitGateControl   string
	VehicleStatus     string
}

// GateUpdate is the live-feed record for a gate status report.
type GateUpdate struct {
	Type   string      `json:"type"`
	Gate   domain.Gate `json:"gate"`
	Status string      `json:"status"`
}

// Fanout derives both observer feeds from accepted reconciler output: the
// live-viewer broadcast and the hardware reserved-set republish. It never
// reads raw inputs. Notification failure is logged, never surfaced as a
// state-change failure.
type Fanout struct {
	live   ports.LivePublisher
	mq     queue.MessageQueue
	slots  ports.SlotRepository
	topics Topics
	log    *zap.Logger

	mu       sync.Mutex
	reserved map[int]bool
}

func NewFanout(live ports.LivePublisher, mq queue.MessageQueue, slots ports.SlotRepository, topics Topics, log *zap.Logger) *Fanout {
	return &Fanout{
		live:     live,
		mq:       mq,
		slots:    slots,
		topics:   topics,
		log:      log,
		reserved: make(map[int]bool),
	}
}

// SlotChanged broadcasts one accepted change record to live viewers and,
// when the reserved set changed, resends the full set to the hardware unit.
func (f *Fanout) SlotChanged(ctx context.Context, change domain.SlotChange) {
	payload, err := json.Marshal(change)
	if err != nil {
		f.log.Error("Failed to encode slot change", zap.Int("slot", change.SlotNumber), zap.Error(err))
		return
	}
	if f.live != nil {
		f.live.Broadcast(payload)
		telemetry.LiveBroadcastsTotal.Inc()
	}

	f.mu.Lock()
	prev, seen := f.reserved[change.SlotNumber]
	f.reserved[change.SlotNumber] = change.IsReserved
	f.mu.Unlock()

	if !seen || prev != change.IsReserved {
		f.RepublishReservedSet(ctx)
	}
}

// RepublishReservedSet sends the full current reserved set to the hardware
// unit. The unit has no persistent memory of reservations, so this is always
// a complete resend, never a delta.
func (f *Fanout) RepublishReservedSet(ctx context.Context) {
	numbers, err := f.slots.ReservedNumbers(ctx)
	if err != nil {
		f.log.Error("Failed to load reserved set for republish", zap.Error(err))
		return
	}

	payload := NoReservedMarker
	if len(numbers) > 0 {
		sort.Ints(numbers)
		parts := make([]string, len(numbers))
		for i, n := range numbers {
			parts[i] = strconv.Itoa(n)
		}
		payload = strings.Join(parts, ",")
	}

	if err := f.mq.Publish(f.topics.ReservationStatus, []byte(payload)); err != nil {
		f.log.Error("Failed to republish reserved set", zap.String("payload", payload), zap.Error(err))
		return
	}

	f.mu.Lock()
	for n := range f.reserved {
		f.reserved[n] = false
	}
	for _, n := range numbers {
		f.reserved[n] = true
	}
	f.mu.Unlock()

	telemetry.ReservedSetRepublishTotal.Inc()
	f.log.Info("Reserved set republished", zap.String("payload", payload))
}

// HandleDeviceStatus reacts to the unit's status announcements. On reconnect
// the unit starts from scratch, so the reserved set is resent immediately.
func (f *Fanout) HandleDeviceStatus(ctx context.Context, payload []byte) error {
	status := strings.TrimSpace(string(payload))
	f.log.Info("Hardware unit status", zap.String("status", status))

	if status == DeviceOnlineMarker {
		f.RepublishReservedSet(ctx)
	}
	return nil
}

// HandleGateStatus relays a gate status report to live viewers. Newer
// firmware labels the gate ("ENTRY:OPEN", "EXIT:CLOSED"); older boards send
// a bare status for the single entry gate.
func (f *Fanout) HandleGateStatus(ctx context.Context, payload []byte) error {
	status := strings.TrimSpace(string(payload))
	if status == "" {
		return nil
	}

	gate := domain.GateEntry
	switch {
	case strings.HasPrefix(status, "ENTRY:"):
		status = strings.TrimPrefix(status, "ENTRY:")
	case strings.HasPrefix(status, "EXIT:"):
		gate = domain.GateExit
		status = strings.TrimPrefix(status, "EXIT:")
	}

	data, err := json.Marshal(GateUpdate{Type: "gate", Gate: gate, Status: status})
	if err != nil {
		f.log.Error("Failed to encode gate update", zap.String("status", status), zap.Error(err))
		return nil
	}
	if f.live != nil {
		f.live.Broadcast(data)
		telemetry.LiveBroadcastsTotal.Inc()
	}
	f.log.Info("Gate status relayed", zap.String("gate", string(gate)), zap.String("status", status))
	return nil
}

// PublishGateCommand sends an open/close command to one of the barrier
// gates. Entry commands also go out on the legacy single-gate subject so
// older firmware keeps working.
func (f *Fanout) PublishGateCommand(ctx context.Context, gate domain.Gate, action domain.GateAction) error {
	topic := f.topics.EntryGateControl
	if gate == domain.GateExit {
		topic = f.topics.ExitGateControl
	}
	if err := f.mq.Publish(topic, []byte(action)); err != nil {
		return fmt.Errorf("publish gate command: %w", err)
	}
	if gate == domain.GateEntry && f.topics.GateControl != "" {
		if err := f.mq.Publish(f.topics.GateControl, []byte(action)); err != nil {
			f.log.Warn("Failed to publish legacy gate command", zap.Error(err))
		}
	}
	f.log.Info("Gate command sent", zap.String("gate", string(gate)), zap.String("action", string(action)))
	return nil
}

// PublishVehicleSignal forwards a simulated vehicle presence signal to the
// hardware unit, as if a car had rolled onto the gate sensor.
func (f *Fanout) PublishVehicleSignal(ctx context.Context, status string) error {
	if err := f.mq.Publish(f.topics.VehicleStatus, []byte(status)); err != nil {
		return fmt.Errorf("publish vehicle signal: %w", err)
	}
	f.log.Info("Vehicle signal sent", zap.String("status", status))
	return nil
}

// PublishOverrideCommand sends the directed override command to the hardware
// unit after an accepted admin override.
func (f *Fanout) PublishOverrideCommand(ctx context.Context, slotNumber int, state domain.SlotState) error {
	payload := fmt.Sprintf("%d:%s", slotNumber, state)
	if err := f.mq.Publish(f.topics.AdminOverride, []byte(payload)); err != nil {
		return fmt.Errorf("publish override command: %w", err)
	}
	f.log.Info("Override command sent", zap.String("payload", payload))
	return nil
}
