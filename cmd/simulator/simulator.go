package main

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// BoardConfig holds the simulated sensor board configuration.
type BoardConfig struct {
	NATSURL         string
	ServerURL       string
	SweepTopic      string
	StatusTopic     string
	ReservedTopic   string
	OverrideTopic   string
	GateStatusTopic string
	EntryGateTopic  string
	ExitGateTopic   string
	VehicleTopic    string
	TotalSlots      int
	SweepInterval   time.Duration
}

// Board simulates the lot's sensor board firmware: it publishes periodic
// occupancy sweeps, announces itself ONLINE on connect, and consumes the
// reserved-set and override subjects the way the real unit does.
type Board struct {
	config *BoardConfig
	nc     *nats.Conn
	ws     *websocket.Conn
	log    *zap.Logger

	mu        sync.Mutex
	occupied  map[int]bool
	reserved  string
	entryGate string
	exitGate  string

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewBoard creates a board simulator with every slot free.
func NewBoard(config *BoardConfig, log *zap.Logger) *Board {
	return &Board{
		config:    config,
		log:       log,
		occupied:  make(map[int]bool),
		reserved:  "NONE",
		entryGate: "CLOSED",
		exitGate:  "CLOSED",
		stopChan:  make(chan struct{}),
	}
}

// Connect connects to the bus, subscribes to the backend-facing subjects and
// announces the board as ONLINE, which makes the backend resend the full
// reserved set.
func (b *Board) Connect() error {
	nc, err := nats.Connect(b.config.NATSURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	b.nc = nc

	if _, err := nc.Subscribe(b.config.ReservedTopic, func(msg *nats.Msg) {
		b.mu.Lock()
		b.reserved = string(msg.Data)
		b.mu.Unlock()
		b.log.Info("Reserved set received", zap.ByteString("payload", msg.Data))
	}); err != nil {
		return fmt.Errorf("failed to subscribe to reserved set: %w", err)
	}

	if _, err := nc.Subscribe(b.config.OverrideTopic, func(msg *nats.Msg) {
		b.log.Info("Override command received", zap.ByteString("payload", msg.Data))
		b.applyOverride(string(msg.Data))
	}); err != nil {
		return fmt.Errorf("failed to subscribe to overrides: %w", err)
	}

	if _, err := nc.Subscribe(b.config.EntryGateTopic, func(msg *nats.Msg) {
		b.applyGateCommand("ENTRY", string(msg.Data))
	}); err != nil {
		return fmt.Errorf("failed to subscribe to entry gate: %w", err)
	}
	if _, err := nc.Subscribe(b.config.ExitGateTopic, func(msg *nats.Msg) {
		b.applyGateCommand("EXIT", string(msg.Data))
	}); err != nil {
		return fmt.Errorf("failed to subscribe to exit gate: %w", err)
	}

	if _, err := nc.Subscribe(b.config.VehicleTopic, func(msg *nats.Msg) {
		b.log.Info("Vehicle signal received", zap.ByteString("payload", msg.Data))
	}); err != nil {
		return fmt.Errorf("failed to subscribe to vehicle signals: %w", err)
	}

	b.log.Info("Connected to NATS", zap.String("url", b.config.NATSURL))
	return b.AnnounceOnline()
}

// Stop closes the board's connections and waits for loops to drain.
func (b *Board) Stop() {
	b.stopOnce.Do(func() { close(b.stopChan) })
	if b.ws != nil {
		b.ws.Close()
	}
	if b.nc != nil {
		b.nc.Close()
	}
	b.wg.Wait()
}

// AnnounceOnline publishes the ONLINE status marker.
func (b *Board) AnnounceOnline() error {
	if err := b.nc.Publish(b.config.StatusTopic, []byte("ONLINE")); err != nil {
		return fmt.Errorf("failed to announce online: %w", err)
	}
	b.log.Info("Announced ONLINE", zap.String("topic", b.config.StatusTopic))
	return nil
}

// Occupy marks a slot as physically occupied.
func (b *Board) Occupy(slot int) {
	b.mu.Lock()
	b.occupied[slot] = true
	b.mu.Unlock()
}

// Free marks a slot as physically free.
func (b *Board) Free(slot int) {
	b.mu.Lock()
	delete(b.occupied, slot)
	b.mu.Unlock()
}

// SweepPayload renders the board state in the firmware's wire format: "FULL"
// when every slot is taken, otherwise a comma list of free slot numbers.
func (b *Board) SweepPayload() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	free := make([]int, 0, b.config.TotalSlots)
	for n := 1; n <= b.config.TotalSlots; n++ {
		if !b.occupied[n] {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		return "FULL"
	}

	sort.Ints(free)
	parts := make([]string, len(free))
	for i, n := range free {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// PublishSweep publishes one sensor sweep.
func (b *Board) PublishSweep() error {
	payload := b.SweepPayload()
	if err := b.nc.Publish(b.config.SweepTopic, []byte(payload)); err != nil {
		return fmt.Errorf("failed to publish sweep: %w", err)
	}
	b.log.Info("Sweep published", zap.String("payload", payload))
	return nil
}

// PublishRaw publishes an arbitrary payload on the sweep subject. Used to
// exercise the backend's malformed-signal handling.
func (b *Board) PublishRaw(payload string) error {
	return b.nc.Publish(b.config.SweepTopic, []byte(payload))
}

// RunSweepLoop publishes sweeps at the configured interval until stopped.
func (b *Board) RunSweepLoop() {
	ticker := time.NewTicker(b.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.PublishSweep(); err != nil {
				b.log.Error("Sweep failed", zap.Error(err))
			}
		}
	}
}

// TailLiveFeed connects to the backend's live viewer feed and logs every
// frame, which is handy for watching reconciliation output next to the
// sweeps that caused it.
func (b *Board) TailLiveFeed() error {
	conn, _, err := websocket.DefaultDialer.Dial(b.config.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to live feed: %w", err)
	}
	b.ws = conn

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				select {
				case <-b.stopChan:
				default:
					b.log.Error("Live feed read error", zap.Error(err))
				}
				return
			}
			b.log.Info("Live feed", zap.ByteString("frame", message))
		}
	}()

	b.log.Info("Tailing live feed", zap.String("url", b.config.ServerURL))
	return nil
}

// applyGateCommand moves the named barrier and reports the labeled status
// back, the way the firmware confirms gate movement.
func (b *Board) applyGateCommand(gate, action string) {
	action = strings.ToUpper(strings.TrimSpace(action))
	if action != "OPEN" && action != "CLOSE" {
		b.log.Warn("Ignoring unknown gate command", zap.String("gate", gate), zap.String("action", action))
		return
	}

	status := "CLOSED"
	if action == "OPEN" {
		status = "OPEN"
	}

	b.mu.Lock()
	if gate == "EXIT" {
		b.exitGate = status
	} else {
		b.entryGate = status
	}
	b.mu.Unlock()

	payload := fmt.Sprintf("%s:%s", gate, status)
	if err := b.nc.Publish(b.config.GateStatusTopic, []byte(payload)); err != nil {
		b.log.Error("Failed to report gate status", zap.Error(err))
		return
	}
	b.log.Info("Gate moved", zap.String("status", payload))
}

// applyOverride mimics the unit's reaction to a "<slot>:<STATE>" command by
// adjusting its local occupancy so the next sweep agrees with the backend.
func (b *Board) applyOverride(payload string) {
	parts := strings.SplitN(strings.TrimSpace(payload), ":", 2)
	if len(parts) != 2 {
		b.log.Warn("Ignoring malformed override", zap.String("payload", payload))
		return
	}
	slot, err := strconv.Atoi(parts[0])
	if err != nil || slot < 1 || slot > b.config.TotalSlots {
		b.log.Warn("Ignoring override for unknown slot", zap.String("payload", payload))
		return
	}

	switch strings.ToUpper(parts[1]) {
	case "OCCUPIED":
		b.Occupy(slot)
	case "AVAILABLE":
		b.Free(slot)
	}
}

// RunInteractive drives the board from stdin commands.
func (b *Board) RunInteractive() {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)

		if len(parts) == 0 {
			fmt.Print("> ")
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "occupy":
			if slot, ok := parseSlot(args, b.config.TotalSlots); ok {
				b.Occupy(slot)
				fmt.Printf("Slot %d occupied\n", slot)
			}

		case "free":
			if slot, ok := parseSlot(args, b.config.TotalSlots); ok {
				b.Free(slot)
				fmt.Printf("Slot %d freed\n", slot)
			}

		case "sweep":
			if err := b.PublishSweep(); err != nil {
				fmt.Printf("Sweep failed: %v\n", err)
			}

		case "full":
			for n := 1; n <= b.config.TotalSlots; n++ {
				b.Occupy(n)
			}
			if err := b.PublishSweep(); err != nil {
				fmt.Printf("Sweep failed: %v\n", err)
			} else {
				fmt.Println("Published FULL sweep")
			}

		case "garbage":
			if err := b.PublishRaw("1,banana,3"); err != nil {
				fmt.Printf("Publish failed: %v\n", err)
			} else {
				fmt.Println("Published malformed payload")
			}

		case "online":
			if err := b.AnnounceOnline(); err != nil {
				fmt.Printf("Announce failed: %v\n", err)
			}

		case "show":
			b.mu.Lock()
			reserved := b.reserved
			entryGate := b.entryGate
			exitGate := b.exitGate
			b.mu.Unlock()
			fmt.Printf("Sweep payload: %s\n", b.SweepPayload())
			fmt.Printf("Reserved set:  %s\n", reserved)
			fmt.Printf("Entry gate:    %s\n", entryGate)
			fmt.Printf("Exit gate:     %s\n", exitGate)

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", cmd)
		}

		fmt.Print("> ")
	}
}

func parseSlot(args []string, total int) (int, bool) {
	if len(args) < 1 {
		fmt.Println("Usage: occupy|free <slot>")
		return 0, false
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 || slot > total {
		fmt.Printf("Slot must be between 1 and %d\n", total)
		return 0, false
	}
	return slot, true
}
