package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

var (
	natsURL       = flag.String("nats", "nats://localhost:4222", "NATS server URL")
	serverURL     = flag.String("server", "ws://localhost:8080/ws/updates", "Backend live-feed WebSocket URL")
	sweepTopic    = flag.String("sweep-topic", "upark.slot.status", "Subject for sensor sweep payloads")
	statusTopic   = flag.String("status-topic", "upark.device.status", "Subject for device status announcements")
	reservedTopic = flag.String("reserved-topic", "upark.reservation.status", "Subject the backend republishes the reserved set on")
	overrideTopic = flag.String("override-topic", "upark.admin.override", "Subject the backend sends override commands on")
	gateStatus    = flag.String("gate-status-topic", "upark.gate.status", "Subject for gate status reports")
	entryGate     = flag.String("entry-gate-topic", "upark.gate.entry.control", "Subject the backend sends entry gate commands on")
	exitGate      = flag.String("exit-gate-topic", "upark.gate.exit.control", "Subject the backend sends exit gate commands on")
	vehicleTopic  = flag.String("vehicle-topic", "upark.vehicle.status", "Subject for simulated vehicle signals")
	totalSlots    = flag.Int("slots", 12, "Number of slots on the board")
	sweepInterval = flag.Duration("interval", 5*time.Second, "Interval between sensor sweeps")
	tailFeed      = flag.Bool("tail", false, "Also tail the backend live feed over WebSocket")
	interactive   = flag.Bool("interactive", false, "Enable interactive mode")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config := &BoardConfig{
		NATSURL:         *natsURL,
		ServerURL:       *serverURL,
		SweepTopic:      *sweepTopic,
		StatusTopic:     *statusTopic,
		ReservedTopic:   *reservedTopic,
		OverrideTopic:   *overrideTopic,
		GateStatusTopic: *gateStatus,
		EntryGateTopic:  *entryGate,
		ExitGateTopic:   *exitGate,
		VehicleTopic:    *vehicleTopic,
		TotalSlots:      *totalSlots,
		SweepInterval:   *sweepInterval,
	}

	board := NewBoard(config, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down simulator...")
		board.Stop()
		os.Exit(0)
	}()

	if err := board.Connect(); err != nil {
		logger.Fatal("Failed to connect", zap.Error(err))
	}

	if *tailFeed {
		if err := board.TailLiveFeed(); err != nil {
			logger.Warn("Live feed unavailable", zap.Error(err))
		}
	}

	if *interactive {
		runInteractiveMode(board)
	} else {
		fmt.Println("Parking sensor board simulator started")
		fmt.Printf("  NATS:  %s\n", *natsURL)
		fmt.Printf("  Slots: %d\n", *totalSlots)
		fmt.Printf("  Sweep: every %s\n", *sweepInterval)
		fmt.Println("\nPress Ctrl+C to stop")

		board.RunSweepLoop()
	}
}

func runInteractiveMode(board *Board) {
	fmt.Println("\nParking Sensor Board Simulator - Interactive Mode")
	fmt.Println("=================================================")
	fmt.Println("Commands:")
	fmt.Println("  occupy <slot>    - Mark a slot as physically occupied")
	fmt.Println("  free <slot>      - Mark a slot as physically free")
	fmt.Println("  sweep            - Publish one sensor sweep now")
	fmt.Println("  full             - Publish a lot-full sweep")
	fmt.Println("  garbage          - Publish a malformed payload")
	fmt.Println("  online           - Announce the board as ONLINE")
	fmt.Println("  show             - Print the board state")
	fmt.Println("  quit             - Exit simulator")
	fmt.Println("")

	board.RunInteractive()
}
