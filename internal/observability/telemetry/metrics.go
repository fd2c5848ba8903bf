package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	ActiveReservations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "upark_active_reservations",
		Help: "Number of reservations currently holding a slot",
	})

	ReservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upark_reservations_total",
		Help: "Reservation lifecycle transitions",
	}, []string{"transition"})

	PaymentAmountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upark_payment_amount_total",
		Help: "Total amount collected from completed payments",
	})

	// Reconciliation metrics
	SlotChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upark_slot_changes_total",
		Help: "Accepted slot state changes by delta source",
	}, []string{"source"})

	SuppressedDeltasTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upark_suppressed_deltas_total",
		Help: "No-op slot deltas suppressed by the reconciler",
	}, []string{"source"})

	ReconcileLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "upark_reconcile_latency_seconds",
		Help:    "Latency of a single delta reconciliation",
		Buckets: prometheus.DefBuckets,
	})

	// Hardware signal metrics
	SensorSweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "upark_sensor_sweeps_total",
		Help: "Inbound hardware sweeps by outcome",
	}, []string{"outcome"})

	ReservedSetRepublishTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upark_reserved_set_republish_total",
		Help: "Full reserved-set republishes sent to the hardware unit",
	})

	LiveBroadcastsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "upark_live_broadcasts_total",
		Help: "Slot change records broadcast to live viewers",
	})
)
