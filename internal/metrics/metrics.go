package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseflow_events_ingested_total",
		Help: "Ledger events folded into the buffers, labelled by channel.",
	}, []string{"channel"})

	EventsEvicted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseflow_events_evicted_total",
		Help: "Events pushed out of a full buffer, labelled by buffer.",
	}, []string{"buffer"})

	BatchesMalformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseflow_batches_malformed_total",
		Help: "Delivered messages that could not be decoded, labelled by channel.",
	}, []string{"channel"})

	CommandsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "baseflow_commands_total",
		Help: "Ledger write commands, labelled by command and status.",
	}, []string{"command", "status"})

	CommandsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "baseflow_commands_in_flight",
		Help: "Ledger write commands currently awaiting resolution.",
	})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "baseflow_command_duration_ms",
		Help:    "Ledger write command latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"command"})

	SnapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "baseflow_snapshots_published_total",
		Help: "Snapshots written to the shared store.",
	})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "baseflow_websocket_clients",
		Help: "Connected websocket clients.",
	})
)
