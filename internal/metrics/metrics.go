package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Outbound transfers
	// ============================================
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transfers_total",
			Help: "Total number of executed transfers by asset and final status",
		},
		[]string{"asset", "status"},
	)

	TransferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_transfer_duration_seconds",
			Help:    "Transfer execution duration from lock acquisition to final status",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 180},
		},
		[]string{"asset"},
	)

	NonceLockWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wallet_nonce_lock_wait_seconds",
		Help:    "Time spent waiting for a sender's nonce lock",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	NonceLocks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_nonce_locks",
		Help: "Number of distinct sender addresses with a nonce lock",
	})

	// ============================================
	// Inbound validation
	// ============================================
	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_validations_total",
			Help: "Total number of transaction validations by outcome",
		},
		[]string{"outcome"},
	)

	// ============================================
	// Events
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_events_published_total",
			Help: "Total number of lifecycle events published",
		},
		[]string{"sink", "event_type"},
	)

	EventsPublishFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_events_publish_failed_total",
			Help: "Total number of lifecycle events that failed to publish",
		},
		[]string{"sink", "event_type"},
	)

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wallet_websocket_connections",
		Help: "Number of connected WebSocket clients",
	})

	// ============================================
	// HTTP
	// ============================================
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wallet_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
