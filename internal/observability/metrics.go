package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway
type Metrics struct {
	// --- Order lifecycle ---
	OrdersSubmitted    *prometheus.CounterVec
	OrdersCancelled    prometheus.Counter
	OrdersFinalized    prometheus.Counter
	CancelRejections   *prometheus.CounterVec
	DecreasesForwarded prometheus.Counter
	PendingOrders      prometheus.Gauge

	// --- Ledger ---
	Deposits        prometheus.Counter
	Withdrawals     prometheus.Counter
	EscrowedTotal   prometheus.Gauge
	JournalsApplied *prometheus.CounterVec

	// --- Venue boundary ---
	VenueCallDuration *prometheus.HistogramVec
	VenueCallErrors   *prometheus.CounterVec

	// --- Persistence ---
	PersistEventsWritten   prometheus.Counter
	PersistJournalsWritten prometheus.Counter
	PersistBatchSize       prometheus.Histogram
	PersistBatchDur        prometheus.Histogram
	PersistErrors          *prometheus.CounterVec

	// --- Notifications ---
	NotifyPublished prometheus.Counter
	NotifyDropped   prometheus.Counter

	// --- HTTP API ---
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all gateway metrics
func NewMetrics() *Metrics {
	venueBuckets := []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	httpBuckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}

	return &Metrics{
		OrdersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_orders_submitted_total",
			Help: "Increase orders submitted to the venue",
		}, []string{"index_asset", "direction"}),

		OrdersCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_orders_cancelled_total",
			Help: "Orders cancelled with escrow refunded",
		}),

		OrdersFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_orders_finalized_total",
			Help: "Orders found executed during cancellation; escrow consumed",
		}),

		CancelRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_cancel_rejections_total",
			Help: "Cancellation attempts rejected before reaching the venue",
		}, []string{"reason"}),

		DecreasesForwarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_decreases_forwarded_total",
			Help: "Decrease requests forwarded to the venue",
		}),

		PendingOrders: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_pending_orders",
			Help: "Orders in Submitted state",
		}),

		Deposits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_deposits_total",
			Help: "Margin deposits applied",
		}),

		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_withdrawals_total",
			Help: "Margin withdrawals applied",
		}),

		EscrowedTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_escrowed_total",
			Help: "Sum of escrowed margin across users, settlement minor units",
		}),

		JournalsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_journals_applied_total",
			Help: "Journal entries applied to the ledger",
		}, []string{"journal_type"}),

		VenueCallDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_venue_call_duration_seconds",
			Help:    "Venue call latency",
			Buckets: venueBuckets,
		}, []string{"method"}),

		VenueCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_venue_call_errors_total",
			Help: "Venue call failures",
		}, []string{"method"}),

		PersistEventsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_persist_events_written_total",
			Help: "Events written to Postgres",
		}),

		PersistJournalsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_persist_journals_written_total",
			Help: "Journal entries written to Postgres",
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_persist_batch_size",
			Help:    "Events per flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_persist_errors_total",
			Help: "Persistence errors",
		}, []string{"error_type"}),

		NotifyPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_notify_published_total",
			Help: "Notifications published to NATS",
		}),

		NotifyDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_notify_dropped_total",
			Help: "Notifications dropped due to full channel",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "HTTP requests",
		}, []string{"method", "path", "status"}),

		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gateway_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: httpBuckets,
		}, []string{"method", "path"}),
	}
}
