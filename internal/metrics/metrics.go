package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carpool_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_booking_transitions_total",
			Help: "Booking status transitions by target status",
		},
		[]string{"status"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_payments_total",
			Help: "Payments by method and resulting status",
		},
		[]string{"method", "status"},
	)

	EscrowTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_escrow_transitions_total",
			Help: "Escrow transitions by outcome",
		},
		[]string{"outcome"},
	)

	EscrowAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_escrow_amount_total",
			Help: "Money moved out of escrow by destination",
		},
		[]string{"destination"},
	)

	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_ledger_entries_total",
			Help: "Wallet ledger entries by type",
		},
		[]string{"type"},
	)

	ProviderFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_provider_failures_total",
			Help: "Payment provider failures by operation",
		},
		[]string{"operation"},
	)

	EscrowLeftHeldTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "carpool_escrow_left_held_total",
			Help: "Cancellations that left a held escrow for manual resolution",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carpool_notifications_total",
			Help: "Notifications by type and outcome",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "carpool_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordPayment(method, status string) {
	PaymentsTotal.WithLabelValues(method, status).Inc()
}

// RecordEscrow counts one escrow transition and adds each non-zero split
// (driver, commission, refund, penalty) to the amount counter.
func RecordEscrow(outcome string, amounts map[string]int64) {
	EscrowTransitionsTotal.WithLabelValues(outcome).Inc()
	for dest, amount := range amounts {
		if amount > 0 {
			EscrowAmountTotal.WithLabelValues(dest).Add(float64(amount))
		}
	}
}

func RecordLedgerEntry(txType string) {
	LedgerEntriesTotal.WithLabelValues(txType).Inc()
}

func RecordProviderFailure(operation string) {
	ProviderFailuresTotal.WithLabelValues(operation).Inc()
}

func RecordEscrowLeftHeld() {
	EscrowLeftHeldTotal.Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
