package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "frontdesk"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsAllocated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_allocated_total",
			Help:      "Successful room allocations by room type.",
		},
		[]string{"room_type"},
	)

	allocationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocation_failures_total",
			Help:      "Rejected booking attempts by reason.",
		},
		[]string{"reason"},
	)

	roomsReleased = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_released_total",
			Help:      "Release calls that freed a room.",
		},
	)

	occupiedRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_occupied",
			Help:      "Rooms currently booked.",
		},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_tasks_total",
			Help:      "Sheets sync tasks by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			bookingsAllocated,
			allocationFailures,
			roomsReleased,
			occupiedRooms,
			syncTasks,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncAllocated(roomType string) {
	bookingsAllocated.WithLabelValues(roomType).Inc()
}

// IncAllocationFailure counts a rejected booking. Reasons: validation, unavailable, rate_limited.
func IncAllocationFailure(reason string) {
	allocationFailures.WithLabelValues(reason).Inc()
}

func IncReleased() {
	roomsReleased.Inc()
}

func SetOccupied(n int) {
	occupiedRooms.Set(float64(n))
}

func IncSyncTask(outcome string) {
	syncTasks.WithLabelValues(outcome).Inc()
}
