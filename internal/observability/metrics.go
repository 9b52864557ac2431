package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsActive tracks the number of sessions currently joined to a room.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomcast_sessions_active",
		Help: "Number of sessions currently joined to a room.",
	})

	// EventsTotal counts lifecycle events processed by the hub, by event name.
	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roomcast_events_total",
		Help: "Lifecycle events processed by the hub.",
	}, []string{"event"})

	// DeliveriesTotal counts event payloads handed to session outboxes.
	DeliveriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_deliveries_total",
		Help: "Event payloads handed to session outboxes.",
	})

	// DeliveryDropsTotal counts payloads dropped because an outbox was
	// full or closed. Delivery is fire-and-forget; drops are not retried.
	DeliveryDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomcast_delivery_drops_total",
		Help: "Event payloads dropped due to a full or closed outbox.",
	})
)

// MetricsHandler returns the Prometheus scrape handler served at /metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
