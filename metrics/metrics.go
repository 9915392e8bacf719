// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OrdersPlaced counts successfully persisted orders by payment method.
	OrdersPlaced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders successfully persisted, labeled by payment method.",
		},
		[]string{"method"},
	)

	// OrdersRejected counts submissions rejected before any write.
	OrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_rejected_total",
			Help: "Order submissions rejected, labeled by reason.",
		},
		[]string{"reason"},
	)

	// StreamSubscribers tracks live admin SSE connections.
	StreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_stream_subscribers",
			Help: "Currently connected admin event-stream subscribers.",
		},
	)
)

// Register adds all collectors to the given registry.
func Register(r prometheus.Registerer) {
	r.MustRegister(OrdersPlaced, OrdersRejected, StreamSubscribers)
}
