// Package metrics exposes Prometheus counters for the sale lifecycle.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dapur/internal/domain/notify"
)

// Sink counts lifecycle events.
type Sink struct {
	salesCommitted *prometheus.CounterVec
	salesRejected  prometheus.Counter
	lowStockAlerts prometheus.Counter
}

var _ notify.Sink = (*Sink)(nil)

// NewSink registers the counters with the default registry.
func NewSink() *Sink {
	return &Sink{
		salesCommitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dapur",
			Subsystem: "sales",
			Name:      "committed_total",
			Help:      "Number of committed sale operations by kind.",
		}, []string{"operation"}),
		salesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "dapur",
			Subsystem: "sales",
			Name:      "rejected_total",
			Help:      "Number of sale operations rejected for insufficient stock.",
		}),
		lowStockAlerts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "dapur",
			Subsystem: "inventory",
			Name:      "low_stock_alerts_total",
			Help:      "Number of low-stock threshold crossings.",
		}),
	}
}

func (s *Sink) SaleCommitted(_ context.Context, e notify.SaleEvent) {
	s.salesCommitted.WithLabelValues(e.Operation).Inc()
}

func (s *Sink) SaleRejected(_ context.Context, _ notify.RejectionEvent) {
	s.salesRejected.Inc()
}

func (s *Sink) LowStock(_ context.Context, _ notify.LowStockEvent) {
	s.lowStockAlerts.Inc()
}
