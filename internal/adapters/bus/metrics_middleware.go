// MetricsMiddleware mirrors IANDYI-care-service's metrics.go
// (http_requests_total / http_request_duration_seconds) at the bus
// dispatch layer instead of the raw http.Handler layer, labeling by message
// type rather than path+method.
package bus

import (
	"context"
	"time"

	"github.com/IANDYI/authguard/internal/core/domain"
	"github.com/IANDYI/authguard/internal/core/ports"
	"github.com/IANDYI/authguard/internal/core/result"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_dispatch_total",
			Help: "Total number of messages dispatched through the command/query bus",
		},
		[]string{"message_type", "outcome"},
	)

	busDispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bus_dispatch_duration_seconds",
			Help:    "Duration of bus dispatch by message type",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"message_type"},
	)
)

func MetricsMiddleware() ports.Middleware {
	return func(next ports.Handler) ports.Handler {
		return ports.HandlerFunc(func(ctx context.Context, rc *domain.RequestContext, msg ports.Message) result.Result[any] {
			start := time.Now()
			out := next.Handle(ctx, rc, msg)
			duration := time.Since(start).Seconds()

			outcome := "ok"
			if out.IsErr() {
				outcome = string(out.Error().Kind)
			}
			busDispatchTotal.WithLabelValues(msg.MessageType(), outcome).Inc()
			busDispatchDuration.WithLabelValues(msg.MessageType()).Observe(duration)
			return out
		})
	}
}
