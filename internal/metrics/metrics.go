package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "loom"

// Exchange outcomes.
const (
	OutcomeOK            = "ok"
	OutcomeTransport     = "transport_error"
	OutcomeProtocol      = "protocol_error"
	OutcomeEncodeFailure = "encode_error"
)

type Metrics struct {
	droppedFields    *prometheus.CounterVec
	acceptedFields   *prometheus.CounterVec
	exchanges        *prometheus.CounterVec
	exchangeDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. Passing prometheus.NewRegistry() keeps
// tests isolated from the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		droppedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fields",
			Name:      "dropped_total",
			Help:      "Submitted plugin fields that were neither overridable admin fields nor user fields.",
		}, []string{"plugin"}),
		acceptedFields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fields",
			Name:      "accepted_total",
			Help:      "Submitted plugin fields that were accepted, by sensitivity.",
		}, []string{"plugin", "sensitivity"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "exchanges_total",
			Help:      "Task documents exchanged with provisioner workers, by outcome.",
		}, []string{"outcome"}),
		exchangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "task",
			Name:      "exchange_duration_seconds",
			Help:      "Time spent waiting for provisioner workers.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 8),
		}),
	}
	reg.MustRegister(m.droppedFields, m.acceptedFields, m.exchanges, m.exchangeDuration)
	return m
}

func (m *Metrics) FieldsGrouped(pluginID string, sensitive, nonsensitive, dropped int) {
	m.acceptedFields.WithLabelValues(pluginID, "sensitive").Add(float64(sensitive))
	m.acceptedFields.WithLabelValues(pluginID, "nonsensitive").Add(float64(nonsensitive))
	m.droppedFields.WithLabelValues(pluginID).Add(float64(dropped))
}

func (m *Metrics) Exchanged(outcome string, d time.Duration) {
	m.exchanges.WithLabelValues(outcome).Inc()
	m.exchangeDuration.Observe(d.Seconds())
}
