package reporter

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zoobzio/spanz"
)

const metricsNamespace = "spanz"

// Metrics counts span events and observes span durations. Register the
// collectors returned by Collectors with a prometheus registry.
type Metrics struct {
	SpansCreated  prometheus.Counter
	SpanLogs      *prometheus.CounterVec
	SpansFinished prometheus.Counter
	SpanDuration  *prometheus.HistogramVec
	spanz.NopReporter
}

// NewMetrics creates a Metrics reporter with unregistered collectors.
func NewMetrics() *Metrics {
	subsystem := "tracer"

	return &Metrics{
		SpansCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "spans_created_total",
			Help:      "Number of spans started.",
		}),
		SpanLogs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "span_logs_total",
			Help:      "Number of span log entries by level.",
		}, []string{"level"}),
		SpansFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "spans_finished_total",
			Help:      "Number of spans finished.",
		}),
		SpanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "span_duration_seconds",
			Help:      "Span duration in seconds by component.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"component"}),
	}
}

// Collectors returns the prometheus collectors to register.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.SpansCreated, m.SpanLogs, m.SpansFinished, m.SpanDuration}
}

// Accepts implements spanz.Reporter.
func (*Metrics) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanCreate: true, SpanLog: true, SpanFinish: true}
}

// ReceiveSpanCreate implements spanz.Reporter.
func (m *Metrics) ReceiveSpanCreate(*spanz.Span) error {
	m.SpansCreated.Inc()
	return nil
}

// ReceiveSpanLog implements spanz.Reporter.
func (m *Metrics) ReceiveSpanLog(_ *spanz.Span, log spanz.Log) error {
	level, ok := log.Level()
	if !ok {
		level = "none"
	}
	m.SpanLogs.WithLabelValues(string(level)).Inc()
	return nil
}

// ReceiveSpanFinish implements spanz.Reporter.
func (m *Metrics) ReceiveSpanFinish(span *spanz.Span) error {
	m.SpansFinished.Inc()
	component, ok := componentOf(span)
	if !ok {
		component = noComponent
	}
	m.SpanDuration.WithLabelValues(component).Observe(span.FinishTime().Sub(span.StartTime()).Seconds())
	return nil
}
