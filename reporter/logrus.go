package reporter

import (
	"github.com/sirupsen/logrus"

	"github.com/zoobzio/spanz"
)

// Logrus forwards span logs to a logrus logger instead of keeping them for a
// collector. Each entry carries the span's component tag, the log's level
// and message, and its payload when present.
type Logrus struct {
	logger logrus.FieldLogger
	spanz.NopReporter
}

// NewLogrus creates a Logrus reporter.
func NewLogrus(logger logrus.FieldLogger) *Logrus {
	return &Logrus{logger: logger}
}

// Accepts implements spanz.Reporter.
func (*Logrus) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanLog: true}
}

// ReceiveSpanLog implements spanz.Reporter.
func (r *Logrus) ReceiveSpanLog(span *spanz.Span, log spanz.Log) error {
	component, ok := componentOf(span)
	if !ok {
		component = noComponent
	}
	message, _ := log.Fields[spanz.LogFieldMessage].(string)
	if message == "" {
		message = "NO-MESSAGE"
	}

	fields := logrus.Fields{
		"component": component,
		"trace_id":  span.Context().TraceID(),
		"span_id":   span.Context().SpanID(),
	}
	if payload, ok := log.Fields[spanz.LogFieldPayload]; ok {
		fields["payload"] = payload
	}
	entry := r.logger.WithFields(fields)

	level, _ := log.Level()
	switch level {
	case spanz.LevelError:
		entry.Error(message)
	case spanz.LevelWarn:
		entry.Warn(message)
	case spanz.LevelDebug:
		entry.Debug(message)
	case spanz.LevelSilly:
		entry.Trace(message)
	default:
		entry.Info(message)
	}
	return nil
}
