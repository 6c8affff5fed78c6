package reporter

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/zoobzio/spanz"
)

// DefaultDebugCacheSize bounds the number of per-component loggers kept.
const DefaultDebugCacheSize = 128

// Debug writes span logs to a zap logger named after the span's component
// tag. Named loggers are cached per component.
type Debug struct {
	base    *zap.Logger
	loggers *lru.Cache[string, *zap.Logger]
	spanz.NopReporter
}

// NewDebug creates a Debug reporter over base. A nil base discards output.
func NewDebug(base *zap.Logger, cacheSize int) (*Debug, error) {
	if base == nil {
		base = zap.NewNop()
	}
	if cacheSize <= 0 {
		cacheSize = DefaultDebugCacheSize
	}
	cache, err := lru.New[string, *zap.Logger](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Debug{base: base, loggers: cache}, nil
}

// Accepts implements spanz.Reporter.
func (*Debug) Accepts() spanz.Accepts {
	return spanz.Accepts{SpanLog: true}
}

func (r *Debug) logger(component string) *zap.Logger {
	if l, ok := r.loggers.Get(component); ok {
		return l
	}
	l := r.base.Named(component)
	r.loggers.Add(component, l)
	return l
}

// ReceiveSpanLog implements spanz.Reporter.
func (r *Debug) ReceiveSpanLog(span *spanz.Span, log spanz.Log) error {
	component, ok := componentOf(span)
	if !ok {
		component = noComponent
	}

	fields := make([]zap.Field, 0, len(log.Fields)+3)
	fields = append(fields,
		zap.String("trace_id", span.Context().TraceID()),
		zap.String("span_id", span.Context().SpanID()),
		zap.Time("timestamp", log.Timestamp),
	)
	for k, v := range log.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	r.logger(component).Debug(span.OperationName(), fields...)
	return nil
}

// Close flushes the base logger and forgets cached loggers.
func (r *Debug) Close() error {
	r.loggers.Purge()
	// Sync fails on stderr/stdout on some platforms; nothing to report.
	_ = r.base.Sync()
	return nil
}
