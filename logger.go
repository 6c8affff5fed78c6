package spanz

// Log field keys written by SpanLogger.
const (
	LogFieldLevel   = "level"
	LogFieldMessage = "message"
	LogFieldPayload = "payload"
	LogFieldEvent   = "event"
)

// LogLevel is the severity of a span log written through SpanLogger.
type LogLevel string

// Log levels, most severe first.
const (
	LevelError LogLevel = "error"
	LevelWarn  LogLevel = "warn"
	LevelInfo  LogLevel = "info"
	LevelDebug LogLevel = "debug"
	LevelSilly LogLevel = "silly"
)

var levelPriority = map[LogLevel]int{
	LevelError: 0,
	LevelWarn:  1,
	LevelInfo:  2,
	LevelDebug: 3,
	LevelSilly: 4,
}

// Priority returns the level's rank: lower is more severe.
// The second result is false for unknown levels.
func (l LogLevel) Priority() (int, bool) {
	p, ok := levelPriority[l]
	return p, ok
}

// AtLeast reports whether l is as severe as threshold or more.
// Unknown levels never pass.
func (l LogLevel) AtLeast(threshold LogLevel) bool {
	p, ok := l.Priority()
	if !ok {
		return false
	}
	tp, ok := threshold.Priority()
	if !ok {
		return false
	}
	return p <= tp
}

// SpanLogger is leveled sugar over Span.Log.
type SpanLogger struct {
	span *Span
}

func (l SpanLogger) log(level LogLevel, message string, payload any, extra map[string]any) {
	fields := map[string]any{
		LogFieldLevel:   level,
		LogFieldMessage: message,
	}
	if payload != nil {
		fields[LogFieldPayload] = payload
	}
	for k, v := range extra {
		fields[k] = v
	}
	l.span.Log(fields)
}

// Error logs at error level and marks the entry as an error event.
func (l SpanLogger) Error(message string, payload any) {
	l.log(LevelError, message, payload, map[string]any{LogFieldEvent: "error"})
}

// Warn logs at warn level.
func (l SpanLogger) Warn(message string, payload any) {
	l.log(LevelWarn, message, payload, nil)
}

// Info logs at info level.
func (l SpanLogger) Info(message string, payload any) {
	l.log(LevelInfo, message, payload, nil)
}

// Debug logs at debug level.
func (l SpanLogger) Debug(message string, payload any) {
	l.log(LevelDebug, message, payload, nil)
}

// Silly logs at the most verbose level.
func (l SpanLogger) Silly(message string, payload any) {
	l.log(LevelSilly, message, payload, nil)
}
