package spanz

import (
	"maps"
	"time"
)

// Log is one timestamped entry of a span's log.
type Log struct {
	Fields    map[string]any `json:"fields"`
	Timestamp time.Time      `json:"timestamp"`
}

// Level returns the log's declared level, if it has one.
func (l Log) Level() (LogLevel, bool) {
	switch v := l.Fields[LogFieldLevel].(type) {
	case LogLevel:
		return v, true
	case string:
		return LogLevel(v), true
	default:
		return "", false
	}
}

// Span represents a single traced operation.
// Spans are created by a Tracer and are NOT thread-safe - do not modify
// from multiple goroutines.
//
// Reporters may keep a span after Finish, e.g. for batching.
type Span struct {
	tracer        *Tracer
	context       *SpanContext
	tags          map[Tag]any
	references    []Reference
	logs          []Log
	startTime     time.Time
	finishTime    time.Time
	operationName string
}

// Tracer returns the tracer that created the span.
func (s *Span) Tracer() *Tracer {
	return s.tracer
}

// Context returns the span's identity.
func (s *Span) Context() *SpanContext {
	return s.context
}

// Start sets the start time. A zero time means now.
func (s *Span) Start(at time.Time) {
	if at.IsZero() {
		at = s.tracer.now()
	}
	s.startTime = at
}

// StartTime returns when the span started.
func (s *Span) StartTime() time.Time {
	return s.startTime
}

// FinishTime returns when the span finished, or the zero time.
func (s *Span) FinishTime() time.Time {
	return s.finishTime
}

// Finished reports whether Finish has been called.
func (s *Span) Finished() bool {
	return !s.finishTime.IsZero()
}

// AddReference appends a reference. No dedup is performed.
func (s *Span) AddReference(ref Reference) {
	s.references = append(s.references, ref)
}

// References returns a copy of the span's references.
func (s *Span) References() []Reference {
	return append([]Reference(nil), s.references...)
}

// SetOperationName renames the span.
func (s *Span) SetOperationName(name Key) {
	s.operationName = name
}

// OperationName returns the span's operation name.
func (s *Span) OperationName() Key {
	return s.operationName
}

// Tag returns the tag value for key.
func (s *Span) Tag(key Tag) (any, bool) {
	v, ok := s.tags[key]
	return v, ok
}

// SetTag sets a single tag.
func (s *Span) SetTag(key Tag, value any) {
	if s.tags == nil {
		s.tags = make(map[Tag]any)
	}
	s.tags[key] = value
}

// AddTags merges tags into the span. Last write wins on key collision.
func (s *Span) AddTags(tags map[Tag]any) {
	if len(tags) == 0 {
		return
	}
	if s.tags == nil {
		s.tags = make(map[Tag]any, len(tags))
	}
	maps.Copy(s.tags, tags)
}

// Log appends a log entry stamped with the current time and notifies
// reporters accepting span logs.
func (s *Span) Log(fields map[string]any) {
	s.LogAt(fields, time.Time{})
}

// LogAt appends a log entry with an explicit timestamp. A zero time means now.
func (s *Span) LogAt(fields map[string]any, at time.Time) {
	if at.IsZero() {
		at = s.tracer.now()
	}
	entry := Log{Fields: maps.Clone(fields), Timestamp: at}
	if entry.Fields == nil {
		entry.Fields = make(map[string]any)
	}
	s.logs = append(s.logs, entry)
	s.tracer.dispatchLog(s, entry)
}

// Logger returns leveled logging sugar writing into the span's log.
func (s *Span) Logger() SpanLogger {
	return SpanLogger{span: s}
}

// Finish sets the finish time to now and notifies reporters accepting span
// finishes. Calling Finish again overwrites the finish time.
func (s *Span) Finish() {
	s.FinishAt(time.Time{})
}

// FinishAt finishes the span at an explicit time. A zero time means now.
func (s *Span) FinishAt(at time.Time) {
	if at.IsZero() {
		at = s.tracer.now()
	}
	s.finishTime = at
	s.tracer.dispatchFinish(s)
}

// Snapshot is a complete, serialization-ready copy of a span. Wire formats
// depend on snapshots only, never on the live span.
type Snapshot struct {
	StartTime     time.Time           `json:"startTime"`
	FinishTime    time.Time           `json:"finishTime"`
	Tags          map[Tag]any         `json:"tags"`
	Context       ContextSnapshot     `json:"context"`
	OperationName string              `json:"operationName"`
	References    []ReferenceSnapshot `json:"references"`
	Logs          []Log               `json:"logs"`
}

// Duration returns the time between start and finish.
func (s Snapshot) Duration() time.Duration {
	if s.FinishTime.IsZero() {
		return 0
	}
	return s.FinishTime.Sub(s.StartTime)
}

// Snapshot copies the span's current state.
func (s *Span) Snapshot() Snapshot {
	snap := Snapshot{
		Context:       s.context.Snapshot(),
		OperationName: s.operationName,
		StartTime:     s.startTime,
		FinishTime:    s.finishTime,
		References:    make([]ReferenceSnapshot, 0, len(s.references)),
		Tags:          maps.Clone(s.tags),
		Logs:          make([]Log, 0, len(s.logs)),
	}
	if snap.Tags == nil {
		snap.Tags = make(map[Tag]any)
	}
	for _, ref := range s.references {
		rs := ReferenceSnapshot{Type: ref.Type}
		if ref.Context != nil {
			rs.Context = ref.Context.Snapshot()
		}
		snap.References = append(snap.References, rs)
	}
	for _, l := range s.logs {
		snap.Logs = append(snap.Logs, Log{Fields: maps.Clone(l.Fields), Timestamp: l.Timestamp})
	}
	return snap
}
