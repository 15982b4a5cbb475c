package surfel

import (
	"fmt"
	"sync"
)

// FieldKind tags the scalar type carried by a Field (spec.md §9
// "logger templating" design note: a tagged-variant rather than
// per-type virtual dispatch).
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldUint
	FieldFloat
	FieldDouble
	FieldString
)

// Field is one named, typed value in a structured log record.
type Field struct {
	Name string
	Kind FieldKind
	I    int64
	U    uint64
	F    float32
	D    float64
	S    string
}

// IntField, UintField, FloatField, DoubleField and StringField
// construct a Field of the matching FieldKind.
func IntField(name string, v int64) Field { return Field{Name: name, Kind: FieldInt, I: v} }
func UintField(name string, v uint64) Field { return Field{Name: name, Kind: FieldUint, U: v} }
func FloatField(name string, v float32) Field { return Field{Name: name, Kind: FieldFloat, F: v} }
func DoubleField(name string, v float64) Field { return Field{Name: name, Kind: FieldDouble, D: v} }
func StringField(name string, v string) Field { return Field{Name: name, Kind: FieldString, S: v} }

func (f Field) String() string {
	switch f.Kind {
	case FieldInt:
		return fmt.Sprintf("%s=%d", f.Name, f.I)
	case FieldUint:
		return fmt.Sprintf("%s=%d", f.Name, f.U)
	case FieldFloat:
		return fmt.Sprintf("%s=%g", f.Name, f.F)
	case FieldDouble:
		return fmt.Sprintf("%s=%g", f.Name, f.D)
	case FieldString:
		return fmt.Sprintf("%s=%q", f.Name, f.S)
	default:
		return f.Name
	}
}

// LogRecord is one append-only per-frame record (spec.md §4.7).
type LogRecord struct {
	Frame  int64
	Fields []Field
}

// LogSink receives completed log records. logstore.Store implements
// this for durable persistence; the default Logger also works with no
// sink at all (records are then kept only in its in-memory ring).
type LogSink interface {
	WriteRecord(LogRecord) error
}

// Logger is the structured, append-only per-frame logger (spec.md §4.7,
// §5 "not in the correctness path"). It has a single stream of
// tagged-field per-frame records, keeps the most recent ones in memory,
// and optionally forwards each record to a durable LogSink.
type Logger struct {
	mu         sync.Mutex
	enabled    bool
	sink       LogSink
	frame      int64
	records    []LogRecord // in-memory ring for the most recent frames
	maxRecords int
	warnOnce   sync.Once
	warnFn     func(string)
}

// NewLogger creates a Logger. enabled mirrors Config.Logging; sink may
// be nil.
func NewLogger(enabled bool, sink LogSink) *Logger {
	return &Logger{enabled: enabled, sink: sink, maxRecords: 1000, warnFn: func(string) {}}
}

// SetWarnFunc overrides how the logger reports its one-per-session sink
// failure warning (spec.md §9 supplemented feature). Defaults to a
// no-op.
func (l *Logger) SetWarnFunc(fn func(string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnFn = fn
}

// Append writes one structured record for the current frame and
// advances the frame counter. No backpressure: sink failures are
// swallowed and reported at most once per session (spec.md §4.7).
func (l *Logger) Append(fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		l.frame++
		return
	}
	rec := LogRecord{Frame: l.frame, Fields: fields}
	l.frame++

	l.records = append(l.records, rec)
	if len(l.records) > l.maxRecords {
		l.records = l.records[1:]
	}

	if l.sink != nil {
		if err := l.sink.WriteRecord(rec); err != nil {
			l.warnOnce.Do(func() {
				l.warnFn(fmt.Sprintf("surfel: logger sink write failed, further failures suppressed: %v", err))
			})
		}
	}
}

// Records returns a copy of the most recently retained in-memory
// records, oldest first.
func (l *Logger) Records() []LogRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogRecord, len(l.records))
	copy(out, l.records)
	return out
}
