package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"
)

// EventType identifies what happened during a run.
type EventType string

const (
	EventScriptStarted    EventType = "script_started"
	EventScriptFinished   EventType = "script_finished"
	EventReadFailed       EventType = "read_failed"
	EventCommandSpawned   EventType = "command_spawned"
	EventSpawnFailed      EventType = "spawn_failed"
	EventDirectiveChanged EventType = "directive_changed"
	EventDirectiveIgnored EventType = "directive_ignored"
)

// Event is a single entry in the event log.
type Event struct {
	TimestampMicros int64     `json:"timestamp_micros"`
	RunID           string    `json:"run_id,omitempty"`
	Type            EventType `json:"type"`
	Script          string    `json:"script,omitempty"`
	Dir             string    `json:"dir,omitempty"`
	Command         string    `json:"command,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// Recorder stores events in an external datastore.
type Recorder interface {
	Record(event *Event) error
}

// RecorderFunc adapts a function to a Recorder.
type RecorderFunc func(event *Event) error

// Record implements Recorder.
func (f RecorderFunc) Record(event *Event) error {
	return f(event)
}

// NopRecorder discards every event.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(*Event) error {
	return nil
}

// Logger stamps events before handing them to a Recorder.
type Logger struct {
	recorder Recorder
	now      func() time.Time
}

// New creates a Logger around recorder, nil means events are discarded.
func New(recorder Recorder) *Logger {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Logger{recorder: recorder, now: time.Now}
}

// NewJSONLinesLogger creates a Logger that writes events to w in newline
// delimited JSON object format.
func NewJSONLinesLogger(w io.Writer) *Logger {
	var mu sync.Mutex
	return New(RecorderFunc(func(event *Event) error {
		entry, err := json.Marshal(event)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		_, err = fmt.Fprintln(w, string(entry))
		return err
	}))
}

// NewRun creates a logger with an attached run ID.
func (l *Logger) NewRun() *RunLogger {
	return &RunLogger{Logger: l, runID: fmt.Sprintf("%d", rand.Uint64())}
}

// RunLogger logs events with a shared run ID.
type RunLogger struct {
	*Logger
	runID string
}

// Record stamps and stores event.
func (l *RunLogger) Record(event Event) error {
	event.TimestampMicros = l.now().UnixNano() / int64(time.Microsecond)
	event.RunID = l.runID
	return l.recorder.Record(&event)
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(event *Event)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			return err
		}

		handler(&event)
	}
	return nil
}
