package progress

import (
	"sync"

	"github.com/google/uuid"
)

// UpdateKind tags what part of the pipeline produced an update.
type UpdateKind string

const (
	KindTraceID      UpdateKind = "trace_id"
	KindStarting     UpdateKind = "starting"
	KindPlanning     UpdateKind = "planning"
	KindSearching    UpdateKind = "searching"
	KindWriting      UpdateKind = "writing"
	KindVerifying    UpdateKind = "verifying"
	KindFinalReport  UpdateKind = "final_report"
	KindFullReport   UpdateKind = "full_report"
	KindFollowUps    UpdateKind = "follow_up_questions"
	KindVerification UpdateKind = "verification"
	KindHandoff      UpdateKind = "handoff"
	KindToolCall     UpdateKind = "tool_call"
	KindToolOutput   UpdateKind = "tool_output"
	KindMessage      UpdateKind = "message"
)

// UpdateRecord is a single immutable progress entry.
type UpdateRecord struct {
	ID      string     `json:"id"`
	Kind    UpdateKind `json:"type"`
	Content string     `json:"content"`
	Done    bool       `json:"is_done"`
}

// Notifier receives every record right after it is appended.
// Used to fan records out to the event bus without coupling the log to it.
type Notifier func(record UpdateRecord)

// Log is an append-only, per-session ordered list of updates.
// One writer (the owning orchestrator) appends; any number of readers
// poll with their own cursors.
type Log struct {
	mu      sync.RWMutex
	records []UpdateRecord
	closed  bool
	notify  Notifier
}

func NewLog() *Log {
	return &Log{}
}

// SetNotifier registers a callback invoked on every append.
// Must be set before the pipeline starts writing.
func (l *Log) SetNotifier(n Notifier) {
	l.mu.Lock()
	l.notify = n
	l.mu.Unlock()
}

// Append adds a record and returns it. Appends after Close are dropped,
// so a terminal session's log never grows again.
func (l *Log) Append(kind UpdateKind, content string, done bool) *UpdateRecord {
	record := UpdateRecord{
		ID:      uuid.NewString(),
		Kind:    kind,
		Content: content,
		Done:    done,
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.records = append(l.records, record)
	notify := l.notify
	l.mu.Unlock()

	if notify != nil {
		notify(record)
	}
	return &record
}

// ReadFrom returns all records at index >= cursor and the new cursor.
// Non-blocking and side-effect free; an out-of-range cursor yields an
// empty slice with the cursor unchanged at the log length.
func (l *Log) ReadFrom(cursor int) ([]UpdateRecord, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(l.records) {
		return []UpdateRecord{}, len(l.records)
	}

	out := make([]UpdateRecord, len(l.records)-cursor)
	copy(out, l.records[cursor:])
	return out, len(l.records)
}

// Len returns the current number of records.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Closed reports whether the log has gone terminal, which lets a
// streaming reader stop tailing once it has drained the remainder.
func (l *Log) Closed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

// Close marks the log terminal. Subsequent appends are ignored.
func (l *Log) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}
