package socialauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuditEvent records one security-relevant engine action. IDs are ULIDs so
// downstream stores can sort events by creation time without trusting the
// Timestamp field.
type AuditEvent struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func newAuditID() string {
	return ulid.Make().String()
}

// AuditSink receives engine audit events. Implementations must be safe for
// concurrent use; the dispatcher calls Emit from a single goroutine but
// nothing stops callers from sharing a sink.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpAuditSink drops every event.
type NoOpAuditSink struct{}

func (NoOpAuditSink) Emit(context.Context, AuditEvent) {}

// ChannelAuditSink delivers events into a buffered channel, mostly useful in
// tests and small deployments that fan out themselves.
type ChannelAuditSink struct {
	events chan AuditEvent
}

func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelAuditSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelAuditSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the delivery channel for consumption.
func (s *ChannelAuditSink) Events() <-chan AuditEvent {
	return s.events
}

// JSONWriterAuditSink writes one JSON object per line, suitable for piping
// into a log shipper.
type JSONWriterAuditSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterAuditSink(w io.Writer) *JSONWriterAuditSink {
	return &JSONWriterAuditSink{writer: w}
}

func (s *JSONWriterAuditSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
