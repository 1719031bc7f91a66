package terminal

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/couchcryptid/parking-finder/internal/domain"
)

// EventLog writes coordinator events as JSON lines.
type EventLog struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEventLog creates an event log writing to w.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{enc: json.NewEncoder(w)}
}

// Publish writes e as one JSON line.
func (l *EventLog) Publish(_ context.Context, e domain.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(e)
}
