package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on envelopes built without WithSchemaVersion.
const SchemaVersion = 1

// Event is the envelope written to every topic. Subject doubles as the
// message key, so all events about one subject land on one partition.
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Subject       string          `json:"subject"`
	Time          time.Time       `json:"time"`
	SchemaVersion int             `json:"schema_version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// Option customizes an Event built by NewEvent.
type Option func(*Event)

// WithCorrelationID tags the event with the request that caused it. An empty
// id is ignored.
func WithCorrelationID(id string) Option {
	return func(e *Event) {
		if id != "" {
			e.CorrelationID = id
		}
	}
}

// WithSchemaVersion overrides the payload schema version.
func WithSchemaVersion(v int) Option {
	return func(e *Event) { e.SchemaVersion = v }
}

// NewEvent encodes data into an envelope with a fresh ID and the current UTC
// time.
func NewEvent(eventType, source, subject string, data any, opts ...Option) (*Event, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	e := &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Subject:       subject,
		Time:          time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Data:          payload,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// DecodeEvent parses an envelope read off a topic.
func DecodeEvent(raw []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return &e, nil
}

// DecodeData decodes the payload into target.
func (e *Event) DecodeData(target any) error {
	return json.Unmarshal(e.Data, target)
}
