package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/records"
)

var ErrInvalidMessage = errors.New("invalid change message")

// NewChangeMessage stamps a change with the current time when unset.
func NewChangeMessage(c records.Change) records.Change {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	return c
}

// EncodeChange converts a change to JSON bytes
func EncodeChange(c records.Change) ([]byte, error) {
	return json.Marshal(c)
}

// DecodeChange parses and validates a change message.
func DecodeChange(data []byte) (records.Change, error) {
	var c records.Change
	if err := json.Unmarshal(data, &c); err != nil {
		return records.Change{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if c.Entity == "" {
		return records.Change{}, fmt.Errorf("%w: missing entity", ErrInvalidMessage)
	}
	switch c.Op {
	case records.ChangeCreate, records.ChangeUpdate, records.ChangeDelete, records.ChangeIncrement:
	default:
		return records.Change{}, fmt.Errorf("%w: unknown op %q", ErrInvalidMessage, c.Op)
	}
	return c, nil
}
