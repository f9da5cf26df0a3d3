package proto

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type EventKind string

const (
	EventLog       EventKind = "log"
	EventInfo      EventKind = "info"
	EventSuccess   EventKind = "success"
	EventError     EventKind = "error"
	EventResultado EventKind = "resultado"
)

// IsLog reports whether the kind carries a display string.
func (k EventKind) IsLog() bool {
	switch k {
	case EventLog, EventInfo, EventSuccess, EventError:
		return true
	}
	return false
}

var ErrMalformedEvent = errors.New("malformed stream event")

// StreamEvent is one inbound socket message.
type StreamEvent struct {
	Type    EventKind         `json:"type"`
	Message string            `json:"message,omitempty"`
	Data    *GenerationResult `json:"data,omitempty"`
}

func LogEvent(kind EventKind, msg string) StreamEvent {
	return StreamEvent{Type: kind, Message: msg}
}

func ResultEvent(r *GenerationResult) StreamEvent {
	return StreamEvent{Type: EventResultado, Data: r}
}

// DecodeStreamEvent parses one inbound payload. Unknown types decode fine and
// are left for the caller to ignore; a resultado without data is malformed.
func DecodeStreamEvent(raw []byte) (StreamEvent, error) {
	var ev StreamEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return StreamEvent{}, errors.Wrap(ErrMalformedEvent, err.Error())
	}
	if ev.Type == EventResultado && ev.Data == nil {
		return StreamEvent{}, errors.Wrap(ErrMalformedEvent, "resultado without data")
	}
	return ev, nil
}
