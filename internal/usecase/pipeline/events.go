package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// EventType identifies one kind of pipeline event
type EventType string

const (
	EventCallStarted         EventType = "call_started"
	EventSegmentFinalized    EventType = "segment_finalized"
	EventMetricsUpdated      EventType = "metrics_updated"
	EventSentimentUpdated    EventType = "sentiment_updated"
	EventNudgeRaised         EventType = "nudge_raised"
	EventCueCardRaised       EventType = "cue_card_raised"
	EventPlaybookItemUpdated EventType = "playbook_item_updated"
	EventCallEnded           EventType = "call_ended"
	EventError               EventType = "error"
)

// Event is one asynchronous notification to collaborators
type Event struct {
	Type    EventType   `json:"type"`
	CallID  uuid.UUID   `json:"call_id"`
	At      time.Time   `json:"at"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher delivers events to collaborators. Implementations must not
// block the pipeline; slow consumers own their own buffering.
type Publisher interface {
	Publish(event Event)
}

// CallEndedPayload is the terminal event body
type CallEndedPayload struct {
	Report      *entities.CallReport         `json:"report"`
	Metrics     entities.ConversationMetrics `json:"metrics"`
	Playbook    entities.CoverageSnapshot    `json:"playbook"`
	DurationSec float64                      `json:"duration_sec"`
}

// ErrorPayload carries a short description of a non-fatal failure and
// the sub-context it occurred in
type ErrorPayload struct {
	Context string `json:"context"`
	Message string `json:"message"`
}
