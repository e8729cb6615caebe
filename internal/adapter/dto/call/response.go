package call

import (
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// StartCallResponse is returned when a call session begins
type StartCallResponse struct {
	CallID     uuid.UUID  `json:"call_id"`
	SessionID  string     `json:"session_id"`
	PlaybookID *uuid.UUID `json:"playbook_id,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
}

// IngestSegmentResponse acknowledges an accepted transcript fragment
type IngestSegmentResponse struct {
	SegmentID   uuid.UUID `json:"segment_id"`
	IsFinal     bool      `json:"is_final"`
	StartOffset float64   `json:"start_offset"`
	EndOffset   float64   `json:"end_offset"`
}

// EndCallResponse is returned when a call session ends
type EndCallResponse struct {
	CallID      uuid.UUID `json:"call_id"`
	DurationSec float64   `json:"duration_sec"`
}

// TriggerResponse is the user-facing view of a raised cue card
type TriggerResponse struct {
	ID         uuid.UUID                `json:"id"`
	Category   entities.CueCategory     `json:"category"`
	Excerpt    string                   `json:"excerpt"`
	Confidence float64                  `json:"confidence"`
	Content    entities.CueCardContent  `json:"content"`
	Status     entities.TriggerStatus   `json:"status"`
	Feedback   entities.TriggerFeedback `json:"feedback,omitempty"`
	OffsetSec  float64                  `json:"offset_sec"`
}

// NewTriggerResponse maps a trigger entity to its response shape
func NewTriggerResponse(t *entities.CueCardTrigger) TriggerResponse {
	return TriggerResponse{
		ID:         t.ID,
		Category:   t.Category,
		Excerpt:    t.Excerpt,
		Confidence: t.Confidence,
		Content:    t.Content,
		Status:     t.Status,
		Feedback:   t.Feedback,
		OffsetSec:  t.OffsetSec,
	}
}
