package entities

import (
	"time"

	"github.com/google/uuid"
)

// Side identifies which party of the call spoke a segment
type Side string

const (
	SideCaller       Side = "caller"
	SideCounterparty Side = "counterparty"
)

// Segment is one utterance fragment from the capture source.
// Offsets are call-relative seconds. Only final segments are persisted
// and analyzed; interim segments exist transiently for live display.
type Segment struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID      uuid.UUID `json:"call_id" gorm:"type:uuid;not null;index"`
	Side        Side      `json:"side" gorm:"type:varchar(20);not null"`
	Text        string    `json:"text" gorm:"type:text"`
	StartOffset float64   `json:"start_offset"`
	EndOffset   float64   `json:"end_offset"`
	IsFinal     bool      `json:"is_final" gorm:"default:false"`
	Processed   bool      `json:"processed" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Segment) TableName() string {
	return "segments"
}

// NewSegment creates a segment with clamped, ordered offsets:
// endOffset >= startOffset >= 0 holds regardless of input.
func NewSegment(callID uuid.UUID, side Side, text string, startOffset, endOffset float64, isFinal bool) *Segment {
	if startOffset < 0 {
		startOffset = 0
	}
	if endOffset < startOffset {
		endOffset = startOffset
	}
	return &Segment{
		ID:          uuid.New(),
		CallID:      callID,
		Side:        side,
		Text:        text,
		StartOffset: startOffset,
		EndOffset:   endOffset,
		IsFinal:     isFinal,
	}
}

// Duration returns the spoken duration of the segment in seconds
func (s *Segment) Duration() float64 {
	return s.EndOffset - s.StartOffset
}
