package entities

import (
	"time"

	"github.com/google/uuid"
)

// TalkRatio is each side's share of total spoken time, in [0,1]
type TalkRatio struct {
	Caller       float64 `json:"caller"`
	Counterparty float64 `json:"counterparty"`
}

// Monologue describes the longest uninterrupted same-side run
type Monologue struct {
	Detected    bool    `json:"detected"`
	Side        Side    `json:"side,omitempty"`
	DurationSec float64 `json:"duration_sec"`
}

// ConversationMetrics is a pure derivation over the finalized segment
// set and elapsed call time; it carries no state of its own.
type ConversationMetrics struct {
	TalkRatio     TalkRatio `json:"talk_ratio"`
	PaceWPM       float64   `json:"pace_wpm"`
	QuestionCount int       `json:"question_count"`
	Monologue     Monologue `json:"monologue"`
	ElapsedSec    float64   `json:"elapsed_sec"`
	SegmentCount  int       `json:"segment_count"`
}

// MetricsSnapshot persists one periodic metrics reading for a call
type MetricsSnapshot struct {
	ID        uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID    uuid.UUID           `json:"call_id" gorm:"type:uuid;not null;index"`
	Metrics   ConversationMetrics `json:"metrics" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time           `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (MetricsSnapshot) TableName() string {
	return "metrics_snapshots"
}
