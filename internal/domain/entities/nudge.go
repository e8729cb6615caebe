package entities

import (
	"time"

	"github.com/google/uuid"
)

// NudgeCategory identifies the coaching rule that produced a nudge
type NudgeCategory string

const (
	NudgeMonologue        NudgeCategory = "monologue"
	NudgeSentimentDecline NudgeCategory = "sentiment_decline"
	NudgeTalkRatio        NudgeCategory = "talk_ratio"
	NudgeQuestionRate     NudgeCategory = "question_rate"
	NudgePace             NudgeCategory = "pace"
	NudgeNextSteps        NudgeCategory = "next_steps"
	NudgeLowCoverage      NudgeCategory = "low_coverage"
)

// NudgeSeverity ranks how urgent a nudge is
type NudgeSeverity string

const (
	SeverityLow    NudgeSeverity = "low"
	SeverityMedium NudgeSeverity = "medium"
	SeverityHigh   NudgeSeverity = "high"
)

// Nudge is one rate-limited coaching prompt. Immutable once created.
type Nudge struct {
	ID              uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID          uuid.UUID     `json:"call_id" gorm:"type:uuid;not null;index"`
	Category        NudgeCategory `json:"category" gorm:"type:varchar(40);not null"`
	Message         string        `json:"message" gorm:"type:text"`
	Severity        NudgeSeverity `json:"severity" gorm:"type:varchar(10)"`
	OffsetSec       float64       `json:"offset_sec"`
	SuggestedAction string        `json:"suggested_action,omitempty" gorm:"type:text"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Nudge) TableName() string {
	return "nudges"
}

// NewNudge creates a nudge raised at the given call offset
func NewNudge(callID uuid.UUID, category NudgeCategory, severity NudgeSeverity, message, action string, offsetSec float64) *Nudge {
	return &Nudge{
		ID:              uuid.New(),
		CallID:          callID,
		Category:        category,
		Severity:        severity,
		Message:         message,
		SuggestedAction: action,
		OffsetSec:       offsetSec,
	}
}
