package entities

import (
	"time"

	"github.com/google/uuid"
)

// ObjectionRecord is one objection surfaced during the call and how it
// was handled
type ObjectionRecord struct {
	Category string `json:"category"`
	Text     string `json:"text"`
	Response string `json:"response"`
	Resolved bool   `json:"resolved"`
}

// Commitment is something one side promised to do
type Commitment struct {
	Side Side   `json:"side"`
	Text string `json:"text"`
}

// ReportNextStep is a follow-up action extracted from the closing part
// of the call
type ReportNextStep struct {
	Description string `json:"description"`
	Owner       string `json:"owner"`
	DueHint     string `json:"due_hint,omitempty"`
}

// KeyDecision is a decision reached during the call
type KeyDecision struct {
	Text      string  `json:"text"`
	OffsetSec float64 `json:"offset_sec,omitempty"`
}

// CallReport is the multi-section end-of-call report. Every list field
// is always non-nil: a failed extraction task contributes its empty
// default instead of aborting the batch.
type CallReport struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID      uuid.UUID         `json:"call_id" gorm:"type:uuid;not null;uniqueIndex"`
	Bullets     []string          `json:"bullets" gorm:"type:jsonb;serializer:json"`
	PainPoints  []string          `json:"pain_points" gorm:"type:jsonb;serializer:json"`
	Goals       []string          `json:"goals" gorm:"type:jsonb;serializer:json"`
	Objections  []ObjectionRecord `json:"objections" gorm:"type:jsonb;serializer:json"`
	Commitments []Commitment      `json:"commitments" gorm:"type:jsonb;serializer:json"`
	NextSteps   []ReportNextStep  `json:"next_steps" gorm:"type:jsonb;serializer:json"`
	Decisions   []KeyDecision     `json:"decisions" gorm:"type:jsonb;serializer:json"`
	RiskFlags   []string          `json:"risk_flags" gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time         `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (CallReport) TableName() string {
	return "call_reports"
}

// NewCallReport creates a report with every section initialized empty
func NewCallReport(callID uuid.UUID) *CallReport {
	return &CallReport{
		ID:          uuid.New(),
		CallID:      callID,
		Bullets:     []string{},
		PainPoints:  []string{},
		Goals:       []string{},
		Objections:  []ObjectionRecord{},
		Commitments: []Commitment{},
		NextSteps:   []ReportNextStep{},
		Decisions:   []KeyDecision{},
		RiskFlags:   []string{},
	}
}
