package entities

import (
	"time"

	"github.com/google/uuid"
)

// CallStatus is the lifecycle state of a call
type CallStatus string

const (
	CallStatusActive CallStatus = "active"
	CallStatusEnded  CallStatus = "ended"
)

// CallState is the root aggregate for one live call. All per-call
// component state is keyed by CallID and torn down together at call end.
type CallState struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SessionID   string     `json:"session_id" gorm:"type:varchar(255);index"`
	PlaybookID  *uuid.UUID `json:"playbook_id,omitempty" gorm:"type:uuid"`
	Status      CallStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	DurationSec float64    `json:"duration_sec"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CallState) TableName() string {
	return "calls"
}

// NewCallState creates an active call starting now
func NewCallState(sessionID string, playbookID *uuid.UUID) *CallState {
	return &CallState{
		ID:         uuid.New(),
		SessionID:  sessionID,
		PlaybookID: playbookID,
		Status:     CallStatusActive,
		StartedAt:  time.Now(),
	}
}

// End marks the call ended and records its duration
func (c *CallState) End() {
	now := time.Now()
	c.Status = CallStatusEnded
	c.EndedAt = &now
	c.DurationSec = now.Sub(c.StartedAt).Seconds()
}
