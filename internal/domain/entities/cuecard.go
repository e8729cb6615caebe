package entities

import (
	"time"

	"github.com/google/uuid"
)

// CueCategory is a recognized objection category
type CueCategory string

const (
	CuePricing     CueCategory = "pricing"
	CueCompetitor  CueCategory = "competitor"
	CueTiming      CueCategory = "timing"
	CueAuthority   CueCategory = "authority"
	CueNeed        CueCategory = "need"
	CueTrust       CueCategory = "trust"
	CueIntegration CueCategory = "integration"
)

// TriggerStatus is the user-facing state of a raised cue card
type TriggerStatus string

const (
	TriggerActive    TriggerStatus = "active"
	TriggerPinned    TriggerStatus = "pinned"
	TriggerDismissed TriggerStatus = "dismissed"
)

// TriggerFeedback is optional user feedback on a raised cue card
type TriggerFeedback string

const (
	FeedbackHelpful    TriggerFeedback = "helpful"
	FeedbackWrong      TriggerFeedback = "wrong"
	FeedbackIrrelevant TriggerFeedback = "irrelevant"
)

// CueCardContent is the coaching material a trigger resolves to
type CueCardContent struct {
	Title      string   `json:"title"`
	TalkTracks []string `json:"talk_tracks"`
	Questions  []string `json:"questions"`
}

// CueCardTrigger records one confirmed objection detection with its
// resolved response card. Status changes only via explicit user action.
type CueCardTrigger struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID     uuid.UUID       `json:"call_id" gorm:"type:uuid;not null;index"`
	SegmentID  uuid.UUID       `json:"segment_id" gorm:"type:uuid;not null"`
	Category   CueCategory     `json:"category" gorm:"type:varchar(30);not null"`
	Excerpt    string          `json:"excerpt" gorm:"type:text"`
	Confidence float64         `json:"confidence"`
	Content    CueCardContent  `json:"content" gorm:"type:jsonb;serializer:json"`
	Status     TriggerStatus   `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Feedback   TriggerFeedback `json:"feedback,omitempty" gorm:"type:varchar(20)"`
	OffsetSec  float64         `json:"offset_sec"`
	CreatedAt  time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (CueCardTrigger) TableName() string {
	return "cue_card_triggers"
}

// NewCueCardTrigger creates an active trigger for a detected objection
func NewCueCardTrigger(callID, segmentID uuid.UUID, category CueCategory, excerpt string, confidence, offsetSec float64) *CueCardTrigger {
	return &CueCardTrigger{
		ID:         uuid.New(),
		CallID:     callID,
		SegmentID:  segmentID,
		Category:   category,
		Excerpt:    excerpt,
		Confidence: confidence,
		Status:     TriggerActive,
		OffsetSec:  offsetSec,
	}
}

// StoredCueCard is an operator-curated response card for one category
type StoredCueCard struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Category  CueCategory    `json:"category" gorm:"type:varchar(30);not null;index"`
	Content   CueCardContent `json:"content" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (StoredCueCard) TableName() string {
	return "stored_cue_cards"
}
