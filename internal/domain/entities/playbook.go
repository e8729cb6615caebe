package entities

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the coverage state of one playbook item. Within a call
// it is monotonic: missing -> partial -> covered, never backwards.
type ItemStatus string

const (
	ItemMissing ItemStatus = "missing"
	ItemPartial ItemStatus = "partial"
	ItemCovered ItemStatus = "covered"
)

// Rank orders statuses so monotonic advancement can be enforced
func (s ItemStatus) Rank() int {
	switch s {
	case ItemPartial:
		return 1
	case ItemCovered:
		return 2
	default:
		return 0
	}
}

// ItemEvidence links a coverage decision back to the transcript
type ItemEvidence struct {
	SegmentID  uuid.UUID `json:"segment_id"`
	Offset     float64   `json:"offset"`
	Excerpt    string    `json:"excerpt"`
	Confidence float64   `json:"confidence"`
}

// PlaybookItem is one step of a sales methodology
type PlaybookItem struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Keywords    []string       `json:"keywords"`
	Questions   []string       `json:"questions"`
	Status      ItemStatus     `json:"status"`
	Evidence    []ItemEvidence `json:"evidence"`
}

// Advance moves the item status forward only; regressions are ignored
func (p *PlaybookItem) Advance(to ItemStatus, ev ItemEvidence) bool {
	if to.Rank() <= p.Status.Rank() {
		return false
	}
	p.Status = to
	p.Evidence = append(p.Evidence, ev)
	return true
}

// PlaybookDefinition is a stored methodology template
type PlaybookDefinition struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	IsDefault bool           `json:"is_default" gorm:"default:false"`
	Items     []PlaybookItem `json:"items" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (PlaybookDefinition) TableName() string {
	return "playbook_definitions"
}

// Recommendation suggests how to progress a still-missing item
type Recommendation struct {
	ItemID   string `json:"item_id"`
	Label    string `json:"label"`
	Question string `json:"question"`
}

// CoverageSnapshot is the weighted coverage view at a point in time
type CoverageSnapshot struct {
	CoveragePct     float64          `json:"coverage_pct"`
	Items           []PlaybookItem   `json:"items"`
	Recommendations []Recommendation `json:"recommendations"`
}

// PlaybookSession is the per-call record of methodology coverage
type PlaybookSession struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID      uuid.UUID        `json:"call_id" gorm:"type:uuid;not null;index"`
	PlaybookID  uuid.UUID        `json:"playbook_id" gorm:"type:uuid;not null"`
	Snapshot    CoverageSnapshot `json:"snapshot" gorm:"type:jsonb;serializer:json"`
	FinalizedAt *time.Time       `json:"finalized_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (PlaybookSession) TableName() string {
	return "playbook_sessions"
}
