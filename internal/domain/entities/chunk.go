package entities

import (
	"time"

	"github.com/google/uuid"
)

// MomentKind classifies a notable moment inside a compressed chunk
type MomentKind string

const (
	MomentObjection  MomentKind = "objection"
	MomentCommitment MomentKind = "commitment"
	MomentQuestion   MomentKind = "question"
	MomentPainPoint  MomentKind = "pain_point"
	MomentDecision   MomentKind = "decision"
)

// NotableMoment is a single highlighted instant within a chunk
type NotableMoment struct {
	Offset float64    `json:"offset"`
	Kind   MomentKind `json:"kind"`
	Text   string     `json:"text"`
}

// CompressedChunk aggregates one fixed-duration bucket of aged segments
// into a summary so downstream LLM context stays bounded. One chunk per
// time bucket per call; never recreated once written.
type CompressedChunk struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CallID      uuid.UUID       `json:"call_id" gorm:"type:uuid;not null;index:idx_chunks_call_bucket,unique"`
	ChunkIndex  int             `json:"chunk_index" gorm:"index:idx_chunks_call_bucket,unique"`
	StartOffset float64         `json:"start_offset"`
	EndOffset   float64         `json:"end_offset"`
	Summary     string          `json:"summary" gorm:"type:text"`
	Topics      []string        `json:"topics" gorm:"type:jsonb;serializer:json"`
	Moments     []NotableMoment `json:"moments" gorm:"type:jsonb;serializer:json"`
	Degraded    bool            `json:"degraded" gorm:"default:false"`
	CreatedAt   time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GORM
func (CompressedChunk) TableName() string {
	return "compressed_chunks"
}

// NewCompressedChunk creates a chunk covering one time bucket
func NewCompressedChunk(callID uuid.UUID, chunkIndex int, bucketSeconds float64) *CompressedChunk {
	return &CompressedChunk{
		ID:          uuid.New(),
		CallID:      callID,
		ChunkIndex:  chunkIndex,
		StartOffset: float64(chunkIndex) * bucketSeconds,
		EndOffset:   float64(chunkIndex+1) * bucketSeconds,
	}
}
