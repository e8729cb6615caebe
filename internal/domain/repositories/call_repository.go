package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// CallRepository defines persistence operations for calls and their
// finalized segments
type CallRepository interface {
	CreateCall(ctx context.Context, call *entities.CallState) error
	UpdateCall(ctx context.Context, call *entities.CallState) error
	GetCallByID(ctx context.Context, id uuid.UUID) (*entities.CallState, error)

	SaveSegment(ctx context.Context, seg *entities.Segment) error
	MarkSegmentProcessed(ctx context.Context, segmentID uuid.UUID) error
	ListSegmentsByCall(ctx context.Context, callID uuid.UUID) ([]entities.Segment, error)
}

// ChunkRepository defines persistence for compressed history chunks
type ChunkRepository interface {
	SaveChunk(ctx context.Context, chunk *entities.CompressedChunk) error
	ListChunksByCall(ctx context.Context, callID uuid.UUID) ([]entities.CompressedChunk, error)
}

// InsightRepository defines persistence for derived real-time artifacts:
// nudges, cue card triggers, and periodic metrics snapshots
type InsightRepository interface {
	SaveNudge(ctx context.Context, nudge *entities.Nudge) error
	ListNudgesByCall(ctx context.Context, callID uuid.UUID) ([]entities.Nudge, error)

	SaveTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error
	GetTriggerByID(ctx context.Context, id uuid.UUID) (*entities.CueCardTrigger, error)
	UpdateTrigger(ctx context.Context, trigger *entities.CueCardTrigger) error
	ListTriggersByCall(ctx context.Context, callID uuid.UUID) ([]entities.CueCardTrigger, error)
	ListStoredCards(ctx context.Context, category entities.CueCategory) ([]entities.StoredCueCard, error)

	SaveMetricsSnapshot(ctx context.Context, snap *entities.MetricsSnapshot) error
}

// PlaybookRepository defines persistence for methodology templates and
// per-call coverage sessions
type PlaybookRepository interface {
	GetDefinitionByID(ctx context.Context, id uuid.UUID) (*entities.PlaybookDefinition, error)
	GetDefaultDefinition(ctx context.Context) (*entities.PlaybookDefinition, error)
	SaveSession(ctx context.Context, session *entities.PlaybookSession) error
	UpdateSession(ctx context.Context, session *entities.PlaybookSession) error
}

// ReportRepository defines persistence for end-of-call reports
type ReportRepository interface {
	SaveReport(ctx context.Context, report *entities.CallReport) error
	GetReportByCall(ctx context.Context, callID uuid.UUID) (*entities.CallReport, error)
}
