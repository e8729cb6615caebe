package buffer

import (
	"context"
	"sync"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

// FinalizeFunc is invoked for every finalized segment, after it has been
// appended to the in-memory window. It must not block.
type FinalizeFunc func(seg *entities.Segment)

// Buffer ingests raw transcript fragments from the capture source,
// assigns call-relative offsets, keeps a bounded rolling window, and
// persists finalized segments. Persistence is best effort: a storage
// failure never blocks the real-time path.
type Buffer struct {
	cfg    *config.PipelineConfig
	repo   repositories.CallRepository
	logger *zap.Logger

	mu       sync.Mutex
	callID   uuid.UUID
	zeroTime time.Time
	window   []*entities.Segment
	active   bool

	onFinal FinalizeFunc
}

// New creates a segment buffer
func New(cfg *config.PipelineConfig, repo repositories.CallRepository, logger *zap.Logger) *Buffer {
	return &Buffer{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
	}
}

// OnFinalized registers the segment-finalized callback
func (b *Buffer) OnFinalized(fn FinalizeFunc) {
	b.mu.Lock()
	b.onFinal = fn
	b.mu.Unlock()
}

// StartCall resets the per-call window and the zero-time reference
func (b *Buffer) StartCall(callID uuid.UUID, startedAt time.Time) {
	b.mu.Lock()
	b.callID = callID
	b.zeroTime = startedAt
	b.window = nil
	b.active = true
	b.mu.Unlock()
}

// EndCall drops the per-call window
func (b *Buffer) EndCall() {
	b.mu.Lock()
	b.window = nil
	b.active = false
	b.mu.Unlock()
}

// Ingest converts absolute timestamps to call-relative offsets, appends
// the fragment to the window and, for final segments, persists it and
// raises the finalized notification. Interim fragments for a side
// replace the previous trailing interim from that side, matching the
// capture source's interim-then-final update pattern.
func (b *Buffer) Ingest(ctx context.Context, side entities.Side, text string, isFinal bool, startAbs, endAbs time.Time) *entities.Segment {
	b.mu.Lock()
	if !b.active {
		b.mu.Unlock()
		return nil
	}

	startOffset := startAbs.Sub(b.zeroTime).Seconds()
	endOffset := endAbs.Sub(b.zeroTime).Seconds()
	seg := entities.NewSegment(b.callID, side, text, startOffset, endOffset, isFinal)

	if n := len(b.window); n > 0 {
		last := b.window[n-1]
		if !last.IsFinal && last.Side == side {
			b.window = b.window[:n-1]
		}
	}
	b.window = append(b.window, seg)
	b.trimLocked()

	onFinal := b.onFinal
	b.mu.Unlock()

	if !isFinal {
		return seg
	}

	if onFinal != nil {
		onFinal(seg)
	}

	// Best-effort durability off the hot path. The caller's context is
	// often a request context that dies as soon as the handler returns,
	// so the write must outlive it.
	go b.persist(context.WithoutCancel(ctx), seg)

	return seg
}

func (b *Buffer) persist(ctx context.Context, seg *entities.Segment) {
	if b.repo == nil {
		return
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second

	err := backoff.Retry(func() error {
		return b.repo.SaveSegment(ctx, seg)
	}, backoff.WithContext(bo, ctx))
	if err != nil && b.logger != nil {
		b.logger.Warn("segment persistence failed",
			zap.String("segment_id", seg.ID.String()),
			zap.String("call_id", seg.CallID.String()),
			zap.Error(err),
		)
	}
}

// trimLocked shrinks the window from the high-water mark down to the
// low-water mark, dropping the oldest entries. Persisted rows are
// untouched; only the in-memory copies go.
func (b *Buffer) trimLocked() {
	high, low := b.cfg.BufferHighWater, b.cfg.BufferLowWater
	if high <= 0 || len(b.window) <= high {
		return
	}
	b.window = append([]*entities.Segment(nil), b.window[len(b.window)-low:]...)
}

// ActiveWindow returns a copy of the current in-memory window
func (b *Buffer) ActiveWindow() []entities.Segment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Segment, 0, len(b.window))
	for _, s := range b.window {
		out = append(out, *s)
	}
	return out
}

// FinalSegments returns the finalized segments of the window, in order
func (b *Buffer) FinalSegments() []entities.Segment {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.Segment, 0, len(b.window))
	for _, s := range b.window {
		if s.IsFinal {
			out = append(out, *s)
		}
	}
	return out
}

// SegmentsBySide returns up to limit most recent finalized segments
// spoken by the given side
func (b *Buffer) SegmentsBySide(side entities.Side, limit int) []entities.Segment {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []entities.Segment
	for i := len(b.window) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		s := b.window[i]
		if s.IsFinal && s.Side == side {
			out = append(out, *s)
		}
	}
	// restore chronological order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
