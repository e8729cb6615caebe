package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/internal/telemetry"
	"github.com/johnquangdev/call-copilot/internal/usecase/buffer"
	"github.com/johnquangdev/call-copilot/internal/usecase/callmetrics"
	"github.com/johnquangdev/call-copilot/internal/usecase/compress"
	"github.com/johnquangdev/call-copilot/internal/usecase/cuecard"
	"github.com/johnquangdev/call-copilot/internal/usecase/nudge"
	"github.com/johnquangdev/call-copilot/internal/usecase/playbook"
	"github.com/johnquangdev/call-copilot/internal/usecase/sentiment"
	"github.com/johnquangdev/call-copilot/internal/usecase/summary"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

// queueCapacity bounds the per-call segment queue. The finalized
// callback must never block the capture path, so a full queue drops the
// segment with a warning instead of stalling ingestion.
const queueCapacity = 256

// State is the orchestrator lifecycle state
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
)

// session owns all per-call concurrent machinery. A new call gets a
// fresh session so no cooldowns, history, or timers leak across calls.
type session struct {
	call  *entities.CallState
	queue chan *entities.Segment
	stop  chan struct{}
	wg    sync.WaitGroup

	mu    sync.Mutex
	trend *entities.SentimentTrend
}

func (s *session) setTrend(t *entities.SentimentTrend) {
	s.mu.Lock()
	s.trend = t
	s.mu.Unlock()
}

func (s *session) lastTrend() *entities.SentimentTrend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trend
}

// Orchestrator is the per-process conversation pipeline: it owns the
// call lifecycle, the ordered segment queue, and the periodic metrics
// and compression timers, and fans each finalized segment out to the
// analysis components.
type Orchestrator struct {
	cfg        *config.PipelineConfig
	buffer     *buffer.Buffer
	compressor *compress.Compressor
	sentiments *sentiment.Tracker
	cueCards   *cuecard.Engine
	playbooks  *playbook.Tracker
	nudges     *nudge.Engine
	summarizer *summary.Generator
	calls      repositories.CallRepository
	insights   repositories.InsightRepository
	events     Publisher
	logger     *zap.Logger

	mu    sync.Mutex
	state State
	sess  *session
}

// New wires the orchestrator. events may be nil (no emission);
// repositories may be nil in degraded setups.
func New(
	cfg *config.PipelineConfig,
	buf *buffer.Buffer,
	compressor *compress.Compressor,
	sentiments *sentiment.Tracker,
	cueCards *cuecard.Engine,
	playbooks *playbook.Tracker,
	nudges *nudge.Engine,
	summarizer *summary.Generator,
	calls repositories.CallRepository,
	insights repositories.InsightRepository,
	events Publisher,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		buffer:     buf,
		compressor: compressor,
		sentiments: sentiments,
		cueCards:   cueCards,
		playbooks:  playbooks,
		nudges:     nudges,
		summarizer: summarizer,
		calls:      calls,
		insights:   insights,
		events:     events,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ActiveCall returns the running call, or nil when idle
func (o *Orchestrator) ActiveCall() *entities.CallState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess == nil {
		return nil
	}
	return o.sess.call
}

// StartCall transitions idle -> active. Starting while a call is still
// active ends the prior call first so none of its timers or state leak
// into the new one.
func (o *Orchestrator) StartCall(ctx context.Context, sessionID string, playbookID *uuid.UUID) (*entities.CallState, error) {
	o.mu.Lock()
	prev := o.sess
	o.mu.Unlock()
	if prev != nil {
		if o.logger != nil {
			o.logger.Warn("start requested while a call is active, ending previous call",
				zap.String("previous_call_id", prev.call.ID.String()),
			)
		}
		if err := o.EndCall(ctx); err != nil {
			return nil, fmt.Errorf("failed to end previous call: %w", err)
		}
	}

	call := entities.NewCallState(sessionID, playbookID)
	if o.calls != nil {
		if err := o.calls.CreateCall(ctx, call); err != nil && o.logger != nil {
			o.logger.Warn("failed to persist call record",
				zap.String("call_id", call.ID.String()),
				zap.Error(err),
			)
		}
	}

	sess := &session{
		call:  call,
		queue: make(chan *entities.Segment, queueCapacity),
		stop:  make(chan struct{}),
	}

	o.buffer.StartCall(call.ID, call.StartedAt)
	o.compressor.StartCall(call.ID)
	o.cueCards.StartCall()
	o.nudges.StartCall(call.ID)
	o.playbooks.Initialize(ctx, playbookID, call.ID)
	o.buffer.OnFinalized(func(seg *entities.Segment) {
		o.enqueue(sess, seg)
	})

	o.mu.Lock()
	o.sess = sess
	o.state = StateActive
	o.mu.Unlock()

	sess.wg.Add(2)
	go o.worker(sess)
	go o.timers(sess)

	if o.logger != nil {
		o.logger.Info("🎙️ call started",
			zap.String("call_id", call.ID.String()),
			zap.String("session_id", sessionID),
		)
	}
	o.publish(Event{Type: EventCallStarted, CallID: call.ID, At: time.Now(), Payload: call})
	return call, nil
}

// Ingest forwards one capture fragment to the segment buffer
func (o *Orchestrator) Ingest(ctx context.Context, side entities.Side, text string, isFinal bool, startAbs, endAbs time.Time) *entities.Segment {
	return o.buffer.Ingest(ctx, side, text, isFinal, startAbs, endAbs)
}

// EndCall transitions active -> idle: stops timers, drains the queue,
// finalizes the playbook, generates the report, and emits the terminal
// event. Ending with no active call is a logged no-op.
func (o *Orchestrator) EndCall(ctx context.Context) error {
	o.mu.Lock()
	sess := o.sess
	o.sess = nil
	o.state = StateIdle
	o.mu.Unlock()

	if sess == nil {
		if o.logger != nil {
			o.logger.Warn("end requested with no active call")
		}
		return nil
	}

	o.buffer.OnFinalized(nil)
	close(sess.stop)
	sess.wg.Wait()

	call := sess.call
	finalSegments := o.finalSegments(ctx, call.ID)
	call.End()

	finalMetrics := callmetrics.Compute(finalSegments, call.DurationSec, o.cfg.MonologueThreshold)
	playbookSnap := o.playbooks.Finalize(ctx)
	report := o.summarizer.Generate(ctx, call.ID, finalSegments)

	o.buffer.EndCall()

	if o.calls != nil {
		if err := o.calls.UpdateCall(ctx, call); err != nil && o.logger != nil {
			o.logger.Warn("failed to persist call end",
				zap.String("call_id", call.ID.String()),
				zap.Error(err),
			)
		}
	}

	if o.logger != nil {
		o.logger.Info("📋 call ended",
			zap.String("call_id", call.ID.String()),
			zap.Float64("duration_sec", call.DurationSec),
			zap.Float64("coverage_pct", playbookSnap.CoveragePct),
		)
	}
	o.publish(Event{
		Type:   EventCallEnded,
		CallID: call.ID,
		At:     time.Now(),
		Payload: CallEndedPayload{
			Report:      report,
			Metrics:     finalMetrics,
			Playbook:    playbookSnap,
			DurationSec: call.DurationSec,
		},
	})
	return nil
}

// finalSegments prefers the durable store for the complete set (the
// in-memory window is trimmed on long calls), falling back to the
// window when the store has less than the window holds. Both the
// end-of-call report and the compression sweep read through it.
func (o *Orchestrator) finalSegments(ctx context.Context, callID uuid.UUID) []entities.Segment {
	window := o.buffer.FinalSegments()
	if o.calls == nil {
		return window
	}
	stored, err := o.calls.ListSegmentsByCall(ctx, callID)
	if err != nil {
		if o.logger != nil {
			o.logger.Warn("segment read-back failed, using in-memory window", zap.Error(err))
		}
		return window
	}
	if len(stored) < len(window) {
		return window
	}
	return stored
}

func (o *Orchestrator) enqueue(sess *session, seg *entities.Segment) {
	select {
	case sess.queue <- seg:
		o.publish(Event{Type: EventSegmentFinalized, CallID: seg.CallID, At: time.Now(), Payload: seg})
	default:
		telemetry.SegmentsDropped.Inc()
		if o.logger != nil {
			o.logger.Warn("segment queue full, dropping segment",
				zap.String("segment_id", seg.ID.String()),
			)
		}
	}
}

// worker is the single consumer of the segment queue: strictly ordered,
// one segment at a time. On stop it drains whatever is already queued.
func (o *Orchestrator) worker(sess *session) {
	defer sess.wg.Done()
	for {
		select {
		case <-sess.stop:
			for {
				select {
				case seg := <-sess.queue:
					o.processSegment(sess, seg)
				default:
					return
				}
			}
		case seg := <-sess.queue:
			o.processSegment(sess, seg)
		}
	}
}

// processSegment fans one segment out to the analysis components. The
// sub-tasks run concurrently with each other, but the worker does not
// pick up the next segment until all of them settle. A panic in one
// segment's processing is reported and does not stop the queue.
func (o *Orchestrator) processSegment(sess *session, seg *entities.Segment) {
	defer func() {
		if r := recover(); r != nil {
			if o.logger != nil {
				o.logger.Error("segment processing panicked",
					zap.String("segment_id", seg.ID.String()),
					zap.Any("panic", r),
				)
			}
			o.publish(Event{
				Type:    EventError,
				CallID:  seg.CallID,
				At:      time.Now(),
				Payload: ErrorPayload{Context: "segment_processing", Message: fmt.Sprint(r)},
			})
		}
	}()

	ctx := context.Background()
	recent := tail(o.buffer.FinalSegments(), o.cfg.RecentSegments)
	callContext := o.compressor.BuildContext(seg, recent)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if trigger := o.cueCards.HandleSegment(ctx, seg, callContext); trigger != nil {
			o.publish(Event{Type: EventCueCardRaised, CallID: seg.CallID, At: time.Now(), Payload: trigger})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		var item *entities.PlaybookItem
		if o.cfg.DeepPlaybook {
			item = o.playbooks.CheckCoverageWithLLM(ctx, seg, callContext)
		} else {
			item = o.playbooks.CheckCoverageFast(seg)
		}
		if item != nil {
			o.publish(Event{Type: EventPlaybookItemUpdated, CallID: seg.CallID, At: time.Now(), Payload: item})
		}
	}()

	if seg.Side == entities.SideCounterparty {
		wg.Add(1)
		go func() {
			defer wg.Done()
			trend := o.sentiments.Trend(ctx, o.buffer.FinalSegments())
			sess.setTrend(&trend)
			o.publish(Event{Type: EventSentimentUpdated, CallID: seg.CallID, At: time.Now(), Payload: trend})
		}()
	}

	wg.Wait()
	telemetry.SegmentsProcessed.Inc()

	if o.calls != nil {
		if err := o.calls.MarkSegmentProcessed(ctx, seg.ID); err != nil && o.logger != nil {
			o.logger.Debug("failed to mark segment processed", zap.Error(err))
		}
	}
}

// timers drives the periodic metrics snapshot and compression sweeps.
// They read buffer state independently of the queue and stop as soon as
// the call ends.
func (o *Orchestrator) timers(sess *session) {
	defer sess.wg.Done()
	metricsTicker := time.NewTicker(o.cfg.MetricsInterval)
	defer metricsTicker.Stop()
	compressTicker := time.NewTicker(o.cfg.CompressInterval)
	defer compressTicker.Stop()

	for {
		select {
		case <-sess.stop:
			return
		case <-metricsTicker.C:
			o.metricsTick(sess)
		case <-compressTicker.C:
			o.compressTick(sess)
		}
	}
}

func (o *Orchestrator) metricsTick(sess *session) {
	ctx := context.Background()
	elapsed := time.Since(sess.call.StartedAt).Seconds()
	metrics := callmetrics.Compute(o.buffer.FinalSegments(), elapsed, o.cfg.MonologueThreshold)

	if o.insights != nil {
		snap := &entities.MetricsSnapshot{ID: uuid.New(), CallID: sess.call.ID, Metrics: metrics}
		if err := o.insights.SaveMetricsSnapshot(ctx, snap); err != nil && o.logger != nil {
			o.logger.Debug("failed to persist metrics snapshot", zap.Error(err))
		}
	}
	o.publish(Event{Type: EventMetricsUpdated, CallID: sess.call.ID, At: time.Now(), Payload: metrics})

	coverage := o.playbooks.GetSnapshot()
	in := nudge.Input{
		Metrics:     metrics,
		Sentiment:   sess.lastTrend(),
		CoveragePct: coverage.CoveragePct,
		HasCoverage: len(coverage.Items) > 0,
	}
	if n := o.nudges.Evaluate(ctx, in); n != nil {
		o.publish(Event{Type: EventNudgeRaised, CallID: sess.call.ID, At: time.Now(), Payload: n})
	}
}

func (o *Orchestrator) compressTick(sess *session) {
	ctx := context.Background()
	elapsed := time.Since(sess.call.StartedAt).Seconds()
	o.compressor.Sweep(ctx, o.finalSegments(ctx, sess.call.ID), elapsed)
}

// Snapshot is a point-in-time view of the live call for read-side
// consumers; nil when no call is active.
type Snapshot struct {
	Call      *entities.CallState          `json:"call"`
	Metrics   entities.ConversationMetrics `json:"metrics"`
	Sentiment *entities.SentimentTrend     `json:"sentiment,omitempty"`
	Coverage  entities.CoverageSnapshot    `json:"coverage"`
	Nudges    []entities.Nudge             `json:"nudges"`
}

// LiveSnapshot assembles the current call view on demand
func (o *Orchestrator) LiveSnapshot() *Snapshot {
	o.mu.Lock()
	sess := o.sess
	o.mu.Unlock()
	if sess == nil {
		return nil
	}
	elapsed := time.Since(sess.call.StartedAt).Seconds()
	return &Snapshot{
		Call:      sess.call,
		Metrics:   callmetrics.Compute(o.buffer.FinalSegments(), elapsed, o.cfg.MonologueThreshold),
		Sentiment: sess.lastTrend(),
		Coverage:  o.playbooks.GetSnapshot(),
		Nudges:    o.nudges.History(),
	}
}

func (o *Orchestrator) publish(event Event) {
	switch event.Type {
	case EventCallStarted:
		telemetry.CallsStarted.Inc()
	case EventCallEnded:
		telemetry.CallsEnded.Inc()
	case EventNudgeRaised:
		if n, ok := event.Payload.(*entities.Nudge); ok {
			telemetry.NudgesRaised.WithLabelValues(string(n.Category)).Inc()
		}
	case EventCueCardRaised:
		if t, ok := event.Payload.(*entities.CueCardTrigger); ok {
			telemetry.TriggersRaised.WithLabelValues(string(t.Category)).Inc()
		}
	}

	if o.events != nil {
		o.events.Publish(event)
	}
}

func tail(segments []entities.Segment, n int) []entities.Segment {
	if n <= 0 || len(segments) <= n {
		return segments
	}
	return segments[len(segments)-n:]
}
