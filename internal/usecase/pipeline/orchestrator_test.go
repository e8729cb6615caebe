package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/usecase/buffer"
	"github.com/johnquangdev/call-copilot/internal/usecase/compress"
	"github.com/johnquangdev/call-copilot/internal/usecase/cuecard"
	"github.com/johnquangdev/call-copilot/internal/usecase/nudge"
	"github.com/johnquangdev/call-copilot/internal/usecase/playbook"
	"github.com/johnquangdev/call-copilot/internal/usecase/sentiment"
	"github.com/johnquangdev/call-copilot/internal/usecase/summary"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingPublisher) ofType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingPublisher) waitFor(t *testing.T, typ EventType) Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := r.ofType(typ); len(evs) > 0 {
			return evs[0]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s event", typ)
	return Event{}
}

type callStore struct {
	mu       sync.Mutex
	segments []entities.Segment
}

func (s *callStore) CreateCall(ctx context.Context, call *entities.CallState) error { return nil }
func (s *callStore) UpdateCall(ctx context.Context, call *entities.CallState) error { return nil }
func (s *callStore) GetCallByID(ctx context.Context, id uuid.UUID) (*entities.CallState, error) {
	return nil, nil
}
func (s *callStore) MarkSegmentProcessed(ctx context.Context, segmentID uuid.UUID) error {
	return nil
}

func (s *callStore) SaveSegment(ctx context.Context, seg *entities.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = append(s.segments, *seg)
	return nil
}

func (s *callStore) ListSegmentsByCall(ctx context.Context, callID uuid.UUID) ([]entities.Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entities.Segment, len(s.segments))
	copy(out, s.segments)
	return out, nil
}

func (s *callStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.segments)
}

type failingGen struct{}

func (failingGen) Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error) {
	return "", errors.New("model unavailable")
}

func testConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		BufferHighWater:    200,
		BufferLowWater:     100,
		ChunkSeconds:       300,
		CompressLookback:   300,
		CompressInterval:   time.Hour,
		ContextTokenBudget: 6000,
		CharsPerToken:      4,
		RecentSegments:     20,
		SentimentHistory:   15,
		TrendThreshold:     0.3,
		MetricsInterval:    time.Hour,
		MonologueThreshold: 60,
		NudgeCooldown:      120,
		CueCooldown:        60,
	}
}

func newTestOrchestrator() (*Orchestrator, *recordingPublisher) {
	cfg := testConfig()
	gen := failingGen{}
	pub := &recordingPublisher{}

	o := New(
		cfg,
		buffer.New(cfg, nil, nil),
		compress.New(cfg, gen, nil, nil),
		sentiment.New(cfg, gen, nil, nil),
		cuecard.New(cfg, gen, nil, nil),
		playbook.New(cfg, gen, nil, nil),
		nudge.New(cfg, nil, nil),
		summary.New(gen, nil, nil),
		nil,
		nil,
		pub,
		nil,
	)
	return o, pub
}

func TestCallLifecycle(t *testing.T) {
	o, pub := newTestOrchestrator()

	if o.State() != StateIdle {
		t.Fatalf("expected idle before start, got %s", o.State())
	}

	call, err := o.StartCall(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if o.State() != StateActive || o.ActiveCall() == nil {
		t.Fatal("expected active state with a live call")
	}
	pub.waitFor(t, EventCallStarted)

	if err := o.EndCall(context.Background()); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if o.State() != StateIdle || o.ActiveCall() != nil {
		t.Fatal("expected idle state after end")
	}

	ended := pub.waitFor(t, EventCallEnded)
	payload, ok := ended.Payload.(CallEndedPayload)
	if !ok {
		t.Fatalf("unexpected terminal payload %T", ended.Payload)
	}
	if payload.Report == nil {
		t.Fatal("terminal event must carry a report")
	}
	// every extraction task failed, yet every section must be present
	if payload.Report.Bullets == nil || payload.Report.Objections == nil || payload.Report.RiskFlags == nil {
		t.Error("report sections must be non-nil even when extraction fails")
	}
	if ended.CallID != call.ID {
		t.Errorf("terminal event for wrong call: %s", ended.CallID)
	}
}

func TestEndCallWithoutActiveCallIsNoOp(t *testing.T) {
	o, pub := newTestOrchestrator()
	if err := o.EndCall(context.Background()); err != nil {
		t.Fatalf("ending with no call must be a no-op, got %v", err)
	}
	if len(pub.ofType(EventCallEnded)) != 0 {
		t.Error("no terminal event expected")
	}
}

func TestStartCallReplacesActiveCall(t *testing.T) {
	o, pub := newTestOrchestrator()

	first, err := o.StartCall(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	second, err := o.StartCall(context.Background(), "session-2", nil)
	if err != nil {
		t.Fatalf("second start failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected a fresh call")
	}
	if o.ActiveCall().ID != second.ID {
		t.Errorf("expected second call active, got %s", o.ActiveCall().ID)
	}

	ended := pub.waitFor(t, EventCallEnded)
	if ended.CallID != first.ID {
		t.Errorf("expected first call ended on replacement, got %s", ended.CallID)
	}

	if err := o.EndCall(context.Background()); err != nil {
		t.Fatalf("final end failed: %v", err)
	}
}

func TestSegmentFanOutEmitsAnalysisEvents(t *testing.T) {
	o, pub := newTestOrchestrator()
	call, err := o.StartCall(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.EndCall(context.Background())

	now := time.Now()
	seg := o.Ingest(context.Background(), entities.SideCounterparty,
		"that's way too expensive for us", true, now, now.Add(2*time.Second))
	if seg == nil {
		t.Fatal("ingest returned nil while active")
	}

	if ev := pub.waitFor(t, EventSegmentFinalized); ev.CallID != call.ID {
		t.Errorf("segment event for wrong call: %s", ev.CallID)
	}

	card := pub.waitFor(t, EventCueCardRaised)
	trigger, ok := card.Payload.(*entities.CueCardTrigger)
	if !ok {
		t.Fatalf("unexpected cue card payload %T", card.Payload)
	}
	if trigger.Category != entities.CuePricing {
		t.Errorf("expected pricing trigger, got %s", trigger.Category)
	}

	pub.waitFor(t, EventSentimentUpdated)
}

func TestEndCallDrainsQueuedSegments(t *testing.T) {
	o, pub := newTestOrchestrator()
	if _, err := o.StartCall(context.Background(), "session-1", nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	now := time.Now()
	o.Ingest(context.Background(), entities.SideCounterparty,
		"I'd need sign-off from my boss first", true, now, now.Add(time.Second))

	// end immediately: the queued segment must still be processed
	if err := o.EndCall(context.Background()); err != nil {
		t.Fatalf("end failed: %v", err)
	}

	cards := pub.ofType(EventCueCardRaised)
	if len(cards) != 1 {
		t.Fatalf("expected the queued segment analyzed during drain, got %d cue events", len(cards))
	}
	trigger := cards[0].Payload.(*entities.CueCardTrigger)
	if trigger.Category != entities.CueAuthority {
		t.Errorf("expected authority trigger, got %s", trigger.Category)
	}
}

func TestCompressSweepCoversTrimmedSegments(t *testing.T) {
	cfg := testConfig()
	cfg.BufferHighWater = 4
	cfg.BufferLowWater = 2
	cfg.ChunkSeconds = 60
	cfg.CompressLookback = 60

	store := &callStore{}
	gen := failingGen{}
	pub := &recordingPublisher{}
	comp := compress.New(cfg, gen, nil, nil)

	o := New(
		cfg,
		buffer.New(cfg, store, nil),
		comp,
		sentiment.New(cfg, gen, nil, nil),
		cuecard.New(cfg, gen, nil, nil),
		playbook.New(cfg, gen, nil, nil),
		nudge.New(cfg, nil, nil),
		summary.New(gen, nil, nil),
		store,
		nil,
		pub,
		nil,
	)

	call, err := o.StartCall(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer o.EndCall(context.Background())
	start := call.StartedAt

	for i := 0; i < 6; i++ {
		o.Ingest(context.Background(), entities.SideCaller, fmt.Sprintf("segment %d", i), true,
			start.Add(time.Duration(i)*time.Second), start.Add(time.Duration(i+1)*time.Second))
	}

	// persistence is async
	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 6 {
		if time.Now().After(deadline) {
			t.Fatal("segments never persisted")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if window := o.buffer.FinalSegments(); len(window) >= 6 {
		t.Fatalf("expected the window trimmed below the persisted set, got %d", len(window))
	}

	o.mu.Lock()
	sess := o.sess
	o.mu.Unlock()
	// age the call so the first bucket is past the lookback cutoff
	sess.call.StartedAt = start.Add(-200 * time.Second)
	o.compressTick(sess)

	chunks := comp.Chunks()
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk from the sweep, got %d", len(chunks))
	}
	// the degraded summary counts its input; trimmed segments must be in it
	if !strings.Contains(chunks[0].Summary, "6 segments") {
		t.Fatalf("sweep missed trimmed segments: %q", chunks[0].Summary)
	}
}

func TestLiveSnapshotReflectsActiveCall(t *testing.T) {
	o, _ := newTestOrchestrator()
	if o.LiveSnapshot() != nil {
		t.Fatal("expected nil snapshot while idle")
	}

	call, err := o.StartCall(context.Background(), "session-1", nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	snap := o.LiveSnapshot()
	if snap == nil || snap.Call.ID != call.ID {
		t.Fatal("expected snapshot for the live call")
	}
	if len(snap.Coverage.Items) == 0 {
		t.Error("snapshot should expose playbook coverage items")
	}

	if err := o.EndCall(context.Background()); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if o.LiveSnapshot() != nil {
		t.Error("expected nil snapshot after end")
	}
}

func TestIngestIgnoredWhileIdle(t *testing.T) {
	o, pub := newTestOrchestrator()
	now := time.Now()
	if seg := o.Ingest(context.Background(), entities.SideCaller, "hello", true, now, now); seg != nil {
		t.Fatal("ingest must be dropped with no active call")
	}
	if len(pub.ofType(EventSegmentFinalized)) != 0 {
		t.Error("no events expected while idle")
	}
}
