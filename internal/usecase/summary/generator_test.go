package summary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

type fakeReportStore struct {
	mu    sync.Mutex
	saved []*entities.CallReport
}

func (f *fakeReportStore) SaveReport(ctx context.Context, report *entities.CallReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, report)
	return nil
}

func (f *fakeReportStore) GetReportByCall(ctx context.Context, callID uuid.UUID) (*entities.CallReport, error) {
	return nil, nil
}

// scriptedGen answers each task with a canned response keyed by a
// substring of the system instruction.
type scriptedGen struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	prompts   []string
}

func (s *scriptedGen) Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, system+"\n"+prompt)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	for key, out := range s.responses {
		if strings.Contains(system, key) {
			return out, nil
		}
	}
	return "{}", nil
}

func seg(side entities.Side, text string, start float64) entities.Segment {
	return *entities.NewSegment(uuid.New(), side, text, start, start+5, true)
}

func sampleSegments() []entities.Segment {
	return []entities.Segment{
		seg(entities.SideCaller, "thanks for joining today", 0),
		seg(entities.SideCounterparty, "our onboarding takes way too long", 10),
		seg(entities.SideCaller, "we can cut that down significantly", 20),
		seg(entities.SideCounterparty, "I'd need to check with my boss on pricing", 30),
		seg(entities.SideCaller, "I'll send a proposal by Friday", 40),
	}
}

func TestGenerateAssemblesFullReport(t *testing.T) {
	gen := &scriptedGen{responses: map[string]string{
		"bullet points": `{"bullets": ["Discussed onboarding pain", "Proposal promised Friday"]}`,
		"pain points":   `{"pain_points": ["slow onboarding"], "goals": ["faster ramp-up"]}`,
		"objection":     `{"objections": [{"category": "authority", "text": "need to check with my boss", "response": "offered exec summary", "resolved": false}]}`,
		"commitments":   `{"commitments": [{"side": "caller", "text": "send proposal by Friday"}]}`,
		"next steps":    `{"next_steps": [{"description": "send proposal", "owner": "caller", "due_hint": "Friday"}]}`,
		"decisions":     `{"decisions": [{"text": "move forward with a proposal", "offset_sec": 40}]}`,
	}}
	store := &fakeReportStore{}
	g := New(gen, store, nil)

	report := g.Generate(context.Background(), uuid.New(), sampleSegments())

	if len(report.Bullets) != 2 || len(report.PainPoints) != 1 || len(report.Goals) != 1 {
		t.Errorf("unexpected summary sections: %+v", report)
	}
	if len(report.Objections) != 1 || report.Objections[0].Category != "authority" {
		t.Errorf("unexpected objections: %+v", report.Objections)
	}
	if len(report.NextSteps) != 1 || report.NextSteps[0].DueHint != "Friday" {
		t.Errorf("unexpected next steps: %+v", report.NextSteps)
	}
	if len(store.saved) != 1 {
		t.Errorf("expected report persisted once, got %d", len(store.saved))
	}
}

func TestGenerateAllTasksFailingStillReturnsCompleteReport(t *testing.T) {
	gen := &scriptedGen{err: errors.New("model unavailable")}
	g := New(gen, nil, nil)

	report := g.Generate(context.Background(), uuid.New(), sampleSegments())

	if report == nil {
		t.Fatal("expected a report even with every task failing")
	}
	for name, list := range map[string]interface{}{
		"bullets":     report.Bullets,
		"pain_points": report.PainPoints,
		"goals":       report.Goals,
		"objections":  report.Objections,
		"commitments": report.Commitments,
		"next_steps":  report.NextSteps,
		"decisions":   report.Decisions,
		"risk_flags":  report.RiskFlags,
	} {
		if list == nil {
			t.Errorf("section %s must be non-nil", name)
		}
	}
}

func TestRiskFlagsDerivedDeterministically(t *testing.T) {
	report := entities.NewCallReport(uuid.New())
	report.Objections = []entities.ObjectionRecord{
		{Category: "pricing", Text: "too expensive", Resolved: false},
		{Category: "authority", Text: "not my call", Resolved: false},
	}
	report.Commitments = []entities.Commitment{{Side: entities.SideCaller, Text: "send pricing"}}

	flags := riskFlags(report)

	want := []string{
		"2 unresolved objection(s)",
		"decision maker may not have been on the call",
		"customer pain not clearly identified",
		"no commitments from customer",
	}
	if len(flags) != len(want) {
		t.Fatalf("expected %d flags, got %d: %v", len(want), len(flags), flags)
	}
	for i, f := range want {
		if flags[i] != f {
			t.Errorf("flag %d: expected %q, got %q", i, f, flags[i])
		}
	}
}

func TestRiskFlagsAbsentOnHealthyCall(t *testing.T) {
	report := entities.NewCallReport(uuid.New())
	report.PainPoints = []string{"manual reporting"}
	report.Objections = []entities.ObjectionRecord{{Category: "pricing", Resolved: true}}
	report.Commitments = []entities.Commitment{{Side: entities.SideCounterparty, Text: "loop in our CTO"}}

	if flags := riskFlags(report); len(flags) != 0 {
		t.Errorf("expected no flags, got %v", flags)
	}
}

func TestClosingWindowBiasesToCallEnd(t *testing.T) {
	segments := make([]entities.Segment, 0, 40)
	for i := 0; i < 40; i++ {
		segments = append(segments, seg(entities.SideCaller, "line", float64(i*10)))
	}

	window := closingWindow(segments)
	if len(window) != 12 {
		t.Fatalf("expected 30%% of 40 = 12 segments, got %d", len(window))
	}
	if window[0].StartOffset != 280 {
		t.Errorf("window should start at segment 28, got offset %.0f", window[0].StartOffset)
	}

	short := segments[:6]
	if got := closingWindow(short); len(got) != 6 {
		t.Errorf("short calls use everything, got %d", len(got))
	}

	mid := segments[:20]
	if got := closingWindow(mid); len(got) != 10 {
		t.Errorf("minimum window is 10 segments, got %d", len(got))
	}
}

func TestCounterpartyTranscriptForPainTask(t *testing.T) {
	gen := &scriptedGen{responses: map[string]string{}}
	g := New(gen, nil, nil)
	g.Generate(context.Background(), uuid.New(), sampleSegments())

	var painPrompt string
	gen.mu.Lock()
	for _, p := range gen.prompts {
		if strings.Contains(p, "pain points and goals") {
			painPrompt = p
		}
	}
	gen.mu.Unlock()
	if painPrompt == "" {
		t.Fatal("pain extraction task did not run")
	}
	if strings.Contains(painPrompt, "thanks for joining today") {
		t.Error("pain task must only see counterparty statements")
	}
	if !strings.Contains(painPrompt, "onboarding takes way too long") {
		t.Error("pain task missing counterparty statement")
	}
}
