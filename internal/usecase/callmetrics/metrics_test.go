package callmetrics

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

func seg(side entities.Side, text string, start, end float64) entities.Segment {
	return *entities.NewSegment(uuid.Nil, side, text, start, end, true)
}

func TestCompute_TalkRatio(t *testing.T) {
	segments := []entities.Segment{
		seg(entities.SideCaller, "a long pitch", 0, 80),
		seg(entities.SideCounterparty, "short reply", 80, 100),
	}
	m := Compute(segments, 100, 60)
	if math.Abs(m.TalkRatio.Caller-0.8) > 1e-9 {
		t.Fatalf("caller ratio = %v, want 0.8", m.TalkRatio.Caller)
	}
	if math.Abs(m.TalkRatio.Counterparty-0.2) > 1e-9 {
		t.Fatalf("counterparty ratio = %v, want 0.2", m.TalkRatio.Counterparty)
	}
}

func TestCompute_QuestionCountAndPace(t *testing.T) {
	segments := []entities.Segment{
		seg(entities.SideCaller, "how are you? what brings you here?", 0, 30),
		seg(entities.SideCounterparty, "is this relevant?", 30, 40),
		seg(entities.SideCaller, "one two three four five six", 40, 70),
	}
	m := Compute(segments, 70, 60)
	if m.QuestionCount != 2 {
		t.Fatalf("question count = %d, want 2 (counterparty questions excluded)", m.QuestionCount)
	}
	// 12 caller words over 60s of caller talk
	if math.Abs(m.PaceWPM-12) > 1e-9 {
		t.Fatalf("pace = %v wpm, want 12", m.PaceWPM)
	}
}

func TestCompute_MonologueDetection(t *testing.T) {
	segments := []entities.Segment{
		seg(entities.SideCounterparty, "hi", 0, 5),
		seg(entities.SideCaller, "talking", 5, 40),
		seg(entities.SideCaller, "still talking", 40, 75),
		seg(entities.SideCounterparty, "ok", 75, 78),
	}
	m := Compute(segments, 78, 60)
	if !m.Monologue.Detected {
		t.Fatal("expected monologue detected for 70s caller run")
	}
	if m.Monologue.Side != entities.SideCaller {
		t.Fatalf("monologue side = %s", m.Monologue.Side)
	}
	if math.Abs(m.Monologue.DurationSec-70) > 1e-9 {
		t.Fatalf("monologue duration = %v, want 70", m.Monologue.DurationSec)
	}
}

func TestCompute_NoMonologueBelowThreshold(t *testing.T) {
	segments := []entities.Segment{
		seg(entities.SideCaller, "brief", 0, 30),
		seg(entities.SideCounterparty, "reply", 30, 50),
	}
	m := Compute(segments, 50, 60)
	if m.Monologue.Detected {
		t.Fatal("30s run should not be a monologue at 60s threshold")
	}
}

func TestCompute_EmptyAndInterimSegments(t *testing.T) {
	interim := entities.NewSegment(uuid.Nil, entities.SideCaller, "interim?", 0, 10, false)
	m := Compute([]entities.Segment{*interim}, 10, 60)
	if m.SegmentCount != 0 || m.QuestionCount != 0 {
		t.Fatalf("interim segments must be ignored: %+v", m)
	}
	if m.TalkRatio.Caller != 0 || m.PaceWPM != 0 {
		t.Fatalf("zero-duration metrics expected: %+v", m)
	}
}
