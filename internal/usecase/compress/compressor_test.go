package compress

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

type fakeChunkStore struct {
	saved   []*entities.CompressedChunk
	saveErr error
}

func (f *fakeChunkStore) SaveChunk(ctx context.Context, chunk *entities.CompressedChunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, chunk)
	return nil
}

func (f *fakeChunkStore) ListChunksByCall(ctx context.Context, callID uuid.UUID) ([]entities.CompressedChunk, error) {
	return nil, nil
}

type fixedGen struct {
	out   string
	err   error
	calls int
}

func (f *fixedGen) Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		ChunkSeconds:       300,
		CompressLookback:   300,
		ContextTokenBudget: 6000,
		CharsPerToken:      4,
	}
}

func finalSegment(callID uuid.UUID, start, end float64, text string) entities.Segment {
	return *entities.NewSegment(callID, entities.SideCaller, text, start, end, true)
}

func TestSweepCompressesAgedBucketOnce(t *testing.T) {
	gen := &fixedGen{out: `{"summary": "Discussed pricing tiers.", "topics": ["pricing"], "moments": [{"offset": 42, "kind": "objection", "text": "too expensive"}]}`}
	store := &fakeChunkStore{}
	c := New(testPipelineConfig(), gen, store, nil)
	callID := uuid.New()
	c.StartCall(callID)

	segments := []entities.Segment{
		finalSegment(callID, 10, 20, "let's talk pricing"),
		finalSegment(callID, 40, 50, "that's too expensive"),
	}

	// bucket 0 spans 0-300s; both segments aged past the 300s lookback
	created := c.Sweep(context.Background(), segments, 700)
	if len(created) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(created))
	}
	chunk := created[0]
	if chunk.ChunkIndex != 0 || chunk.StartOffset != 0 || chunk.EndOffset != 300 {
		t.Errorf("unexpected bucket bounds: idx=%d [%.0f-%.0f]", chunk.ChunkIndex, chunk.StartOffset, chunk.EndOffset)
	}
	if chunk.Summary != "Discussed pricing tiers." || chunk.Degraded {
		t.Errorf("unexpected chunk content: %+v", chunk)
	}
	if len(chunk.Moments) != 1 || chunk.Moments[0].Kind != entities.MomentObjection {
		t.Errorf("expected one objection moment, got %+v", chunk.Moments)
	}
	if len(store.saved) != 1 {
		t.Errorf("expected chunk persisted, got %d", len(store.saved))
	}

	// same bucket must never be compressed again
	if again := c.Sweep(context.Background(), segments, 900); len(again) != 0 {
		t.Errorf("expected idempotent sweep, got %d new chunks", len(again))
	}
	if gen.calls != 1 {
		t.Errorf("expected a single generation call, got %d", gen.calls)
	}
}

func TestSweepSkipsBucketStillInsideLookback(t *testing.T) {
	gen := &fixedGen{out: `{"summary": "x", "topics": [], "moments": []}`}
	c := New(testPipelineConfig(), gen, nil, nil)
	callID := uuid.New()
	c.StartCall(callID)

	segments := []entities.Segment{finalSegment(callID, 10, 20, "early talk")}

	// cutoff is 550-300=250 < 300, so bucket 0 is not fully aged yet
	if created := c.Sweep(context.Background(), segments, 550); len(created) != 0 {
		t.Fatalf("expected no chunks while bucket overlaps the live window, got %d", len(created))
	}
}

func TestSweepIgnoresInterimSegments(t *testing.T) {
	gen := &fixedGen{out: `{"summary": "x", "topics": [], "moments": []}`}
	c := New(testPipelineConfig(), gen, nil, nil)
	callID := uuid.New()
	c.StartCall(callID)

	interim := *entities.NewSegment(callID, entities.SideCaller, "partial words", 10, 20, false)
	if created := c.Sweep(context.Background(), []entities.Segment{interim}, 700); len(created) != 0 {
		t.Fatalf("interim segments must not be compressed, got %d chunks", len(created))
	}
}

func TestSweepWritesDegradedChunkOnFailure(t *testing.T) {
	gen := &fixedGen{err: errors.New("model unavailable")}
	store := &fakeChunkStore{}
	c := New(testPipelineConfig(), gen, store, nil)
	callID := uuid.New()
	c.StartCall(callID)

	segments := []entities.Segment{finalSegment(callID, 30, 45, "something happened")}
	created := c.Sweep(context.Background(), segments, 700)
	if len(created) != 1 {
		t.Fatalf("expected a degraded placeholder chunk, got %d", len(created))
	}
	chunk := created[0]
	if !chunk.Degraded {
		t.Error("expected Degraded flag set")
	}
	if !strings.Contains(chunk.Summary, "summary unavailable") {
		t.Errorf("expected placeholder summary, got %q", chunk.Summary)
	}

	// degraded chunks still count as covered so the bucket is not retried
	if again := c.Sweep(context.Background(), segments, 900); len(again) != 0 {
		t.Errorf("degraded bucket must not be recompressed, got %d", len(again))
	}
}

func TestSweepHandlesMultipleBucketsInOrder(t *testing.T) {
	gen := &fixedGen{out: `{"summary": "s", "topics": [], "moments": []}`}
	c := New(testPipelineConfig(), gen, nil, nil)
	callID := uuid.New()
	c.StartCall(callID)

	segments := []entities.Segment{
		finalSegment(callID, 400, 410, "second bucket"),
		finalSegment(callID, 10, 20, "first bucket"),
	}
	created := c.Sweep(context.Background(), segments, 1000)
	if len(created) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(created))
	}
	if created[0].ChunkIndex != 0 || created[1].ChunkIndex != 1 {
		t.Errorf("expected ordered indexes 0,1; got %d,%d", created[0].ChunkIndex, created[1].ChunkIndex)
	}

	chunks := c.Chunks()
	if len(chunks) != 2 || chunks[0].ChunkIndex > chunks[1].ChunkIndex {
		t.Errorf("Chunks() must be index-ordered, got %+v", chunks)
	}
}

func TestBuildContextIncludesAllSections(t *testing.T) {
	gen := &fixedGen{out: `{"summary": "Intro and pricing discussion.", "topics": ["pricing"], "moments": []}`}
	c := New(testPipelineConfig(), gen, nil, nil)
	callID := uuid.New()
	c.StartCall(callID)
	c.Sweep(context.Background(), []entities.Segment{finalSegment(callID, 10, 20, "hello")}, 700)

	recent := []entities.Segment{finalSegment(callID, 650, 655, "we compared vendors")}
	current := entities.NewSegment(callID, entities.SideCounterparty, "what about support?", 660, 662, true)

	out := c.BuildContext(current, recent)
	for _, want := range []string{"Earlier in the call", "Intro and pricing discussion.", "Recent transcript", "we compared vendors", "Current statement", "what about support?"} {
		if !strings.Contains(out, want) {
			t.Errorf("context missing %q:\n%s", want, out)
		}
	}
}

func TestBuildContextDegradesWhenOverBudget(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.ContextTokenBudget = 50
	c := New(cfg, nil, nil, nil)
	callID := uuid.New()
	c.StartCall(callID)

	recent := make([]entities.Segment, 0, 20)
	for i := 0; i < 20; i++ {
		recent = append(recent, finalSegment(callID, float64(i*10), float64(i*10+5), fmt.Sprintf("utterance number %d with some extra words", i)))
	}
	current := entities.NewSegment(callID, entities.SideCounterparty, "final question?", 300, 302, true)

	out := c.BuildContext(current, recent)
	if strings.Contains(out, "utterance number 9 ") {
		t.Error("degraded context should drop all but the trailing raw segments")
	}
	for i := 10; i < 20; i++ {
		if !strings.Contains(out, fmt.Sprintf("utterance number %d ", i)) {
			t.Errorf("degraded context missing trailing segment %d", i)
		}
	}
	if !strings.Contains(out, "final question?") {
		t.Error("degraded context must keep the current segment")
	}
}
