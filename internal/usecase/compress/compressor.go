package compress

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/ai"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

// degradedRawSegments is how many trailing raw segments the context
// falls back to when the assembled prompt exceeds the token budget.
const degradedRawSegments = 10

// Generator produces chunk summaries via the text-generation service
type Generator interface {
	Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error)
}

// Compressor folds aged transcript segments into fixed-duration summary
// chunks so LLM context stays bounded on long calls. Each bucket is
// compressed at most once per call.
type Compressor struct {
	cfg    *config.PipelineConfig
	gen    Generator
	repo   repositories.ChunkRepository
	logger *zap.Logger

	mu     sync.Mutex
	callID uuid.UUID
	chunks map[int]*entities.CompressedChunk
}

// New creates a compressor
func New(cfg *config.PipelineConfig, gen Generator, repo repositories.ChunkRepository, logger *zap.Logger) *Compressor {
	return &Compressor{
		cfg:    cfg,
		gen:    gen,
		repo:   repo,
		logger: logger,
		chunks: make(map[int]*entities.CompressedChunk),
	}
}

// StartCall resets per-call state
func (c *Compressor) StartCall(callID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callID = callID
	c.chunks = make(map[int]*entities.CompressedChunk)
}

// Sweep groups final segments that have aged past the lookback window
// into time buckets and compresses each bucket that has no chunk yet.
// A bucket is only eligible once its entire span is past the cutoff, so
// late segments in the live window are never summarized prematurely.
// Returns the chunks created by this pass.
func (c *Compressor) Sweep(ctx context.Context, segments []entities.Segment, elapsedSec float64) []*entities.CompressedChunk {
	bucketSec := float64(c.cfg.ChunkSeconds)
	cutoff := elapsedSec - float64(c.cfg.CompressLookback)

	byBucket := make(map[int][]entities.Segment)
	for _, seg := range segments {
		if !seg.IsFinal || seg.EndOffset >= cutoff {
			continue
		}
		idx := int(seg.StartOffset / bucketSec)
		byBucket[idx] = append(byBucket[idx], seg)
	}

	indexes := make([]int, 0, len(byBucket))
	for idx := range byBucket {
		if float64(idx+1)*bucketSec > cutoff {
			continue
		}
		c.mu.Lock()
		_, done := c.chunks[idx]
		c.mu.Unlock()
		if !done {
			indexes = append(indexes, idx)
		}
	}
	sort.Ints(indexes)

	var created []*entities.CompressedChunk
	for _, idx := range indexes {
		chunk := c.compressBucket(ctx, idx, byBucket[idx])
		c.mu.Lock()
		c.chunks[idx] = chunk
		c.mu.Unlock()
		if c.repo != nil {
			if err := c.repo.SaveChunk(ctx, chunk); err != nil && c.logger != nil {
				c.logger.Warn("failed to persist compressed chunk",
					zap.String("call_id", chunk.CallID.String()),
					zap.Int("chunk_index", chunk.ChunkIndex),
					zap.Error(err),
				)
			}
		}
		created = append(created, chunk)
	}
	return created
}

type chunkResult struct {
	Summary string   `json:"summary"`
	Topics  []string `json:"topics"`
	Moments []struct {
		Offset float64 `json:"offset"`
		Kind   string  `json:"kind"`
		Text   string  `json:"text"`
	} `json:"moments"`
}

func (c *Compressor) compressBucket(ctx context.Context, idx int, segments []entities.Segment) *entities.CompressedChunk {
	c.mu.Lock()
	callID := c.callID
	c.mu.Unlock()

	chunk := entities.NewCompressedChunk(callID, idx, float64(c.cfg.ChunkSeconds))

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].StartOffset < segments[j].StartOffset
	})

	var transcript strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&transcript, "[%.0fs %s] %s\n", seg.StartOffset, seg.Side, seg.Text)
	}

	res, err := c.summarize(ctx, transcript.String())
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("chunk summarization failed, writing degraded chunk",
				zap.String("call_id", callID.String()),
				zap.Int("chunk_index", idx),
				zap.Error(err),
			)
		}
		chunk.Degraded = true
		chunk.Summary = fmt.Sprintf("Conversation from %.0fs to %.0fs (%d segments, summary unavailable)",
			chunk.StartOffset, chunk.EndOffset, len(segments))
		return chunk
	}

	chunk.Summary = res.Summary
	chunk.Topics = res.Topics
	for _, m := range res.Moments {
		chunk.Moments = append(chunk.Moments, entities.NotableMoment{
			Offset: m.Offset,
			Kind:   entities.MomentKind(m.Kind),
			Text:   m.Text,
		})
	}
	return chunk
}

func (c *Compressor) summarize(ctx context.Context, transcript string) (*chunkResult, error) {
	if c.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}
	prompt := fmt.Sprintf(
		"Summarize this sales call excerpt in 2-3 sentences, list the main topics, "+
			"and extract notable moments (objections, commitments, questions, pain points, decisions).\n\n"+
			"Transcript:\n%s\n"+
			"Return JSON: {\"summary\": string, \"topics\": [string], "+
			"\"moments\": [{\"offset\": number, \"kind\": string, \"text\": string}]}",
		transcript)

	raw, err := c.gen.Generate(ctx, "You compress sales call transcripts without losing commitments or objections.", prompt, true, 512)
	if err != nil {
		return nil, err
	}
	var res chunkResult
	if err := ai.DecodeJSON(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to parse chunk summary: %w", err)
	}
	return &res, nil
}

// Chunks returns all chunks for the current call ordered by index
func (c *Compressor) Chunks() []*entities.CompressedChunk {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*entities.CompressedChunk, 0, len(c.chunks))
	for _, chunk := range c.chunks {
		out = append(out, chunk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}

// BuildContext assembles the LLM context: compressed history, then the
// recent raw transcript, then the current segment. If the estimated
// token count exceeds the budget the context degrades to the trailing
// raw segments plus the current one.
func (c *Compressor) BuildContext(current *entities.Segment, recent []entities.Segment) string {
	full := c.renderContext(current, recent, c.Chunks())
	if len(full)/c.cfg.CharsPerToken <= c.cfg.ContextTokenBudget {
		return full
	}

	if c.logger != nil {
		c.logger.Debug("context over token budget, degrading to raw tail",
			zap.Int("estimated_tokens", len(full)/c.cfg.CharsPerToken),
			zap.Int("budget", c.cfg.ContextTokenBudget),
		)
	}
	tail := recent
	if len(tail) > degradedRawSegments {
		tail = tail[len(tail)-degradedRawSegments:]
	}
	return c.renderContext(current, tail, nil)
}

func (c *Compressor) renderContext(current *entities.Segment, recent []entities.Segment, chunks []*entities.CompressedChunk) string {
	var b strings.Builder

	if len(chunks) > 0 {
		b.WriteString("## Earlier in the call\n")
		for _, chunk := range chunks {
			fmt.Fprintf(&b, "[%.0f-%.0fs] %s\n", chunk.StartOffset, chunk.EndOffset, chunk.Summary)
			for _, m := range chunk.Moments {
				fmt.Fprintf(&b, "  - %s at %.0fs: %s\n", m.Kind, m.Offset, m.Text)
			}
		}
		b.WriteString("\n")
	}

	if len(recent) > 0 {
		b.WriteString("## Recent transcript\n")
		for _, seg := range recent {
			fmt.Fprintf(&b, "[%s] %s\n", seg.Side, seg.Text)
		}
		b.WriteString("\n")
	}

	if current != nil {
		fmt.Fprintf(&b, "## Current statement\n[%s] %s\n", current.Side, current.Text)
	}
	return b.String()
}
