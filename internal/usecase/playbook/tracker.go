package playbook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/ai"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

const (
	fastConfidence     = 0.3
	coveredThreshold   = 0.7
	partialThreshold   = 0.4
	maxRecommendations = 4
)

// Generator verifies candidate coverage via the text-generation service
type Generator interface {
	Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error)
}

// Tracker drives the per-item coverage state machine for one call.
// Item status only ever advances: missing -> partial -> covered.
type Tracker struct {
	cfg    *config.PipelineConfig
	gen    Generator
	repo   repositories.PlaybookRepository
	logger *zap.Logger

	mu      sync.Mutex
	session *entities.PlaybookSession
	items   []entities.PlaybookItem
}

// New creates a playbook tracker
func New(cfg *config.PipelineConfig, gen Generator, repo repositories.PlaybookRepository, logger *zap.Logger) *Tracker {
	return &Tracker{cfg: cfg, gen: gen, repo: repo, logger: logger}
}

// Initialize loads the methodology definition (or the designated
// default) and creates the per-call session record. A storage failure
// degrades to the built-in default rather than blocking the call.
func (t *Tracker) Initialize(ctx context.Context, playbookID *uuid.UUID, callID uuid.UUID) {
	def := t.loadDefinition(ctx, playbookID)

	items := make([]entities.PlaybookItem, len(def.Items))
	copy(items, def.Items)
	for i := range items {
		items[i].Status = entities.ItemMissing
		items[i].Evidence = nil
	}

	session := &entities.PlaybookSession{
		ID:         uuid.New(),
		CallID:     callID,
		PlaybookID: def.ID,
	}

	t.mu.Lock()
	t.session = session
	t.items = items
	t.mu.Unlock()

	if t.repo != nil {
		if err := t.repo.SaveSession(ctx, session); err != nil && t.logger != nil {
			t.logger.Warn("failed to persist playbook session",
				zap.String("call_id", callID.String()),
				zap.Error(err),
			)
		}
	}
}

func (t *Tracker) loadDefinition(ctx context.Context, playbookID *uuid.UUID) *entities.PlaybookDefinition {
	if t.repo != nil {
		if playbookID != nil {
			if def, err := t.repo.GetDefinitionByID(ctx, *playbookID); err == nil && def != nil {
				return def
			} else if t.logger != nil {
				t.logger.Warn("playbook lookup failed, using default",
					zap.String("playbook_id", playbookID.String()),
					zap.Error(err),
				)
			}
		}
		if def, err := t.repo.GetDefaultDefinition(ctx); err == nil && def != nil {
			return def
		}
	}
	return DefaultDefinition()
}

// CheckCoverageFast advances the first still-missing item whose keyword
// substring-matches the segment text to partial, with low-confidence
// evidence. Returns the advanced item, or nil.
func (t *Tracker) CheckCoverageFast(seg *entities.Segment) *entities.PlaybookItem {
	if seg == nil || !seg.IsFinal {
		return nil
	}
	lower := strings.ToLower(seg.Text)

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.items {
		item := &t.items[i]
		if item.Status == entities.ItemCovered {
			continue
		}
		if !keywordMatch(lower, item.Keywords) {
			continue
		}
		if item.Status != entities.ItemMissing {
			continue
		}
		item.Advance(entities.ItemPartial, entities.ItemEvidence{
			SegmentID:  seg.ID,
			Offset:     seg.StartOffset,
			Excerpt:    excerpt(seg.Text),
			Confidence: fastConfidence,
		})
		out := *item
		return &out
	}
	return nil
}

type verification struct {
	Covered    bool    `json:"covered"`
	Partial    bool    `json:"partial"`
	Confidence float64 `json:"confidence"`
}

// CheckCoverageWithLLM verifies keyword candidates against the call
// context via a deep call. Confidence > 0.7 marks the item covered;
// confidence in (0.4, 0.7] or an explicit partial flag marks it partial
// (only from missing). A verification error leaves status unchanged.
func (t *Tracker) CheckCoverageWithLLM(ctx context.Context, seg *entities.Segment, callContext string) *entities.PlaybookItem {
	if seg == nil || !seg.IsFinal || t.gen == nil {
		return t.CheckCoverageFast(seg)
	}
	lower := strings.ToLower(seg.Text)

	t.mu.Lock()
	var candidate *entities.PlaybookItem
	for i := range t.items {
		item := &t.items[i]
		if item.Status != entities.ItemCovered && keywordMatch(lower, item.Keywords) {
			candidate = item
			break
		}
	}
	t.mu.Unlock()

	if candidate == nil {
		return nil
	}

	res, err := t.verify(ctx, candidate, seg.Text, callContext)
	if err != nil {
		if t.logger != nil {
			t.logger.Debug("coverage verification failed, status unchanged",
				zap.String("item", candidate.ID),
				zap.Error(err),
			)
		}
		return nil
	}

	ev := entities.ItemEvidence{
		SegmentID:  seg.ID,
		Offset:     seg.StartOffset,
		Excerpt:    excerpt(seg.Text),
		Confidence: res.Confidence,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case res.Confidence > coveredThreshold:
		candidate.Advance(entities.ItemCovered, ev)
	case res.Confidence > partialThreshold || res.Partial:
		candidate.Advance(entities.ItemPartial, ev)
	default:
		return nil
	}
	out := *candidate
	return &out
}

func (t *Tracker) verify(ctx context.Context, item *entities.PlaybookItem, text, callContext string) (*verification, error) {
	prompt := fmt.Sprintf(
		"Playbook item: %s (%s)\nCustomer/caller statement: %q\nCall context:\n%s\n\n"+
			"Did this exchange cover the playbook item?\n"+
			"Return JSON: {\"covered\": bool, \"partial\": bool, \"confidence\": <0..1>}",
		item.Label, item.Description, text, callContext)

	raw, err := t.gen.Generate(ctx, "You verify sales methodology coverage strictly.", prompt, true, 128)
	if err != nil {
		return nil, err
	}
	var res verification
	if err := ai.DecodeJSON(raw, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetSnapshot computes the weighted coverage percentage and up to four
// recommendations drawn from still-missing items.
func (t *Tracker) GetSnapshot() entities.CoverageSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := entities.CoverageSnapshot{
		Items:           append([]entities.PlaybookItem(nil), t.items...),
		Recommendations: []entities.Recommendation{},
	}
	if len(t.items) == 0 {
		return snap
	}

	var weight float64
	for _, item := range t.items {
		switch item.Status {
		case entities.ItemCovered:
			weight += 1
		case entities.ItemPartial:
			weight += 0.5
		}
	}
	snap.CoveragePct = 100 * weight / float64(len(t.items))

	for _, item := range t.items {
		if item.Status != entities.ItemMissing || len(snap.Recommendations) >= maxRecommendations {
			continue
		}
		rec := entities.Recommendation{ItemID: item.ID, Label: item.Label}
		if len(item.Questions) > 0 {
			rec.Question = item.Questions[0]
		}
		snap.Recommendations = append(snap.Recommendations, rec)
	}
	return snap
}

// Finalize persists the terminal coverage snapshot
func (t *Tracker) Finalize(ctx context.Context) entities.CoverageSnapshot {
	snap := t.GetSnapshot()

	t.mu.Lock()
	session := t.session
	t.mu.Unlock()
	if session == nil {
		return snap
	}

	now := time.Now()
	session.Snapshot = snap
	session.FinalizedAt = &now

	if t.repo != nil {
		if err := t.repo.UpdateSession(ctx, session); err != nil && t.logger != nil {
			t.logger.Warn("failed to persist final playbook snapshot",
				zap.String("call_id", session.CallID.String()),
				zap.Error(err),
			)
		}
	}
	return snap
}

func keywordMatch(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerText, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func excerpt(text string) string {
	const max = 160
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
