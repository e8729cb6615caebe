package cuecard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/ai"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

const (
	lexicalConfidence  = 0.85
	fallbackConfidence = 0.4
	deepMinConfidence  = 0.6
)

// Generator is the deep-detection / card-resolution path
type Generator interface {
	Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error)
}

// Engine detects objection categories in counterparty segments and
// resolves each confirmed detection to a response card. Cooldowns are
// tracked per category in call-relative seconds so two occurrences of
// the same objection inside the window yield at most one trigger.
type Engine struct {
	cfg    *config.PipelineConfig
	gen    Generator
	repo   repositories.InsightRepository
	logger *zap.Logger

	mu          sync.Mutex
	lastTrigger map[entities.CueCategory]float64
}

// New creates a cue-card engine
func New(cfg *config.PipelineConfig, gen Generator, repo repositories.InsightRepository, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:         cfg,
		gen:         gen,
		repo:        repo,
		logger:      logger,
		lastTrigger: make(map[entities.CueCategory]float64),
	}
}

// StartCall resets per-call cooldown state
func (e *Engine) StartCall() {
	e.mu.Lock()
	e.lastTrigger = make(map[entities.CueCategory]float64)
	e.mu.Unlock()
}

// HandleSegment runs detection for one counterparty-side final segment
// and returns the confirmed trigger, or nil when nothing fired.
// recentContext is a short transcript excerpt used for card ranking.
func (e *Engine) HandleSegment(ctx context.Context, seg *entities.Segment, recentContext string) *entities.CueCardTrigger {
	if seg == nil || !seg.IsFinal || seg.Side != entities.SideCounterparty {
		return nil
	}

	for _, d := range detectors {
		matched := false
		for _, p := range d.patterns {
			if p.MatchString(seg.Text) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		// a cooling-down category is skipped, not an early return:
		// a later category may still legitimately fire
		if e.coolingDown(d.category, seg.StartOffset) {
			continue
		}
		return e.confirm(ctx, seg, d.category, lexicalConfidence, recentContext)
	}

	if e.cfg.DeepCueCards && e.gen != nil {
		return e.deepDetect(ctx, seg, recentContext)
	}
	return nil
}

func (e *Engine) coolingDown(category entities.CueCategory, offset float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.lastTrigger[category]
	if !ok {
		return false
	}
	cooldown := e.cfg.CueCooldown
	if cooldown <= 0 {
		cooldown = 60
	}
	return offset-last < cooldown
}

func (e *Engine) confirm(ctx context.Context, seg *entities.Segment, category entities.CueCategory, confidence float64, recentContext string) *entities.CueCardTrigger {
	e.mu.Lock()
	e.lastTrigger[category] = seg.StartOffset
	e.mu.Unlock()

	content, resolvedConfidence := e.resolveContent(ctx, category, seg.Text, recentContext, confidence)

	trigger := entities.NewCueCardTrigger(seg.CallID, seg.ID, category, excerpt(seg.Text), resolvedConfidence, seg.StartOffset)
	trigger.Content = content

	if e.repo != nil {
		if err := e.repo.SaveTrigger(ctx, trigger); err != nil && e.logger != nil {
			e.logger.Warn("failed to persist cue card trigger",
				zap.String("category", string(category)),
				zap.Error(err),
			)
		}
	}
	return trigger
}

// resolveContent prefers stored cards for the category, ranking when
// several exist, and generates a card only when the store has none.
func (e *Engine) resolveContent(ctx context.Context, category entities.CueCategory, text, recentContext string, confidence float64) (entities.CueCardContent, float64) {
	var cards []entities.StoredCueCard
	if e.repo != nil {
		var err error
		cards, err = e.repo.ListStoredCards(ctx, category)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("stored card lookup failed", zap.Error(err))
			}
			cards = nil
		}
	}

	switch {
	case len(cards) == 1:
		return cards[0].Content, confidence
	case len(cards) > 1:
		return e.rankCards(ctx, cards, text, recentContext), confidence
	}

	if e.gen != nil {
		if content, err := e.generateCard(ctx, category, text); err == nil {
			return content, confidence
		} else if e.logger != nil {
			e.logger.Warn("cue card generation failed, using static fallback",
				zap.String("category", string(category)),
				zap.Error(err),
			)
		}
	}
	return fallbackContent(category), fallbackConfidence
}

func (e *Engine) rankCards(ctx context.Context, cards []entities.StoredCueCard, text, recentContext string) entities.CueCardContent {
	if e.gen == nil {
		return cards[0].Content
	}

	var sb strings.Builder
	for i, c := range cards {
		fmt.Fprintf(&sb, "%d. %s\n", i, c.Content.Title)
	}
	prompt := fmt.Sprintf(
		"A customer said: %q\nRecent context:\n%s\n\nPick the single best response card by index.\n"+
			"Cards:\n%s\nReturn JSON: {\"index\": <number>}", text, recentContext, sb.String())

	raw, err := e.gen.Generate(ctx, "You select the most relevant sales response card.", prompt, true, 64)
	if err != nil {
		return cards[0].Content
	}
	var res struct {
		Index int `json:"index"`
	}
	if err := ai.DecodeJSON(raw, &res); err != nil || res.Index < 0 || res.Index >= len(cards) {
		return cards[0].Content
	}
	return cards[res.Index].Content
}

func (e *Engine) generateCard(ctx context.Context, category entities.CueCategory, text string) (entities.CueCardContent, error) {
	prompt := fmt.Sprintf(
		"A customer on a sales call raised a %s objection: %q\n"+
			"Produce a short response card.\n"+
			"Return JSON: {\"title\": string, \"talk_tracks\": [string], \"questions\": [string]}",
		category, text)

	raw, err := e.gen.Generate(ctx, "You write concise sales objection-handling cards.", prompt, true, 512)
	if err != nil {
		return entities.CueCardContent{}, err
	}
	var content entities.CueCardContent
	if err := ai.DecodeJSON(raw, &content); err != nil {
		return entities.CueCardContent{}, err
	}
	if content.Title == "" {
		content.Title = "Handling " + string(category) + " objection"
	}
	return content, nil
}

type deepDetection struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Detected   bool    `json:"detected"`
}

// deepDetect runs only when lexical matching found nothing. Detections
// at confidence <= 0.6 are discarded.
func (e *Engine) deepDetect(ctx context.Context, seg *entities.Segment, recentContext string) *entities.CueCardTrigger {
	categories := make([]string, 0, len(detectors))
	for _, d := range detectors {
		categories = append(categories, string(d.category))
	}
	prompt := fmt.Sprintf(
		"Does this customer statement contain a sales objection?\nStatement: %q\nContext:\n%s\n"+
			"Categories: %s\nReturn JSON: {\"detected\": bool, \"category\": string, \"confidence\": <0..1>}",
		seg.Text, recentContext, strings.Join(categories, ", "))

	raw, err := e.gen.Generate(ctx, "You detect sales objections conservatively.", prompt, true, 128)
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("deep objection detection failed", zap.Error(err))
		}
		return nil
	}
	var res deepDetection
	if err := ai.DecodeJSON(raw, &res); err != nil {
		return nil
	}
	if !res.Detected || res.Confidence <= deepMinConfidence {
		return nil
	}
	category := entities.CueCategory(res.Category)
	if !validCategory(category) {
		return nil
	}
	if e.coolingDown(category, seg.StartOffset) {
		return nil
	}
	return e.confirm(ctx, seg, category, res.Confidence, recentContext)
}

func validCategory(c entities.CueCategory) bool {
	for _, d := range detectors {
		if d.category == c {
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
