package nudge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/internal/domain/repositories"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

const (
	talkRatioHard          = 0.75
	talkRatioSoft          = 0.65
	talkRatioMinSec        = 60
	questionRateMinSec     = 180
	expectedQuestionGapSec = 120
	paceThresholdWPM       = 180
	coverageMinSec         = 900
	coverageFloorPct       = 30
	nextStepsWindowSec     = 60
)

// nextStepsMarks are the call offsets (seconds) where a next-steps
// reminder is considered, each at most once.
var nextStepsMarks = []float64{1200, 1800}

// Input is everything one evaluation reads. The engine itself holds
// only cooldown and suppression state.
type Input struct {
	Metrics     entities.ConversationMetrics
	Sentiment   *entities.SentimentTrend
	CoveragePct float64
	HasCoverage bool
}

// Engine is a rate-limited decision function over metrics, sentiment,
// elapsed time, and coverage. At most one nudge per cooldown window;
// checks run in a fixed priority order and the first match wins.
type Engine struct {
	cfg    *config.PipelineConfig
	repo   repositories.InsightRepository
	logger *zap.Logger

	mu          sync.Mutex
	callID      uuid.UUID
	fired       bool
	lastFiredAt float64
	history     []entities.Nudge
	suppressed  map[entities.NudgeCategory]bool
	marksFired  map[float64]bool
}

// New creates a nudge engine
func New(cfg *config.PipelineConfig, repo repositories.InsightRepository, logger *zap.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		repo:       repo,
		logger:     logger,
		suppressed: make(map[entities.NudgeCategory]bool),
		marksFired: make(map[float64]bool),
	}
}

// StartCall resets per-call cooldown, suppression, and history
func (e *Engine) StartCall(callID uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.callID = callID
	e.fired = false
	e.lastFiredAt = 0
	e.history = nil
	e.suppressed = make(map[entities.NudgeCategory]bool)
	e.marksFired = make(map[float64]bool)
}

// Suppress disables a category for the remainder of the call
func (e *Engine) Suppress(category entities.NudgeCategory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.suppressed[category] = true
}

// History returns all nudges raised so far this call
func (e *Engine) History() []entities.Nudge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.Nudge(nil), e.history...)
}

// Evaluate runs the priority chain once. Returns the raised nudge or
// nil. Suppressed categories are skipped so lower-priority checks still
// get a chance; a suppressed match never touches the cooldown clock.
func (e *Engine) Evaluate(ctx context.Context, in Input) *entities.Nudge {
	elapsed := in.Metrics.ElapsedSec

	e.mu.Lock()
	if e.fired && elapsed-e.lastFiredAt < float64(e.cfg.NudgeCooldown) {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	for _, check := range e.chain(in) {
		candidate := check(elapsed)
		if candidate == nil {
			continue
		}
		e.mu.Lock()
		if e.suppressed[candidate.Category] {
			e.mu.Unlock()
			continue
		}
		e.fired = true
		e.lastFiredAt = elapsed
		e.history = append(e.history, *candidate)
		e.mu.Unlock()

		if e.repo != nil {
			if err := e.repo.SaveNudge(ctx, candidate); err != nil && e.logger != nil {
				e.logger.Warn("failed to persist nudge",
					zap.String("call_id", candidate.CallID.String()),
					zap.String("category", string(candidate.Category)),
					zap.Error(err),
				)
			}
		}
		return candidate
	}
	return nil
}

type check func(elapsed float64) *entities.Nudge

// chain is the fixed priority order: structural conversation problems
// outrank pacing and coverage reminders.
func (e *Engine) chain(in Input) []check {
	return []check{
		func(elapsed float64) *entities.Nudge { return e.checkMonologue(in, elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkSentiment(in, elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkTalkRatio(in, elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkQuestionRate(in, elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkPace(in, elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkNextSteps(elapsed) },
		func(elapsed float64) *entities.Nudge { return e.checkCoverage(in, elapsed) },
	}
}

func (e *Engine) checkMonologue(in Input, elapsed float64) *entities.Nudge {
	m := in.Metrics.Monologue
	if !m.Detected || m.Side != entities.SideCaller {
		return nil
	}
	return entities.NewNudge(e.callID, entities.NudgeMonologue, entities.SeverityHigh,
		fmt.Sprintf("You've been speaking for %.0f seconds straight", m.DurationSec),
		"Pause and ask the customer an open question",
		elapsed)
}

func (e *Engine) checkSentiment(in Input, elapsed float64) *entities.Nudge {
	t := in.Sentiment
	if t == nil || t.Direction != entities.TrendDeclining {
		return nil
	}
	switch {
	case t.Current == entities.SentimentNegative:
		return entities.NewNudge(e.callID, entities.NudgeSentimentDecline, entities.SeverityHigh,
			"Customer sentiment is turning negative",
			"Acknowledge their concern before moving on",
			elapsed)
	case t.AverageScore < 0:
		return entities.NewNudge(e.callID, entities.NudgeSentimentDecline, entities.SeverityMedium,
			"Customer sentiment is trending down",
			"Check in with the customer on how this is landing",
			elapsed)
	}
	return nil
}

func (e *Engine) checkTalkRatio(in Input, elapsed float64) *entities.Nudge {
	if elapsed < talkRatioMinSec {
		return nil
	}
	ratio := in.Metrics.TalkRatio.Caller
	switch {
	case ratio > talkRatioHard:
		return entities.NewNudge(e.callID, entities.NudgeTalkRatio, entities.SeverityHigh,
			fmt.Sprintf("You're doing %.0f%% of the talking", ratio*100),
			"Hand the conversation back to the customer",
			elapsed)
	case ratio > talkRatioSoft:
		return entities.NewNudge(e.callID, entities.NudgeTalkRatio, entities.SeverityMedium,
			fmt.Sprintf("Talk ratio is creeping up (%.0f%%)", ratio*100),
			"Ask a question to rebalance the conversation",
			elapsed)
	}
	return nil
}

func (e *Engine) checkQuestionRate(in Input, elapsed float64) *entities.Nudge {
	if elapsed < questionRateMinSec {
		return nil
	}
	expected := elapsed / expectedQuestionGapSec
	if float64(in.Metrics.QuestionCount) >= 0.5*expected {
		return nil
	}
	return entities.NewNudge(e.callID, entities.NudgeQuestionRate, entities.SeverityLow,
		"You haven't asked many questions lately",
		"Ask a discovery question to keep the customer engaged",
		elapsed)
}

func (e *Engine) checkPace(in Input, elapsed float64) *entities.Nudge {
	if in.Metrics.PaceWPM <= paceThresholdWPM {
		return nil
	}
	return entities.NewNudge(e.callID, entities.NudgePace, entities.SeverityLow,
		fmt.Sprintf("You're speaking fast (%.0f wpm)", in.Metrics.PaceWPM),
		"Slow down so key points land",
		elapsed)
}

func (e *Engine) checkNextSteps(elapsed float64) *entities.Nudge {
	for _, mark := range nextStepsMarks {
		if elapsed < mark || elapsed >= mark+nextStepsWindowSec {
			continue
		}
		e.mu.Lock()
		done := e.marksFired[mark]
		if !done {
			e.marksFired[mark] = true
		}
		e.mu.Unlock()
		if done {
			continue
		}
		return entities.NewNudge(e.callID, entities.NudgeNextSteps, entities.SeverityMedium,
			fmt.Sprintf("%.0f minutes in: time to lock in next steps", mark/60),
			"Propose a concrete follow-up before wrapping up",
			elapsed)
	}
	return nil
}

func (e *Engine) checkCoverage(in Input, elapsed float64) *entities.Nudge {
	if !in.HasCoverage || elapsed < coverageMinSec || in.CoveragePct >= coverageFloorPct {
		return nil
	}
	return entities.NewNudge(e.callID, entities.NudgeLowCoverage, entities.SeverityMedium,
		fmt.Sprintf("Only %.0f%% of the playbook is covered so far", in.CoveragePct),
		"Work a missing playbook topic into the conversation",
		elapsed)
}
