package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/pkg/ai"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

const (
	positiveThreshold = 0.15
	negativeThreshold = -0.15
	excerptLen        = 80
	compareWindow     = 5
	cacheTTL          = 30 * time.Minute
)

// Generator is the deep-analysis path for ambiguous text
type Generator interface {
	Generate(ctx context.Context, system, prompt string, expectJSON bool, maxTokens int) (string, error)
}

// Cache stores per-segment classification results so repeated trend
// recomputes stay cheap
type Cache interface {
	Get(key string) (string, bool)
	Set(key string, value string, expiration time.Duration)
}

// Tracker classifies customer-side segments and derives a trend over a
// rolling history. The lexical pass is always authoritative unless the
// deep path is enabled and succeeds.
type Tracker struct {
	cfg    *config.PipelineConfig
	gen    Generator
	cache  Cache
	logger *zap.Logger
}

// New creates a sentiment tracker. gen and cache may be nil.
func New(cfg *config.PipelineConfig, gen Generator, cache Cache, logger *zap.Logger) *Tracker {
	return &Tracker{cfg: cfg, gen: gen, cache: cache, logger: logger}
}

// Classify scores text with the ordered lexical pattern groups,
// bounding the result to [-1, 1]
func (t *Tracker) Classify(text string) (entities.SentimentLabel, float64) {
	var score float64
	for _, g := range lexicalGroups {
		for _, p := range g.patterns {
			if p.MatchString(text) {
				score += g.weight
			}
		}
	}
	if strings.Contains(text, "?") {
		score += questionWeight
	}
	if score > 1 {
		score = 1
	} else if score < -1 {
		score = -1
	}
	return labelFor(score), score
}

func labelFor(score float64) entities.SentimentLabel {
	switch {
	case score > positiveThreshold:
		return entities.SentimentPositive
	case score < negativeThreshold:
		return entities.SentimentNegative
	default:
		return entities.SentimentNeutral
	}
}

type deepResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ClassifySegment classifies one segment, preferring the cached result.
// When the lexical score is ambiguous and deep analysis is enabled it
// consults the text-generation service, falling back to the lexical
// result on any error.
func (t *Tracker) ClassifySegment(ctx context.Context, seg *entities.Segment) entities.SentimentEntry {
	key := "sentiment:" + seg.ID.String()
	if t.cache != nil {
		if raw, ok := t.cache.Get(key); ok {
			var entry entities.SentimentEntry
			if err := json.Unmarshal([]byte(raw), &entry); err == nil {
				return entry
			}
		}
	}

	label, score := t.Classify(seg.Text)

	if t.cfg.DeepSentiment && t.gen != nil && label == entities.SentimentNeutral {
		if deepLabel, deepScore, err := t.deepClassify(ctx, seg.Text); err == nil {
			label, score = deepLabel, deepScore
		} else if t.logger != nil {
			t.logger.Debug("deep sentiment failed, keeping lexical result", zap.Error(err))
		}
	}

	entry := entities.SentimentEntry{
		Offset:  seg.StartOffset,
		Label:   label,
		Score:   score,
		Excerpt: excerpt(seg.Text),
	}

	if t.cache != nil {
		if raw, err := json.Marshal(entry); err == nil {
			t.cache.Set(key, string(raw), cacheTTL)
		}
	}
	return entry
}

func (t *Tracker) deepClassify(ctx context.Context, text string) (entities.SentimentLabel, float64, error) {
	prompt := fmt.Sprintf(
		"Classify the sentiment of this customer statement from a sales call.\n"+
			"Return JSON: {\"label\": \"positive|neutral|negative\", \"score\": <-1..1>}\n\nStatement: %s", text)
	raw, err := t.gen.Generate(ctx, "You are a precise sentiment classifier.", prompt, true, 128)
	if err != nil {
		return "", 0, err
	}
	var res deepResult
	if err := ai.DecodeJSON(raw, &res); err != nil {
		return "", 0, err
	}
	switch entities.SentimentLabel(res.Label) {
	case entities.SentimentPositive, entities.SentimentNeutral, entities.SentimentNegative:
	default:
		return "", 0, fmt.Errorf("unknown sentiment label %q", res.Label)
	}
	if res.Score > 1 {
		res.Score = 1
	} else if res.Score < -1 {
		res.Score = -1
	}
	return entities.SentimentLabel(res.Label), res.Score, nil
}

// Trend derives the rolling sentiment trend from counterparty-side
// final segments, comparing the recent sub-window against the earliest.
func (t *Tracker) Trend(ctx context.Context, segments []entities.Segment) entities.SentimentTrend {
	trend := entities.SentimentTrend{
		Current:   entities.SentimentNeutral,
		Direction: entities.TrendStable,
		History:   []entities.SentimentEntry{},
	}

	var customer []entities.Segment
	for _, seg := range segments {
		if seg.IsFinal && seg.Side == entities.SideCounterparty {
			customer = append(customer, seg)
		}
	}
	k := t.cfg.SentimentHistory
	if k <= 0 {
		k = 15
	}
	if len(customer) > k {
		customer = customer[len(customer)-k:]
	}
	if len(customer) == 0 {
		return trend
	}

	var sum float64
	for i := range customer {
		entry := t.ClassifySegment(ctx, &customer[i])
		trend.History = append(trend.History, entry)
		sum += entry.Score
	}
	trend.AverageScore = sum / float64(len(trend.History))
	trend.Current = trend.History[len(trend.History)-1].Label

	n := compareWindow
	if len(trend.History) < n {
		n = len(trend.History)
	}
	recent := average(trend.History[len(trend.History)-n:])
	earliest := average(trend.History[:n])

	threshold := t.cfg.TrendThreshold
	if threshold <= 0 {
		threshold = 0.3
	}
	delta := recent - earliest
	switch {
	case delta > threshold:
		trend.Direction = entities.TrendImproving
	case delta < -threshold:
		trend.Direction = entities.TrendDeclining
	}
	return trend
}

func average(entries []entities.SentimentEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Score
	}
	return sum / float64(len(entries))
}

func excerpt(text string) string {
	if len(text) <= excerptLen {
		return text
	}
	return text[:excerptLen] + "..."
}
