package entities

// SentimentLabel is a coarse per-segment classification
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// TrendDirection compares recent sentiment against earlier sentiment
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// SentimentEntry is one classified counterparty segment in the history
type SentimentEntry struct {
	Offset  float64        `json:"offset"`
	Label   SentimentLabel `json:"label"`
	Score   float64        `json:"score"`
	Excerpt string         `json:"excerpt"`
}

// SentimentTrend is the derived customer sentiment state; it is computed
// on demand and not stored long-term.
type SentimentTrend struct {
	Current      SentimentLabel   `json:"current"`
	Direction    TrendDirection   `json:"direction"`
	AverageScore float64          `json:"average_score"`
	History      []SentimentEntry `json:"history"`
}
