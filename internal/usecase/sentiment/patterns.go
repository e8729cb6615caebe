package sentiment

import "regexp"

// patternGroup contributes a fixed weight each time one of its patterns
// matches. Groups are checked in order; the table is data, not code, so
// it can be tuned and tested independently of the scoring logic.
type patternGroup struct {
	name     string
	weight   float64
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile("(?i)"+e))
	}
	return out
}

var lexicalGroups = []patternGroup{
	{
		name:   "strong_positive",
		weight: 0.5,
		patterns: compile(
			`\b(love|perfect|excellent|amazing|fantastic|awesome)\b`,
			`\bexactly what we need\b`,
			`\bthis is great\b`,
		),
	},
	{
		name:   "agreement",
		weight: 0.3,
		patterns: compile(
			`\b(absolutely|definitely|for sure|sounds good|makes sense)\b`,
			`\b(yes|yeah|yep),? (that|this|it) (works|helps)\b`,
			`\bi agree\b`,
		),
	},
	{
		name:   "interest",
		weight: 0.25,
		patterns: compile(
			`\b(interesting|interested|tell me more|curious)\b`,
			`\bhow (does|would) that work\b`,
			`\bcan you (show|walk) (me|us)\b`,
		),
	},
	{
		name:   "progress",
		weight: 0.3,
		patterns: compile(
			`\b(next steps?|move forward|let's do it|sign off|get started)\b`,
			`\bsend (me|us|over) (the|a) (proposal|contract|quote)\b`,
		),
	},
	{
		name:   "strong_negative",
		weight: -0.5,
		patterns: compile(
			`\b(terrible|awful|hate|horrible|waste of time|deal breaker)\b`,
			`\bnot interested\b`,
			`\bthis (won't|will not|doesn't|does not) work\b`,
		),
	},
	{
		name:   "concern",
		weight: -0.3,
		patterns: compile(
			`\b(worried|concern(ed|s)?|hesitant|risky|nervous)\b`,
			`\bnot (sure|convinced|certain)\b`,
		),
	},
	{
		name:   "disagreement",
		weight: -0.3,
		patterns: compile(
			`\bi (disagree|don't think so|don't see it)\b`,
			`\bthat's not (right|true|accurate)\b`,
		),
	},
	{
		name:   "objection_marker",
		weight: -0.35,
		patterns: compile(
			`\btoo (expensive|costly|complicated|complex|much)\b`,
			`\b(can't|cannot) afford\b`,
			`\bover (our|the) budget\b`,
			`\balready (use|have|using)\b`,
		),
	},
	{
		name:   "deferral",
		weight: -0.25,
		patterns: compile(
			`\b(maybe later|not right now|circle back|down the road|next quarter)\b`,
			`\b(think|sleep) (about|on) it\b`,
			`\bget back to you\b`,
		),
	},
}

// questionWeight is a small uncertainty signal for interrogative text
const questionWeight = -0.05
