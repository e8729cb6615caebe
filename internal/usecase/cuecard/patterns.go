package cuecard

import (
	"regexp"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// detector holds the lexical pattern set for one objection category.
// The table is checked in order; the first non-cooling match wins.
type detector struct {
	category entities.CueCategory
	patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile("(?i)"+e))
	}
	return out
}

var detectors = []detector{
	{
		category: entities.CuePricing,
		patterns: compile(
			`\btoo (expensive|costly|pricey)\b`,
			`\b(can't|cannot) afford\b`,
			`\bover (our|the) budget\b`,
			`\b(price|pricing|cost) is (too )?(high|steep|a problem)\b`,
			`\bcheaper (option|alternative)\b`,
			`\bwhat does (it|this) cost\b`,
		),
	},
	{
		category: entities.CueCompetitor,
		patterns: compile(
			`\balready (use|using|have) (a|another|an existing)\b`,
			`\b(competitor|another vendor|other tools?)\b`,
			`\bhow (do you|are you) (compare|different)\b`,
			`\bwe're (happy|fine) with (our|the) current\b`,
		),
	},
	{
		category: entities.CueTiming,
		patterns: compile(
			`\bnot (a|the) (priority|right time)\b`,
			`\bnot right now\b`,
			`\b(next|this) (quarter|year|fiscal)\b`,
			`\btoo early (for us)?\b`,
			`\b(revisit|circle back) (this|later)\b`,
		),
	},
	{
		category: entities.CueAuthority,
		patterns: compile(
			`\b(my|our) (boss|manager|director|vp|cfo|ceo)\b`,
			`\b(decision|budget) (maker|owner|holder)\b`,
			`\bneed (approval|sign[- ]?off|buy[- ]?in)\b`,
			`\b(talk|run (it|this)) (to|by) (my|the) team\b`,
			`\bnot my (call|decision)\b`,
		),
	},
	{
		category: entities.CueNeed,
		patterns: compile(
			`\b(don't|do not) (really )?(need|see the need)\b`,
			`\bworks? fine (today|as is|for us)\b`,
			`\bwhy would we\b`,
			`\bnot sure (we|this) (need|helps)\b`,
		),
	},
	{
		category: entities.CueTrust,
		patterns: compile(
			`\bnever heard of (you|your)\b`,
			`\b(too small|startup risk)\b`,
			`\b(security|compliance|soc ?2|gdpr) (concern|review|questions?)\b`,
			`\b(case stud(y|ies)|references?|proof)\b`,
		),
	},
	{
		category: entities.CueIntegration,
		patterns: compile(
			`\b(integrate|integration)s? with\b`,
			`\b(api|webhook)s? (access|support)\b`,
			`\b(migration|migrating|switch(ing)? over)\b`,
			`\bwork with our (stack|tools|crm)\b`,
		),
	},
}

// fallbackContent is the safe static card used when generation fails
func fallbackContent(category entities.CueCategory) entities.CueCardContent {
	return entities.CueCardContent{
		Title: "Handling " + string(category) + " objection",
		TalkTracks: []string{
			"Acknowledge the concern before responding.",
			"Anchor the conversation back to the problem they described.",
			"Offer a concrete example of a similar customer.",
		},
		Questions: []string{
			"Can you help me understand what's driving that concern?",
			"What would need to be true for this to make sense?",
		},
	}
}
