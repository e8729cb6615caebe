// Package callmetrics derives talk-time and pacing metrics from the
// finalized segment set. Everything here is a pure function: no state,
// no external calls, safe to invoke from any goroutine.
package callmetrics

import (
	"strings"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
)

// Compute derives conversation metrics from segments and the elapsed
// call duration in seconds. Non-final segments are ignored.
func Compute(segments []entities.Segment, elapsedSec, monologueThreshold float64) entities.ConversationMetrics {
	m := entities.ConversationMetrics{ElapsedSec: elapsedSec}

	var callerDur, counterDur float64
	var callerWords int

	var runSide entities.Side
	var runDur float64
	longest := entities.Monologue{}

	for _, seg := range segments {
		if !seg.IsFinal {
			continue
		}
		m.SegmentCount++
		dur := seg.Duration()

		switch seg.Side {
		case entities.SideCaller:
			callerDur += dur
			callerWords += len(strings.Fields(seg.Text))
			m.QuestionCount += strings.Count(seg.Text, "?")
		case entities.SideCounterparty:
			counterDur += dur
		}

		if seg.Side == runSide {
			runDur += dur
		} else {
			runSide = seg.Side
			runDur = dur
		}
		if runDur > longest.DurationSec {
			longest.DurationSec = runDur
			longest.Side = runSide
		}
	}

	total := callerDur + counterDur
	if total > 0 {
		m.TalkRatio.Caller = callerDur / total
		m.TalkRatio.Counterparty = counterDur / total
	}

	if callerDur > 0 {
		m.PaceWPM = float64(callerWords) / (callerDur / 60.0)
	}

	if longest.DurationSec >= monologueThreshold && monologueThreshold > 0 {
		longest.Detected = true
	}
	m.Monologue = longest

	return m
}
