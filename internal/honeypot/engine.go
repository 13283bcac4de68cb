package honeypot

import (
	"strings"

	"github.com/decoynet/honeypot-platform/internal/session"
)

// Stop reasons, reported on engagement completion.
const (
	StopMaxTurns   = "max_turns_reached"
	StopIntelGoal  = "intelligence_goal_met"
	StopDisengaged = "scammer_disengaged"
	StopAbusive    = "abusive_language"
)

// Limits bounds an engagement. Zero values fall back to the defaults.
type Limits struct {
	MaxTurns      int
	MinTurns      int
	MinIntelItems int
}

func (l Limits) normalized() Limits {
	if l.MaxTurns <= 0 {
		l.MaxTurns = 15
	}
	if l.MinTurns <= 0 {
		l.MinTurns = 3
	}
	if l.MinIntelItems <= 0 {
		l.MinIntelItems = 2
	}
	return l
}

// disengagementLexicon signals the scammer is giving up on the persona.
var disengagementLexicon = []string{
	"bye", "goodbye", "stop", "don't message", "block",
	"wrong number", "not interested", "leave me alone",
	"no thanks", "never mind", "cancel", "abort",
}

// abusiveLexicon ends engagements that turn hostile.
var abusiveLexicon = []string{
	"idiot", "stupid", "fool", "mad", "crazy", "shut up",
	"get lost", "damn", "hell", "bastard", "moron",
}

// ShouldStop evaluates the stop conditions for an active engagement, after the
// inbound message has been recorded and its intelligence merged, before any
// reply is generated. The max-turn cutoff overrides everything else; the
// intelligence goal and both lexicons are gated on the minimum turn count so
// an engagement never ends on a lucky first message.
func ShouldStop(conv *session.Conversation, latestMessage string, limits Limits) (string, bool) {
	limits = limits.normalized()

	if conv.TurnCount >= limits.MaxTurns {
		return StopMaxTurns, true
	}

	pastMinimum := conv.TurnCount >= limits.MinTurns

	if pastMinimum && conv.Intelligence.ActionableCount() >= limits.MinIntelItems {
		return StopIntelGoal, true
	}

	lower := strings.ToLower(latestMessage)
	if pastMinimum && matchesAny(lower, disengagementLexicon) {
		return StopDisengaged, true
	}
	if pastMinimum && matchesAny(lower, abusiveLexicon) {
		return StopAbusive, true
	}

	return "", false
}

func matchesAny(lower string, lexicon []string) bool {
	for _, signal := range lexicon {
		if strings.Contains(lower, signal) {
			return true
		}
	}
	return false
}
