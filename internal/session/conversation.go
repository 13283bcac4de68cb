package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/decoynet/honeypot-platform/internal/intel"
)

// State is the conversation lifecycle state.
type State string

const (
	StatePending      State = "PENDING"
	StateScamDetected State = "SCAM_DETECTED"
	StateEngaging     State = "ENGAGING"
	StateCompleted    State = "COMPLETED"
	StateCallbackSent State = "CALLBACK_SENT"
)

// Frozen reports whether intelligence and history mutations are forbidden.
func (s State) Frozen() bool {
	return s == StateCompleted || s == StateCallbackSent
}

// Terminal reports whether no further transition may leave this state.
func (s State) Terminal() bool {
	return s == StateCallbackSent
}

// validTransitions encodes the lifecycle:
// PENDING -> SCAM_DETECTED -> ENGAGING -> COMPLETED -> CALLBACK_SENT,
// with ENGAGING allowed to self-loop on additional inbound messages.
var validTransitions = map[State][]State{
	StatePending:      {StatePending, StateScamDetected},
	StateScamDetected: {StateEngaging},
	StateEngaging:     {StateEngaging, StateCompleted},
	StateCompleted:    {StateCallbackSent},
	StateCallbackSent: {},
}

// ErrTerminalState marks an attempted mutation of a frozen conversation.
// It is a programming-contract violation: fatal to the request, never to the
// process.
var ErrTerminalState = errors.New("session: conversation is terminal")

// ErrInvalidTransition marks a state change outside the lifecycle table.
var ErrInvalidTransition = errors.New("session: invalid state transition")

// Role identifies who authored a transcript message.
const (
	RoleScammer = "scammer"
	RoleAgent   = "agent"
)

// Message is one immutable transcript entry.
type Message struct {
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// Notes is the structured analysis produced at the end of an engagement.
type Notes struct {
	ScamType          string   `json:"scam_type"`
	TacticsUsed       []string `json:"tactics_used"`
	ExtractedEntities []string `json:"extracted_entities"`
	RiskAssessment    string   `json:"risk_assessment"`
	Summary           string   `json:"summary"`
}

// Conversation is the central mutable record for one session. All mutation
// happens through the Store's per-session lock; the state machine engine is
// the only writer of State, TurnCount, Intelligence and History.
type Conversation struct {
	SessionID      string
	State          State
	ScamDetected   bool
	TurnCount      int
	TotalMessages  int
	Intelligence   intel.Intelligence
	History        []Message
	Notes          *Notes
	CreatedAt      time.Time
	LastActivityAt time.Time
}

func newConversation(sessionID string, now time.Time) *Conversation {
	return &Conversation{
		SessionID:      sessionID,
		State:          StatePending,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// Transition moves the conversation to next, enforcing the lifecycle table.
func (c *Conversation) Transition(next State) error {
	for _, allowed := range validTransitions[c.State] {
		if allowed == next {
			c.State = next
			return nil
		}
	}
	if c.State.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrTerminalState, c.State, next)
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, c.State, next)
}

// AppendMessage records a transcript entry and bumps the activity clock.
func (c *Conversation) AppendMessage(msg Message) error {
	if c.State.Frozen() {
		return fmt.Errorf("%w: cannot append history in %s", ErrTerminalState, c.State)
	}
	c.History = append(c.History, msg)
	c.TotalMessages++
	if msg.Role == RoleAgent {
		c.TurnCount++
	}
	if msg.ReceivedAt.After(c.LastActivityAt) {
		c.LastActivityAt = msg.ReceivedAt
	}
	return nil
}

// MergeIntelligence unions newly extracted items into the running set.
func (c *Conversation) MergeIntelligence(found intel.Intelligence) error {
	if c.State.Frozen() {
		return fmt.Errorf("%w: cannot merge intelligence in %s", ErrTerminalState, c.State)
	}
	c.Intelligence = c.Intelligence.Merge(found)
	return nil
}

// SenderHistory returns the scammer-authored transcript texts, oldest first.
func (c *Conversation) SenderHistory() []string {
	var out []string
	for _, m := range c.History {
		if m.Role == RoleScammer {
			out = append(out, m.Text)
		}
	}
	return out
}

// Snapshot is a read-only copy of a conversation for introspection.
type Snapshot struct {
	SessionID      string             `json:"session_id"`
	State          State              `json:"state"`
	ScamDetected   bool               `json:"scam_detected"`
	TurnCount      int                `json:"turn_count"`
	TotalMessages  int                `json:"total_messages"`
	Intelligence   intel.Intelligence `json:"intelligence"`
	IntelCount     int                `json:"intelligence_count"`
	History        []Message          `json:"history,omitempty"`
	Notes          *Notes             `json:"notes,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	LastActivityAt time.Time          `json:"last_activity_at"`
}

func (c *Conversation) snapshot() Snapshot {
	history := make([]Message, len(c.History))
	copy(history, c.History)

	var notes *Notes
	if c.Notes != nil {
		n := *c.Notes
		notes = &n
	}

	return Snapshot{
		SessionID:      c.SessionID,
		State:          c.State,
		ScamDetected:   c.ScamDetected,
		TurnCount:      c.TurnCount,
		TotalMessages:  c.TotalMessages,
		Intelligence:   c.Intelligence.Merge(intel.Intelligence{}),
		IntelCount:     c.Intelligence.Count(),
		History:        history,
		Notes:          notes,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivityAt,
	}
}
