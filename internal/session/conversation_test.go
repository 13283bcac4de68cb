package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/internal/intel"
)

func TestConversation_Lifecycle(t *testing.T) {
	c := newConversation("sess-1", time.Now())
	assert.Equal(t, StatePending, c.State)

	require.NoError(t, c.Transition(StatePending))
	require.NoError(t, c.Transition(StateScamDetected))
	require.NoError(t, c.Transition(StateEngaging))
	require.NoError(t, c.Transition(StateEngaging))
	require.NoError(t, c.Transition(StateCompleted))
	require.NoError(t, c.Transition(StateCallbackSent))

	assert.True(t, c.State.Terminal())
	assert.True(t, c.State.Frozen())

	// No transition leaves CALLBACK_SENT.
	for _, next := range []State{StatePending, StateScamDetected, StateEngaging, StateCompleted, StateCallbackSent} {
		err := c.Transition(next)
		assert.ErrorIs(t, err, ErrTerminalState, "CALLBACK_SENT -> %s must fail", next)
	}
	assert.Equal(t, StateCallbackSent, c.State)
}

func TestConversation_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want error
	}{
		{"pending cannot engage directly", StatePending, StateEngaging, ErrInvalidTransition},
		{"pending cannot complete", StatePending, StateCompleted, ErrInvalidTransition},
		{"scam detected cannot regress", StateScamDetected, StatePending, ErrInvalidTransition},
		{"engaging cannot skip to callback", StateEngaging, StateCallbackSent, ErrInvalidTransition},
		{"completed cannot reopen", StateCompleted, StateEngaging, ErrInvalidTransition},
		{"callback sent is terminal", StateCallbackSent, StateCompleted, ErrTerminalState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConversation("sess-1", time.Now())
			c.State = tt.from

			err := c.Transition(tt.to)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.from, c.State, "failed transition must not change state")
		})
	}
}

func TestConversation_TurnCountsAgentRepliesOnly(t *testing.T) {
	c := newConversation("sess-1", time.Now())

	require.NoError(t, c.AppendMessage(Message{Role: RoleScammer, Text: "hello"}))
	require.NoError(t, c.AppendMessage(Message{Role: RoleScammer, Text: "anyone there?"}))
	assert.Equal(t, 0, c.TurnCount)
	assert.Equal(t, 2, c.TotalMessages)

	require.NoError(t, c.AppendMessage(Message{Role: RoleAgent, Text: "haan beta?"}))
	assert.Equal(t, 1, c.TurnCount)
	assert.Equal(t, 3, c.TotalMessages)
}

func TestConversation_FrozenRejectsMutation(t *testing.T) {
	c := newConversation("sess-1", time.Now())
	c.State = StateCompleted

	err := c.AppendMessage(Message{Role: RoleScammer, Text: "one more thing"})
	assert.ErrorIs(t, err, ErrTerminalState)

	err = c.MergeIntelligence(intel.Intelligence{UPIIDs: []string{"late@upi"}})
	assert.ErrorIs(t, err, ErrTerminalState)
	assert.Equal(t, 0, c.Intelligence.Count())
	assert.Empty(t, c.History)
}

func TestConversation_MergeIsUnion(t *testing.T) {
	c := newConversation("sess-1", time.Now())

	require.NoError(t, c.MergeIntelligence(intel.Intelligence{
		UPIIDs:       []string{"fraud@upi"},
		PhoneNumbers: []string{"9876543210"},
	}))
	require.NoError(t, c.MergeIntelligence(intel.Intelligence{
		UPIIDs: []string{"fraud@upi", "other@upi"},
	}))

	assert.ElementsMatch(t, []string{"fraud@upi", "other@upi"}, c.Intelligence.UPIIDs)
	assert.Equal(t, []string{"9876543210"}, c.Intelligence.PhoneNumbers)
}

func TestConversation_SenderHistory(t *testing.T) {
	c := newConversation("sess-1", time.Now())
	require.NoError(t, c.AppendMessage(Message{Role: RoleScammer, Text: "first"}))
	require.NoError(t, c.AppendMessage(Message{Role: RoleAgent, Text: "reply"}))
	require.NoError(t, c.AppendMessage(Message{Role: RoleScammer, Text: "second"}))

	assert.Equal(t, []string{"first", "second"}, c.SenderHistory())
}

func TestConversation_SnapshotIsACopy(t *testing.T) {
	c := newConversation("sess-1", time.Now())
	require.NoError(t, c.AppendMessage(Message{Role: RoleScammer, Text: "hello"}))
	c.Notes = &Notes{Summary: "original"}

	snap := c.snapshot()
	snap.History[0].Text = "mutated"
	snap.Notes.Summary = "mutated"

	assert.Equal(t, "hello", c.History[0].Text)
	assert.Equal(t, "original", c.Notes.Summary)
}
