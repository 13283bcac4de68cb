package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/internal/intel"
)

func TestStore_CreateOnFirstSight(t *testing.T) {
	store := NewStore(nil)

	err := store.WithSession("sess-1", func(c *Conversation) error {
		assert.Equal(t, StatePending, c.State)
		assert.Equal(t, "sess-1", c.SessionID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	// Second access reuses the record.
	_ = store.WithSession("sess-1", func(c *Conversation) error {
		c.ScamDetected = true
		return nil
	})
	snap, ok := store.Get("sess-1")
	require.True(t, ok)
	assert.True(t, snap.ScamDetected)
	assert.Equal(t, 1, store.Len())
}

func TestStore_GetUnknown(t *testing.T) {
	store := NewStore(nil)
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestStore_ConcurrentSessionsIndependent(t *testing.T) {
	store := NewStore(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := []string{"a", "b", "c", "d", "e"}[n%5]
			_ = store.WithSession(id, func(c *Conversation) error {
				return c.AppendMessage(Message{
					Role:       RoleScammer,
					Text:       "hello",
					ReceivedAt: time.Now().UTC(),
				})
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
	total := 0
	for _, snap := range store.List() {
		total += snap.TotalMessages
	}
	assert.Equal(t, 50, total)
}

func TestStore_SweepSkipsEngaging(t *testing.T) {
	now := time.Now().UTC()
	clock := now
	store := NewStore(nil, WithMaxAge(time.Hour), WithClock(func() time.Time { return clock }))

	_ = store.WithSession("stale-pending", func(c *Conversation) error { return nil })
	_ = store.WithSession("stale-engaging", func(c *Conversation) error {
		require.NoError(t, c.Transition(StateScamDetected))
		require.NoError(t, c.Transition(StateEngaging))
		return nil
	})

	clock = now.Add(2 * time.Hour)
	_ = store.WithSession("fresh", func(c *Conversation) error { return nil })

	removed := store.Sweep()
	assert.Equal(t, 1, removed)
	_, ok := store.Get("stale-pending")
	assert.False(t, ok)
	_, ok = store.Get("stale-engaging")
	assert.True(t, ok, "engaging sessions must never be evicted")
	_, ok = store.Get("fresh")
	assert.True(t, ok)
}

func TestSnapshot_IsACopy(t *testing.T) {
	store := NewStore(nil)
	_ = store.WithSession("s", func(c *Conversation) error {
		require.NoError(t, c.MergeIntelligence(intel.Intelligence{UPIIDs: []string{"a@ybl"}}))
		return c.AppendMessage(Message{Role: RoleScammer, Text: "pay me", ReceivedAt: time.Now().UTC()})
	})

	snap, ok := store.Get("s")
	require.True(t, ok)
	snap.History[0].Text = "tampered"
	snap.Intelligence.UPIIDs[0] = "tampered"

	again, _ := store.Get("s")
	assert.Equal(t, "pay me", again.History[0].Text)
	assert.Equal(t, "a@ybl", again.Intelligence.UPIIDs[0])
}
