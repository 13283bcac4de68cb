package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/internal/intel"
)

func newTestMirror(t *testing.T) *Mirror {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewMirror(client, nil)
}

func TestMirror_SaveAndLoad(t *testing.T) {
	mirror := newTestMirror(t)
	ctx := context.Background()

	snap := Snapshot{
		SessionID:    "sess-42",
		State:        StateEngaging,
		ScamDetected: true,
		TurnCount:    4,
		Intelligence: intel.Intelligence{
			UPIIDs:       []string{"fraud@ybl"},
			PhoneNumbers: []string{"+919876543210"},
		},
		IntelCount:     2,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
		LastActivityAt: time.Now().UTC().Truncate(time.Second),
	}

	require.NoError(t, mirror.Save(ctx, snap))

	got, ok, err := mirror.Load(ctx, "sess-42")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap.State, got.State)
	assert.Equal(t, snap.TurnCount, got.TurnCount)
	assert.Equal(t, snap.Intelligence.UPIIDs, got.Intelligence.UPIIDs)
}

func TestMirror_LoadMissing(t *testing.T) {
	mirror := newTestMirror(t)

	_, ok, err := mirror.Load(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.False(t, ok)
}
