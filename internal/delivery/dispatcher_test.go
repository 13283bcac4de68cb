package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

func TestMemoryQueueSendReceive(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, `{"id":"a"}`))
	require.NoError(t, q.Send(ctx, `{"id":"b"}`))

	messages, err := q.Receive(ctx, 10, 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, `{"id":"a"}`, messages[0].Body)
	require.NoError(t, q.Delete(ctx, messages[0].ReceiptHandle))
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(1)
	messages, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMemoryQueueSendRespectsContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Send(ctx, "fill"))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, q.Send(cancelled, "overflow"), context.Canceled)
}

func TestDispatcherDeliversEnqueuedReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(srv.URL, logging.Default())
	sender.sleep = noSleep

	var delivered atomic.Bool
	var gotSession atomic.Value
	done := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := NewMemoryQueue(4)
	d := NewDispatcher(queue, sender, logging.Default(),
		WithOutcomeFunc(func(_ context.Context, sessionID string, out Outcome) {
			delivered.Store(out.Delivered)
			gotSession.Store(sessionID)
			close(done)
		}),
	)

	go d.Run(ctx)
	require.NoError(t, d.Enqueue(ctx, testReport()))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery outcome never reported")
	}
	assert.True(t, delivered.Load())
	assert.Equal(t, "sess-1", gotSession.Load())
}

func TestDispatcherDropsUndecodablePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewSender(srv.URL, logging.Default())
	queue := NewMemoryQueue(4)
	d := NewDispatcher(queue, sender, logging.Default())

	ctx := context.Background()
	require.NoError(t, queue.Send(ctx, "not json"))

	messages, err := queue.Receive(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	d.process(ctx, messages[0])
}
