package delivery

import (
	"context"
	"sync"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// OutcomeFunc is invoked after every delivery attempt sequence, successful or
// not. The session owner uses it to advance the lifecycle and record metrics.
type OutcomeFunc func(ctx context.Context, sessionID string, out Outcome)

// Dispatcher drains the delivery queue and posts reports through the Sender.
// It decouples delivery latency and retries from the webhook request path.
type Dispatcher struct {
	queue     queueClient
	sender    *Sender
	logger    *logging.Logger
	workers   int
	onOutcome OutcomeFunc
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithWorkers sets the number of concurrent delivery workers.
func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithOutcomeFunc registers the post-delivery callback.
func WithOutcomeFunc(fn OutcomeFunc) DispatcherOption {
	return func(d *Dispatcher) {
		d.onOutcome = fn
	}
}

// NewDispatcher creates a dispatcher over the given queue and sender. Pass a
// *MemoryQueue or *SQSQueue as the queue.
func NewDispatcher(queue queueClient, sender *Sender, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if queue == nil {
		panic("delivery: queue cannot be nil")
	}
	if sender == nil {
		panic("delivery: sender cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		queue:   queue,
		sender:  sender,
		logger:  logger,
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue schedules a report for asynchronous delivery.
func (d *Dispatcher) Enqueue(ctx context.Context, report Report) error {
	id, body, err := encodePayload(report)
	if err != nil {
		return err
	}
	if err := d.queue.Send(ctx, body); err != nil {
		return err
	}
	d.logger.Info("report enqueued for delivery",
		"session_id", report.SessionID,
		"payload_id", id,
	)
	return nil
}

// Run drains the queue until ctx is cancelled. It blocks; callers run it in a
// goroutine per the usual worker pattern.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.loop(ctx)
		}()
	}
	wg.Wait()
}

func (d *Dispatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := d.queue.Receive(ctx, 1, 5)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.logger.Error("delivery queue receive failed", "error", err.Error())
			continue
		}

		for _, msg := range messages {
			d.process(ctx, msg)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, msg queueMessage) {
	payload, err := decodePayload(msg.Body)
	if err != nil {
		d.logger.Error("dropping undecodable delivery payload",
			"message_id", msg.ID,
			"error", err.Error(),
		)
		if err := d.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
			d.logger.Error("failed to delete queue message", "error", err.Error())
		}
		return
	}

	out := d.sender.Deliver(ctx, payload.Report)

	if err := d.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		d.logger.Error("failed to delete queue message",
			"message_id", msg.ID,
			"error", err.Error(),
		)
	}

	if d.onOutcome != nil {
		d.onOutcome(ctx, payload.Report.SessionID, out)
	}
}
