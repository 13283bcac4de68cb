package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Outcome summarizes a delivery attempt sequence. Delivery failures are
// reported here, never propagated as errors to the session owner.
type Outcome struct {
	Delivered  bool
	Attempts   int
	StatusCode int
	Err        error
	FellBack   bool
}

// Sender posts completed reports to the collector endpoint with bounded
// retries. Transient failures (5xx, transport errors) retry with exponential
// backoff; 4xx responses are permanent and stop the loop immediately. When the
// loop gives up the report is written to the fallback log before returning.
type Sender struct {
	url         string
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration
	fallback    *FallbackLog
	logger      *logging.Logger
	tracer      trace.Tracer
	sleep       func(ctx context.Context, d time.Duration) error
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) SenderOption {
	return func(s *Sender) {
		if client != nil {
			s.client = client
		}
	}
}

// WithRetryPolicy overrides the attempt budget and backoff base.
func WithRetryPolicy(maxAttempts int, baseDelay time.Duration) SenderOption {
	return func(s *Sender) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if baseDelay > 0 {
			s.baseDelay = baseDelay
		}
	}
}

// WithAttemptTimeout overrides the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFallbackLog sets the durable log for reports that exhaust retries.
func WithFallbackLog(log *FallbackLog) SenderOption {
	return func(s *Sender) {
		s.fallback = log
	}
}

// NewSender creates a collector sender for the given callback URL.
func NewSender(url string, logger *logging.Logger, opts ...SenderOption) *Sender {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Sender{
		url:         url,
		client:      &http.Client{},
		maxAttempts: 3,
		baseDelay:   2 * time.Second,
		timeout:     30 * time.Second,
		logger:      logger,
		tracer:      otel.Tracer("honeypot/delivery"),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deliver posts the report, retrying transient failures. It returns the final
// outcome; it never returns an error because delivery failure must not fail
// the engagement that produced the report.
func (s *Sender) Deliver(ctx context.Context, report Report) Outcome {
	ctx, span := s.tracer.Start(ctx, "DeliverReport")
	defer span.End()
	span.SetAttributes(attribute.String("delivery.session_id", report.SessionID))

	body, err := json.Marshal(report)
	if err != nil {
		return s.giveUp(ctx, report, Outcome{Err: fmt.Errorf("delivery: failed to encode report: %w", err)})
	}

	var out Outcome
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		out.Attempts = attempt

		code, err := s.post(ctx, body)
		out.StatusCode = code
		out.Err = err

		if err == nil && delivered(code) {
			out.Delivered = true
			span.SetAttributes(attribute.Int("delivery.attempts", attempt))
			s.logger.Info("report delivered",
				"session_id", report.SessionID,
				"status_code", code,
				"attempts", attempt,
			)
			return out
		}

		if err == nil {
			out.Err = fmt.Errorf("delivery: collector returned status %d", code)
			if permanent(code) {
				s.logger.Error("collector rejected report",
					"session_id", report.SessionID,
					"status_code", code,
				)
				break
			}
		}

		s.logger.Warn("report delivery attempt failed",
			"session_id", report.SessionID,
			"attempt", attempt,
			"error", out.Err.Error(),
		)

		if attempt == s.maxAttempts {
			break
		}
		delay := s.baseDelay * time.Duration(1<<(attempt-1))
		if err := s.sleep(ctx, delay); err != nil {
			out.Err = err
			break
		}
	}

	return s.giveUp(ctx, report, out)
}

func (s *Sender) giveUp(ctx context.Context, report Report, out Outcome) Outcome {
	if err := s.fallback.Append(report, out.Err, out.Attempts); err != nil {
		s.logger.Error("failed to write fallback record",
			"session_id", report.SessionID,
			"error", err.Error(),
		)
	} else if s.fallback != nil {
		out.FellBack = true
	}

	errText := "unknown"
	if out.Err != nil {
		errText = out.Err.Error()
	}
	s.logger.Error("report delivery failed",
		"session_id", report.SessionID,
		"attempts", out.Attempts,
		"error", errText,
	)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Bool("delivery.fell_back", out.FellBack))
	return out
}

func (s *Sender) post(ctx context.Context, body []byte) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("delivery: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("delivery: request failed: %w", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func delivered(code int) bool {
	return code == http.StatusOK || code == http.StatusCreated || code == http.StatusAccepted
}

func permanent(code int) bool {
	return code >= 400 && code < 500
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
