package honeypot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// EngagementEvent represents a structured event in the engagement lifecycle.
// All events share the same base fields for easy filtering/grep.
type EngagementEvent struct {
	Time      string         `json:"time"`
	Event     string         `json:"event"`
	SessionID string         `json:"session_id"`
	State     string         `json:"state,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventLogger emits structured JSON events at each decision point in the
// engagement flow. Designed for fast grep/filter debugging:
//
//	grep '"event":"scam_detected"' /var/log/app.log
//	grep '"session_id":"sess_abc"' /var/log/app.log
type EventLogger struct {
	logger *logging.Logger
}

// NewEventLogger creates a new engagement event logger.
func NewEventLogger(logger *logging.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Log emits a structured engagement event.
func (e *EventLogger) Log(_ context.Context, event, sessionID, state string, data map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	evt := EngagementEvent{
		Time:      time.Now().UTC().Format(time.RFC3339Nano),
		Event:     event,
		SessionID: sessionID,
		State:     state,
		Data:      data,
	}
	b, _ := json.Marshal(evt)
	e.logger.Info(string(b))
}

// Convenience methods for common events:

func (e *EventLogger) MessageReceived(ctx context.Context, sessionID, state, message string) {
	// Truncate message for logging
	msg := message
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	e.Log(ctx, "message_received", sessionID, state, map[string]any{
		"message": msg,
	})
}

func (e *EventLogger) ScamDetected(ctx context.Context, sessionID string, confidence float64, reasons []string) {
	e.Log(ctx, "scam_detected", sessionID, "", map[string]any{
		"confidence": confidence,
		"reasons":    reasons,
	})
}

func (e *EventLogger) IntelExtracted(ctx context.Context, sessionID string, newItems, totalItems int) {
	e.Log(ctx, "intel_extracted", sessionID, "", map[string]any{
		"new_items":   newItems,
		"total_items": totalItems,
	})
}

func (e *EventLogger) ReplyGenerated(ctx context.Context, sessionID string, turn int, durationMs int64, fallback bool) {
	e.Log(ctx, "reply_generated", sessionID, "", map[string]any{
		"turn":        turn,
		"duration_ms": durationMs,
		"fallback":    fallback,
	})
}

func (e *EventLogger) EngagementCompleted(ctx context.Context, sessionID, reason string, turns, intelItems int) {
	e.Log(ctx, "engagement_completed", sessionID, "", map[string]any{
		"reason":      reason,
		"turns":       turns,
		"intel_items": intelItems,
	})
}

func (e *EventLogger) CallbackSent(ctx context.Context, sessionID string, attempts int) {
	e.Log(ctx, "callback_sent", sessionID, "", map[string]any{
		"attempts": attempts,
	})
}

func (e *EventLogger) CallbackFailed(ctx context.Context, sessionID string, attempts int, fellBack bool) {
	e.Log(ctx, "callback_failed", sessionID, "", map[string]any{
		"attempts":  attempts,
		"fell_back": fellBack,
	})
}

func (e *EventLogger) ErrorOccurred(ctx context.Context, sessionID, step string, err error) {
	e.Log(ctx, "error", sessionID, "", map[string]any{
		"step":  step,
		"error": err.Error(),
	})
}
