package honeypot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/decoynet/honeypot-platform/internal/delivery"
	"github.com/decoynet/honeypot-platform/internal/detect"
	"github.com/decoynet/honeypot-platform/internal/intel"
	"github.com/decoynet/honeypot-platform/internal/llm"
	"github.com/decoynet/honeypot-platform/internal/notify"
	"github.com/decoynet/honeypot-platform/internal/observability/metrics"
	"github.com/decoynet/honeypot-platform/internal/report"
	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Webhook statuses returned to the message source.
const (
	StatusOK        = "ok"
	StatusEngaged   = "engaged"
	StatusCompleted = "completed"
)

// ErrMissingSessionID rejects webhook payloads without a session id.
var ErrMissingSessionID = errors.New("honeypot: sessionId is required")

// InboundMessage is one message from the sender's side of the conversation.
type InboundMessage struct {
	Sender    string `json:"sender,omitempty"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// WebhookRequest is the inbound message envelope.
type WebhookRequest struct {
	SessionID           string           `json:"sessionId"`
	Message             InboundMessage   `json:"message"`
	ConversationHistory []InboundMessage `json:"conversationHistory,omitempty"`
	Metadata            map[string]any   `json:"metadata,omitempty"`
}

// WebhookResponse carries the persona's reply. An empty reply signals that the
// engagement is over or was never started.
type WebhookResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply"`
}

// ReportEnqueuer schedules a completed report for asynchronous delivery.
type ReportEnqueuer interface {
	Enqueue(ctx context.Context, report delivery.Report) error
}

// Broadcaster pushes live session events to attached monitors.
type Broadcaster interface {
	Broadcast(event, sessionID string, data map[string]any)
}

// ServiceDeps wires a Service. Store, Detector, Extractor, LLM and Logger are
// required; the rest are optional and nil-safe.
type ServiceDeps struct {
	Store     *session.Store
	Detector  *detect.Detector
	Extractor *intel.Extractor
	LLM       llm.Client
	Reports   ReportEnqueuer
	Archive   *report.Store
	Alerts    *notify.Alerter
	Mirror    *session.Mirror
	Metrics   *metrics.HoneypotMetrics
	Events    *EventLogger
	Monitor   Broadcaster
	Logger    *logging.Logger

	Persona     llm.Persona
	Limits      Limits
	LLMTimeout  time.Duration
	MaxTokens   int32
	Temperature float32
}

// Service runs the engagement pipeline: record the message, extract
// intelligence, detect scams, advance the state machine, and either reply in
// persona or complete the engagement and hand the report to delivery.
type Service struct {
	store     *session.Store
	detector  *detect.Detector
	extractor *intel.Extractor
	llm       llm.Client
	reports   ReportEnqueuer
	archive   *report.Store
	alerts    *notify.Alerter
	mirror    *session.Mirror
	metrics   *metrics.HoneypotMetrics
	events    *EventLogger
	monitor   Broadcaster
	logger    *logging.Logger

	persona     llm.Persona
	limits      Limits
	llmTimeout  time.Duration
	maxTokens   int32
	temperature float32
}

// NewService validates deps and builds the Service.
func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Store == nil {
		return nil, errors.New("honeypot: session store is required")
	}
	if deps.Detector == nil {
		return nil, errors.New("honeypot: detector is required")
	}
	if deps.Extractor == nil {
		return nil, errors.New("honeypot: extractor is required")
	}
	if deps.LLM == nil {
		return nil, errors.New("honeypot: llm client is required")
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Events == nil {
		deps.Events = NewEventLogger(deps.Logger)
	}
	if deps.LLMTimeout <= 0 {
		deps.LLMTimeout = 30 * time.Second
	}
	if deps.MaxTokens <= 0 {
		deps.MaxTokens = 1024
	}
	if deps.Temperature <= 0 {
		deps.Temperature = 0.7
	}

	return &Service{
		store:       deps.Store,
		detector:    deps.Detector,
		extractor:   deps.Extractor,
		llm:         deps.LLM,
		reports:     deps.Reports,
		archive:     deps.Archive,
		alerts:      deps.Alerts,
		mirror:      deps.Mirror,
		metrics:     deps.Metrics,
		events:      deps.Events,
		monitor:     deps.Monitor,
		logger:      deps.Logger,
		persona:     deps.Persona,
		limits:      deps.Limits.normalized(),
		llmTimeout:  deps.LLMTimeout,
		maxTokens:   deps.MaxTokens,
		temperature: deps.Temperature,
	}, nil
}

// ProcessMessage handles one inbound webhook message end to end. Messages for
// the same session serialize on the store's per-session lock; messages for
// different sessions proceed independently.
func (s *Service) ProcessMessage(ctx context.Context, req WebhookRequest) (WebhookResponse, error) {
	start := time.Now()

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		s.metrics.ObserveInbound("rejected")
		return WebhookResponse{}, ErrMissingSessionID
	}
	text := req.Message.Text

	var (
		resp  WebhookResponse
		state session.State
		done  completionInfo
	)

	err := s.store.WithSession(sessionID, func(conv *session.Conversation) error {
		state = conv.State

		if conv.State.Frozen() {
			resp = WebhookResponse{Status: StatusCompleted}
			return nil
		}

		s.events.MessageReceived(ctx, sessionID, string(conv.State), text)
		priorHistory := conv.SenderHistory()

		if err := conv.AppendMessage(session.Message{
			Role:       session.RoleScammer,
			Text:       text,
			ReceivedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		s.recordIntel(ctx, conv, text)

		res := s.detector.DetectWithHistory(ctx, text, priorHistory)
		s.metrics.ObserveVerdict(res.IsScam)

		if conv.State == session.StatePending {
			if !res.IsScam {
				if err := conv.Transition(session.StatePending); err != nil {
					return err
				}
				resp = WebhookResponse{Status: StatusOK}
				return nil
			}

			conv.ScamDetected = true
			if err := conv.Transition(session.StateScamDetected); err != nil {
				return err
			}
			if err := conv.Transition(session.StateEngaging); err != nil {
				return err
			}
			s.events.ScamDetected(ctx, sessionID, res.Confidence, res.Reasons)
			s.broadcast("scam_detected", sessionID, map[string]any{
				"confidence": res.Confidence,
			})
		} else {
			if err := conv.Transition(session.StateEngaging); err != nil {
				return err
			}
		}

		if reason, stop := ShouldStop(conv, text, s.limits); stop {
			info, err := s.complete(ctx, conv, reason)
			if err != nil {
				return err
			}
			done = info
			resp = WebhookResponse{Status: StatusCompleted}
			return nil
		}

		reply, fellBack := s.generateReply(ctx, conv)
		if err := conv.AppendMessage(session.Message{
			Role:       session.RoleAgent,
			Text:       reply,
			ReceivedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		s.metrics.ObserveTurn()
		s.events.ReplyGenerated(ctx, sessionID, conv.TurnCount, time.Since(start).Milliseconds(), fellBack)

		resp = WebhookResponse{Status: StatusEngaged, Reply: reply}
		return nil
	})

	s.metrics.ObserveWebhookLatency(string(state), time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveInbound("failed")
		s.events.ErrorOccurred(ctx, sessionID, "process_message", err)
		return WebhookResponse{}, fmt.Errorf("honeypot: failed to process message: %w", err)
	}
	s.metrics.ObserveInbound("accepted")

	s.mirrorSession(ctx, sessionID)

	if done.completed {
		s.metrics.ObserveCompleted(done.reason)
		s.broadcast("engagement_completed", sessionID, map[string]any{
			"reason": done.reason,
		})
		if _, err := s.archive.Archive(ctx, done.report, &done.notes, done.reason); err != nil {
			s.events.ErrorOccurred(ctx, sessionID, "archive_report", err)
		}
		if snap, ok := s.store.Get(sessionID); ok {
			if err := s.alerts.AlertHighRisk(ctx, snap, done.reason); err != nil {
				s.events.ErrorOccurred(ctx, sessionID, "high_risk_alert", err)
			}
		}
		if s.reports != nil {
			if err := s.reports.Enqueue(ctx, done.report); err != nil {
				s.events.ErrorOccurred(ctx, sessionID, "enqueue_report", err)
			}
		}
	}

	return resp, nil
}

// completionInfo carries the completed engagement's artifacts out of the
// session lock so archiving and enqueueing happen without holding it.
type completionInfo struct {
	completed bool
	reason    string
	report    delivery.Report
	notes     session.Notes
}

// complete transitions the conversation to COMPLETED, attaches final notes,
// and stages the delivery report. Called with the session lock held.
func (s *Service) complete(ctx context.Context, conv *session.Conversation, reason string) (completionInfo, error) {
	notes := s.generateNotes(ctx, conv)
	if err := conv.Transition(session.StateCompleted); err != nil {
		return completionInfo{}, err
	}
	conv.Notes = &notes

	s.events.EngagementCompleted(ctx, conv.SessionID, reason, conv.TurnCount, conv.Intelligence.Count())

	return completionInfo{
		completed: true,
		reason:    reason,
		notes:     notes,
		report: delivery.Report{
			SessionID:              conv.SessionID,
			ScamDetected:           conv.ScamDetected,
			TotalMessagesExchanged: conv.TotalMessages,
			ExtractedIntelligence:  conv.Intelligence,
			AgentNotes:             notes.Summary,
		},
	}, nil
}

// HandleDeliveryOutcome is the dispatcher's post-delivery callback. The
// session reaches its terminal state once the delivery sequence has run to
// its end: either the collector accepted the report, or retries were
// exhausted and the report was durably written to the fallback log. Only a
// failure that could not be logged leaves the session in COMPLETED for a
// later retry.
func (s *Service) HandleDeliveryOutcome(ctx context.Context, sessionID string, out delivery.Outcome) {
	status := "delivered"
	if !out.Delivered {
		status = "failed"
	}
	s.metrics.ObserveDelivery(status)
	if err := s.archive.MarkDelivery(ctx, sessionID, status); err != nil {
		s.events.ErrorOccurred(ctx, sessionID, "mark_delivery", err)
	}

	if !out.Delivered {
		s.events.CallbackFailed(ctx, sessionID, out.Attempts, out.FellBack)
		if !out.FellBack {
			return
		}
	}

	err := s.store.WithSession(sessionID, func(conv *session.Conversation) error {
		if conv.State != session.StateCompleted {
			return nil
		}
		return conv.Transition(session.StateCallbackSent)
	})
	if err != nil {
		s.events.ErrorOccurred(ctx, sessionID, "callback_transition", err)
		return
	}
	if out.Delivered {
		s.events.CallbackSent(ctx, sessionID, out.Attempts)
		s.broadcast("callback_sent", sessionID, map[string]any{
			"attempts": out.Attempts,
		})
	}
	s.mirrorSession(ctx, sessionID)
}

func (s *Service) recordIntel(ctx context.Context, conv *session.Conversation, text string) {
	found := s.extractor.Extract(text)
	before := conv.Intelligence
	if err := conv.MergeIntelligence(found); err != nil {
		s.events.ErrorOccurred(ctx, conv.SessionID, "merge_intelligence", err)
		return
	}
	after := conv.Intelligence

	newItems := after.Count() - before.Count()
	if newItems == 0 {
		return
	}
	s.metrics.ObserveIntel("bank_accounts", len(after.BankAccounts)-len(before.BankAccounts))
	s.metrics.ObserveIntel("ifsc_codes", len(after.IFSCCodes)-len(before.IFSCCodes))
	s.metrics.ObserveIntel("upi_ids", len(after.UPIIDs)-len(before.UPIIDs))
	s.metrics.ObserveIntel("phone_numbers", len(after.PhoneNumbers)-len(before.PhoneNumbers))
	s.metrics.ObserveIntel("phishing_links", len(after.PhishingLinks)-len(before.PhishingLinks))
	s.metrics.ObserveIntel("suspicious_keywords", len(after.SuspiciousKeywords)-len(before.SuspiciousKeywords))
	s.events.IntelExtracted(ctx, conv.SessionID, newItems, after.Count())
	s.broadcast("intel_extracted", conv.SessionID, map[string]any{
		"new_items":   newItems,
		"total_items": after.Count(),
	})
}

// generateReply asks the LLM for an in-persona reply, substituting a fixed
// stall reply on provider failure so the persona illusion survives.
func (s *Service) generateReply(ctx context.Context, conv *session.Conversation) (string, bool) {
	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	messages := make([]llm.ChatMessage, 0, len(conv.History))
	for _, msg := range conv.History {
		role := llm.ChatRoleUser
		if msg.Role == session.RoleAgent {
			role = llm.ChatRoleAssistant
		}
		messages = append(messages, llm.ChatMessage{Role: role, Content: msg.Text})
	}

	resp, err := s.llm.Complete(llmCtx, llm.Request{
		System:      []string{llm.PersonaPrompt(s.persona)},
		Messages:    messages,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		if err != nil {
			s.events.ErrorOccurred(ctx, conv.SessionID, "generate_reply", err)
		}
		return llm.StallReply(conv.TurnCount), true
	}
	return resp.Text, false
}

// generateNotes asks the LLM for the final structured analysis, substituting
// the safe default when the provider or its JSON fails.
func (s *Service) generateNotes(ctx context.Context, conv *session.Conversation) session.Notes {
	llmCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	transcript := make([]string, 0, len(conv.History))
	for _, msg := range conv.History {
		transcript = append(transcript, fmt.Sprintf("%s: %s", msg.Role, msg.Text))
	}

	resp, err := s.llm.Complete(llmCtx, llm.Request{
		Messages: []llm.ChatMessage{
			{Role: llm.ChatRoleUser, Content: llm.NotesPrompt(transcript)},
		},
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.events.ErrorOccurred(ctx, conv.SessionID, "generate_notes", err)
		return llm.DefaultNotes()
	}

	notes, err := llm.ParseNotes(resp.Text)
	if err != nil {
		s.events.ErrorOccurred(ctx, conv.SessionID, "parse_notes", err)
		return llm.DefaultNotes()
	}
	return notes
}

func (s *Service) mirrorSession(ctx context.Context, sessionID string) {
	if s.mirror == nil {
		return
	}
	snap, ok := s.store.Get(sessionID)
	if !ok {
		return
	}
	if err := s.mirror.Save(ctx, snap); err != nil {
		s.logger.Warn("failed to mirror session", "session_id", sessionID, "error", err.Error())
	}
}

func (s *Service) broadcast(event, sessionID string, data map[string]any) {
	if s.monitor == nil {
		return
	}
	s.monitor.Broadcast(event, sessionID, data)
}
