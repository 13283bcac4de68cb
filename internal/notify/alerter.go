package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

// Alerter emails operators when a completed engagement carries high risk.
// Nil-safe: a nil Alerter drops alerts silently.
type Alerter struct {
	sender EmailSender
	to     string
	logger *logging.Logger
}

// NewAlerter creates an operator alerter. Returns nil when no sender or
// recipient is configured.
func NewAlerter(sender EmailSender, to string, logger *logging.Logger) *Alerter {
	if sender == nil || strings.TrimSpace(to) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Alerter{sender: sender, to: to, logger: logger}
}

// AlertHighRisk notifies operators about a high-risk completed engagement.
// Only notes assessed as high risk produce an email.
func (a *Alerter) AlertHighRisk(ctx context.Context, snap session.Snapshot, reason string) error {
	if a == nil {
		return nil
	}
	if snap.Notes == nil || !strings.EqualFold(snap.Notes.RiskAssessment, "high") {
		return nil
	}

	var body strings.Builder
	fmt.Fprintf(&body, "High-risk engagement completed.\n\n")
	fmt.Fprintf(&body, "Session: %s\n", snap.SessionID)
	fmt.Fprintf(&body, "Scam type: %s\n", snap.Notes.ScamType)
	fmt.Fprintf(&body, "Stop reason: %s\n", reason)
	fmt.Fprintf(&body, "Turns: %d, messages: %d\n", snap.TurnCount, snap.TotalMessages)
	fmt.Fprintf(&body, "Intelligence items: %d\n\n", snap.IntelCount)

	if len(snap.Intelligence.UPIIDs) > 0 {
		fmt.Fprintf(&body, "UPI IDs: %s\n", strings.Join(snap.Intelligence.UPIIDs, ", "))
	}
	if len(snap.Intelligence.BankAccounts) > 0 {
		fmt.Fprintf(&body, "Bank accounts: %s\n", strings.Join(snap.Intelligence.BankAccounts, ", "))
	}
	if len(snap.Intelligence.PhoneNumbers) > 0 {
		fmt.Fprintf(&body, "Phone numbers: %s\n", strings.Join(snap.Intelligence.PhoneNumbers, ", "))
	}
	if len(snap.Intelligence.PhishingLinks) > 0 {
		fmt.Fprintf(&body, "Phishing links: %s\n", strings.Join(snap.Intelligence.PhishingLinks, ", "))
	}
	if snap.Notes.Summary != "" {
		fmt.Fprintf(&body, "\nSummary: %s\n", snap.Notes.Summary)
	}

	err := a.sender.Send(ctx, EmailMessage{
		To:      a.to,
		Subject: fmt.Sprintf("[honeypot] High-risk engagement %s (%s)", snap.SessionID, snap.Notes.ScamType),
		Body:    body.String(),
	})
	if err != nil {
		a.logger.Error("failed to send high-risk alert", "session_id", snap.SessionID, "error", err.Error())
		return err
	}
	return nil
}
