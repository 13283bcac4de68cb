package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decoynet/honeypot-platform/internal/intel"
	"github.com/decoynet/honeypot-platform/internal/session"
	"github.com/decoynet/honeypot-platform/pkg/logging"
)

type captureSender struct {
	sent []EmailMessage
}

func (c *captureSender) Send(_ context.Context, msg EmailMessage) error {
	c.sent = append(c.sent, msg)
	return nil
}

func highRiskSnapshot() session.Snapshot {
	return session.Snapshot{
		SessionID:     "sess-1",
		State:         session.StateCompleted,
		ScamDetected:  true,
		TurnCount:     6,
		TotalMessages: 12,
		IntelCount:    3,
		Intelligence: intel.Intelligence{
			UPIIDs:       []string{"scammer@paytm"},
			PhoneNumbers: []string{"+919876543210"},
		},
		Notes: &session.Notes{
			ScamType:       "bank_impersonation",
			RiskAssessment: "high",
			Summary:        "Caller demanded OTP.",
		},
	}
}

func TestAlerterSendsHighRisk(t *testing.T) {
	sender := &captureSender{}
	a := NewAlerter(sender, "ops@example.com", logging.Default())
	require.NotNil(t, a)

	require.NoError(t, a.AlertHighRisk(context.Background(), highRiskSnapshot(), "intelligence_goal_met"))
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, "ops@example.com", msg.To)
	assert.Contains(t, msg.Subject, "sess-1")
	assert.Contains(t, msg.Body, "scammer@paytm")
	assert.Contains(t, msg.Body, "intelligence_goal_met")
}

func TestAlerterSkipsLowRisk(t *testing.T) {
	sender := &captureSender{}
	a := NewAlerter(sender, "ops@example.com", logging.Default())

	snap := highRiskSnapshot()
	snap.Notes.RiskAssessment = "medium"
	require.NoError(t, a.AlertHighRisk(context.Background(), snap, "max_turns_reached"))
	assert.Empty(t, sender.sent)

	snap.Notes = nil
	require.NoError(t, a.AlertHighRisk(context.Background(), snap, "max_turns_reached"))
	assert.Empty(t, sender.sent)
}

func TestAlerterNilSafe(t *testing.T) {
	var a *Alerter
	require.NoError(t, a.AlertHighRisk(context.Background(), highRiskSnapshot(), "max_turns_reached"))

	assert.Nil(t, NewAlerter(nil, "ops@example.com", nil))
	assert.Nil(t, NewAlerter(&captureSender{}, "  ", nil))
}

func TestStubEmailSender(t *testing.T) {
	s := NewStubEmailSender(nil)
	require.NoError(t, s.Send(context.Background(), EmailMessage{To: "x@example.com", Subject: "hi"}))
}
