package delivery

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/decoynet/honeypot-platform/internal/intel"
)

// Report is the final intelligence payload posted to the collector once an
// engagement completes. Field names follow the collector's wire contract.
type Report struct {
	SessionID              string             `json:"sessionId"`
	ScamDetected           bool               `json:"scamDetected"`
	TotalMessagesExchanged int                `json:"totalMessagesExchanged"`
	ExtractedIntelligence  intel.Intelligence `json:"extractedIntelligence"`
	AgentNotes             string             `json:"agentNotes"`
}

type queuePayload struct {
	ID     string `json:"id"`
	Report Report `json:"report"`
}

func encodePayload(report Report) (string, string, error) {
	payload := queuePayload{
		ID:     uuid.NewString(),
		Report: report,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("delivery: failed to encode payload: %w", err)
	}
	return payload.ID, string(body), nil
}

func decodePayload(body string) (queuePayload, error) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return queuePayload{}, fmt.Errorf("delivery: failed to decode payload: %w", err)
	}
	return payload, nil
}
