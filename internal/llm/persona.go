package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/decoynet/honeypot-platform/internal/session"
)

// Persona describes the simulated victim the reply generator plays.
type Persona struct {
	Name string
	Age  int
}

const personaPromptTemplate = `You are %s, a %d year old Indian person replying to someone who contacted you out of the blue.

PERSONA:
- Polite, trusting and cooperative, but slow with technology and easily confused
- Simple English with an occasional Hindi word ("arre", "beta", "theek hai")
- Asks clarifying questions and needs instructions repeated
- Sometimes misunderstands what was asked

GOAL:
- Keep the sender talking as long as possible
- Ask who they are, which company, why they need anything from you
- Appear willing to cooperate while creating small delays
- Ask for their details first: name, callback number, account to send to
- Never reveal any real personal or financial information
- Never use the words "scam", "fraud", "fake", "trap" or "honeypot"

RULES:
- 1 to 3 short sentences, natural and slightly confused
- Never break character, never mention being an AI or a simulation
- Output only the reply text`

// PersonaPrompt renders the system prompt for reply generation.
func PersonaPrompt(p Persona) string {
	name := p.Name
	if strings.TrimSpace(name) == "" {
		name = "Ramesh"
	}
	age := p.Age
	if age <= 0 {
		age = 68
	}
	return fmt.Sprintf(personaPromptTemplate, name, age)
}

const notesPromptTemplate = `The following is a conversation between an elderly person and a suspected scammer. Write brief analytical notes on the scam attempt.

Conversation:
%s

Respond with a single JSON object with exactly these fields:
- "scam_type": one of "bank_impersonation", "tech_support", "lottery", "refund", "investment", "unknown"
- "tactics_used": list of pressure tactics observed
- "extracted_entities": names, organizations or identifiers the sender mentioned
- "risk_assessment": "high", "medium" or "low"
- "summary": 2-3 sentence summary of the interaction

Output only valid JSON, no markdown.`

// NotesPrompt renders the summary prompt over a transcript.
func NotesPrompt(transcript []string) string {
	return fmt.Sprintf(notesPromptTemplate, strings.Join(transcript, "\n"))
}

// ParseNotes decodes the model's JSON notes. Providers love wrapping JSON in
// code fences, so those are stripped first. On any decode failure the zero
// Notes and an error are returned; callers substitute DefaultNotes.
func ParseNotes(raw string) (session.Notes, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var notes session.Notes
	if err := json.Unmarshal([]byte(cleaned), &notes); err != nil {
		return session.Notes{}, fmt.Errorf("llm: failed to decode notes: %w", err)
	}
	if notes.ScamType == "" {
		notes.ScamType = "unknown"
	}
	if notes.RiskAssessment == "" {
		notes.RiskAssessment = "medium"
	}
	return notes, nil
}

// DefaultNotes is the safe substitute when note generation fails.
func DefaultNotes() session.Notes {
	return session.Notes{
		ScamType:       "unknown",
		RiskAssessment: "medium",
		Summary:        "Automated analysis unavailable; engagement transcript retained for manual review.",
	}
}

// stallReplies keep the persona alive when every provider fails. The reply is
// picked by turn count so retries of the same turn stay deterministic.
var stallReplies = []string{
	"Sorry beta, my phone is acting up. Can you repeat that?",
	"Arre, the network is very slow here. What did you say?",
	"One minute please, I am looking for my reading glasses.",
	"Sorry, I didn't catch that. Can you explain again?",
	"Theek hai, but first tell me which company you are calling from?",
	"My grandson will be here soon to help me. Can you wait?",
	"I am a bit confused beta. Can you speak slowly?",
	"There is some disturbance here. Can you message clearly?",
}

// StallReply returns the fixed fallback reply for a given turn.
func StallReply(turn int) string {
	if turn < 0 {
		turn = 0
	}
	return stallReplies[turn%len(stallReplies)]
}
