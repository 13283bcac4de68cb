package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaPromptDefaults(t *testing.T) {
	prompt := PersonaPrompt(Persona{})
	assert.Contains(t, prompt, "Ramesh")
	assert.Contains(t, prompt, "68 year old")
}

func TestPersonaPromptCustom(t *testing.T) {
	prompt := PersonaPrompt(Persona{Name: "Kamala", Age: 72})
	assert.Contains(t, prompt, "Kamala")
	assert.Contains(t, prompt, "72 year old")
	assert.NotContains(t, prompt, "Ramesh")
}

func TestParseNotes(t *testing.T) {
	raw := `{"scam_type":"bank_impersonation","tactics_used":["urgency"],"extracted_entities":["SBI"],"risk_assessment":"high","summary":"Caller posed as a bank officer."}`

	notes, err := ParseNotes(raw)
	require.NoError(t, err)
	assert.Equal(t, "bank_impersonation", notes.ScamType)
	assert.Equal(t, []string{"urgency"}, notes.TacticsUsed)
	assert.Equal(t, []string{"SBI"}, notes.ExtractedEntities)
	assert.Equal(t, "high", notes.RiskAssessment)
}

func TestParseNotesStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"scam_type\":\"lottery\",\"risk_assessment\":\"low\",\"summary\":\"Prize bait.\"}\n```"

	notes, err := ParseNotes(raw)
	require.NoError(t, err)
	assert.Equal(t, "lottery", notes.ScamType)
}

func TestParseNotesFillsMissingFields(t *testing.T) {
	notes, err := ParseNotes(`{"summary":"partial"}`)
	require.NoError(t, err)
	assert.Equal(t, "unknown", notes.ScamType)
	assert.Equal(t, "medium", notes.RiskAssessment)
}

func TestParseNotesInvalidJSON(t *testing.T) {
	_, err := ParseNotes("the model rambled instead of producing JSON")
	require.Error(t, err)

	fallback := DefaultNotes()
	assert.Equal(t, "unknown", fallback.ScamType)
	assert.Equal(t, "medium", fallback.RiskAssessment)
	assert.NotEmpty(t, fallback.Summary)
}

func TestStallReplyDeterministic(t *testing.T) {
	assert.Equal(t, StallReply(3), StallReply(3))
	assert.Equal(t, StallReply(0), StallReply(len(stallReplies)))
	assert.NotEmpty(t, StallReply(-1))
}
