package llm

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConverseAPI struct {
	lastInput *bedrockruntime.ConverseInput
	output    *bedrockruntime.ConverseOutput
	err       error
}

func (s *stubConverseAPI) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func converseReply(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{
			Value: brtypes.Message{
				Role: brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{
					&brtypes.ContentBlockMemberText{Value: text},
				},
			},
		},
		StopReason: brtypes.StopReasonEndTurn,
	}
}

func TestBedrockClient_Complete(t *testing.T) {
	api := &stubConverseAPI{output: converseReply("  Haan beta, which OTP?  ")}
	client := NewBedrockClient(api, "anthropic.claude-3-haiku-20240307-v1:0")

	resp, err := client.Complete(context.Background(), Request{
		System: []string{"You are an elderly person."},
		Messages: []ChatMessage{
			{Role: ChatRoleUser, Content: "Share your OTP now"},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, "Haan beta, which OTP?", resp.Text)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.lastInput)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", *api.lastInput.ModelId)
	require.Len(t, api.lastInput.System, 1)
	require.Len(t, api.lastInput.Messages, 1)
}

func TestBedrockClient_RequestModelOverridesDefault(t *testing.T) {
	api := &stubConverseAPI{output: converseReply("ok")}
	client := NewBedrockClient(api, "default-model")

	_, err := client.Complete(context.Background(), Request{
		Model:    "request-model",
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "request-model", *api.lastInput.ModelId)
}

func TestBedrockClient_NoModelConfigured(t *testing.T) {
	api := &stubConverseAPI{output: converseReply("ok")}
	client := NewBedrockClient(api, "")

	_, err := client.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hello"}},
	})
	assert.Error(t, err)
}

func TestBedrockClient_EmptyContent(t *testing.T) {
	api := &stubConverseAPI{output: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{}},
	}}
	client := NewBedrockClient(api, "model")

	_, err := client.Complete(context.Background(), Request{
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hello"}},
	})
	assert.Error(t, err)
}
