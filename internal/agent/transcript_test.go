package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plutus/internal/adapters/ai"
	"plutus/internal/tools"
)

func TestTranscript_AppendLeavesSnapshotsIntact(t *testing.T) {
	base := NewTranscript().Append(Turn{Kind: TurnUser, Text: "first"})

	a := base.Append(Turn{Kind: TurnAssistant, Text: "answer a"})
	b := base.Append(Turn{Kind: TurnAssistant, Text: "answer b"})

	assert.Equal(t, 1, base.Len())
	require.Equal(t, 2, a.Len())
	require.Equal(t, 2, b.Len())
	assert.Equal(t, "answer a", a.Turns()[1].Text)
	assert.Equal(t, "answer b", b.Turns()[1].Text)
}

func TestTranscript_Messages(t *testing.T) {
	tr := NewTranscript().
		Append(Turn{Kind: TurnUser, Text: "quote AAPL"}).
		Append(Turn{
			Kind: TurnAssistant,
			ToolCalls: []tools.CallRequest{
				{ID: "c1", Name: "get_quote", Args: map[string]interface{}{"ticker": "AAPL"}},
			},
		}).
		Append(Turn{
			Kind: TurnToolResults,
			Results: []tools.CallResult{
				{ID: "c1", Status: tools.StatusOK, Payload: map[string]interface{}{"price": 230.0}},
			},
		})

	msgs := tr.Messages("be helpful")
	require.Len(t, msgs, 4)

	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)

	assistant := msgs[2]
	assert.Equal(t, ai.RoleAssistant, assistant.Role)
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "get_quote", assistant.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"ticker":"AAPL"}`, assistant.ToolCalls[0].Function.Arguments)

	result := msgs[3]
	assert.Equal(t, ai.RoleTool, result.Role)
	assert.Equal(t, "c1", result.ToolCallID)
	assert.Contains(t, result.Content, `"ok"`)
	assert.Contains(t, result.Content, "230")
}

func TestTranscript_EmptySystemPromptOmitted(t *testing.T) {
	tr := NewTranscript().Append(Turn{Kind: TurnUser, Text: "hi"})

	msgs := tr.Messages("")
	require.Len(t, msgs, 1)
	assert.Equal(t, ai.RoleUser, msgs[0].Role)
}
