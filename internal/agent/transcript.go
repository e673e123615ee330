package agent

import (
	"encoding/json"

	"plutus/internal/adapters/ai"
	"plutus/internal/tools"
)

// TurnKind tags one transcript entry.
type TurnKind string

const (
	TurnUser        TurnKind = "user"
	TurnAssistant   TurnKind = "assistant"
	TurnToolResults TurnKind = "tool_results"
)

// Turn is one transcript entry. Assistant turns carry the model's tool-call
// requests in the order the model issued them; tool-result turns carry one
// result per request in that same order.
type Turn struct {
	Kind      TurnKind
	Text      string
	ToolCalls []tools.CallRequest
	Results   []tools.CallResult
}

// Transcript is the ordered, append-only conversation history. The model's
// context is derived from full history replay, so entries are never mutated
// once appended. Append returns a new value; earlier snapshots stay valid.
type Transcript struct {
	turns []Turn
}

// NewTranscript returns an empty transcript.
func NewTranscript() Transcript {
	return Transcript{}
}

// Append returns a new transcript with the turn added.
func (t Transcript) Append(turn Turn) Transcript {
	turns := make([]Turn, len(t.turns), len(t.turns)+1)
	copy(turns, t.turns)
	return Transcript{turns: append(turns, turn)}
}

// Len returns the number of turns.
func (t Transcript) Len() int {
	return len(t.turns)
}

// Turns returns a copy of the turn sequence.
func (t Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Messages renders the transcript as model messages, prepending the system
// prompt. Tool results are serialized whole, error payloads included, so the
// model can see and react to failed calls.
func (t Transcript) Messages(systemPrompt string) []ai.Message {
	msgs := make([]ai.Message, 0, len(t.turns)+1)
	if systemPrompt != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: systemPrompt})
	}

	for _, turn := range t.turns {
		switch turn.Kind {
		case TurnUser:
			msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: turn.Text})

		case TurnAssistant:
			msg := ai.Message{Role: ai.RoleAssistant, Content: turn.Text}
			for _, call := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, ai.ToolCall{
					ID:   call.ID,
					Type: "function",
					Function: ai.FunctionCall{
						Name:      call.Name,
						Arguments: marshalArgs(call.Args),
					},
				})
			}
			msgs = append(msgs, msg)

		case TurnToolResults:
			for _, res := range turn.Results {
				msgs = append(msgs, ai.Message{
					Role:       ai.RoleTool,
					Content:    marshalResult(res),
					ToolCallID: res.ID,
				})
			}
		}
	}
	return msgs
}

func marshalArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return "{}"
	}
	body, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(body)
}

func marshalResult(res tools.CallResult) string {
	body, err := json.Marshal(res)
	if err != nil {
		return `{"status":"error","error":{"code":"internal_error","message":"result not serializable"}}`
	}
	return string(body)
}
