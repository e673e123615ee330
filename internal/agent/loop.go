package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"plutus/internal/adapters/ai"
	"plutus/internal/adapters/config"
	"plutus/internal/metrics"
	"plutus/internal/tools"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// State names one phase of the conversation state machine.
type State string

const (
	StateAwaitingInput    State = "awaiting_user_input"
	StateThinking         State = "model_thinking"
	StateToolCallsPending State = "tool_calls_pending"
	StateDispatching      State = "dispatching"
	StateFinalAnswer      State = "final_answer_ready"
	StateAborted          State = "aborted"
)

const defaultSystemPrompt = `You are Plutus, a personal stock research assistant.

You answer questions about stocks and the user's portfolio by calling the
available tools. Rules:
- Never invent prices, fundamentals or holdings; always fetch them with tools.
- Use recommend_action when the user asks whether to buy, sell or hold.
- When a tool call fails, read the error, fix your arguments and retry once;
  if it still fails, tell the user what could not be retrieved.
- Keep answers short and concrete: numbers first, then one or two sentences
  of interpretation.
- You provide research, not financial advice; say so when recommending.`

const budgetExceededMessage = "I could not reach a final answer within the " +
	"allowed number of reasoning steps. Please retry, or narrow the request " +
	"to a single ticker or question."

// Result is the outcome of one user turn.
type Result struct {
	Answer     string
	Transcript Transcript
	State      State
	ModelTurns int
}

// Loop drives one conversation: it replays the transcript to the model,
// dispatches any tool calls the model requests, and repeats until the model
// produces a final answer or the turn budget runs out. Strictly sequential
// per transcript; only tool calls within one turn run concurrently.
type Loop struct {
	provider   ai.ChatProvider
	registry   *tools.Registry
	dispatcher *tools.Dispatcher
	cfg        config.AgentConfig
	system     string
	log        *logger.Logger
}

// NewLoop constructs an agent loop over a model provider and tool catalog.
func NewLoop(provider ai.ChatProvider, registry *tools.Registry, dispatcher *tools.Dispatcher, cfg config.AgentConfig) *Loop {
	return &Loop{
		provider:   provider,
		registry:   registry,
		dispatcher: dispatcher,
		cfg:        cfg,
		system:     defaultSystemPrompt,
		log:        logger.Get().With("component", "agent_loop"),
	}
}

// WithSystemPrompt replaces the default system prompt.
func (l *Loop) WithSystemPrompt(prompt string) *Loop {
	l.system = prompt
	return l
}

// WithLogger replaces the loop's logger.
func (l *Loop) WithLogger(log *logger.Logger) *Loop {
	l.log = log.With("component", "agent_loop")
	return l
}

// Run processes one user message against the transcript and returns the
// final answer plus the extended transcript. On abort (budget, transport,
// cancellation) the transcript built so far is returned for diagnostics
// alongside a sentinel error.
func (l *Loop) Run(ctx context.Context, transcript Transcript, userMessage string) (Result, error) {
	started := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(started).Seconds())
	}()

	transcript = transcript.Append(Turn{Kind: TurnUser, Text: userMessage})
	defs := l.registry.Definitions()

	modelTurns := 0

	for {
		// The budget counts model_thinking entries, bounding runaway
		// tool-calling loops.
		modelTurns++
		if modelTurns > l.cfg.MaxTurns {
			metrics.TurnsAborted.WithLabelValues("budget").Inc()
			l.log.Warnw("turn budget exhausted", "max_turns", l.cfg.MaxTurns)
			return Result{
				Answer:     budgetExceededMessage,
				Transcript: transcript,
				State:      StateAborted,
				ModelTurns: modelTurns - 1,
			}, errors.Wrapf(errors.ErrTurnBudget, "no final answer after %d model turns", l.cfg.MaxTurns)
		}

		resp, err := l.provider.Chat(ctx, ai.ChatRequest{
			Model:       l.cfg.Model,
			Messages:    transcript.Messages(l.system),
			Tools:       defs,
			Temperature: l.cfg.Temperature,
			MaxTokens:   l.cfg.MaxTokens,
		})
		if err != nil {
			metrics.RecordLLMCall(l.provider.Name(), l.cfg.Model, 0, 0, err)
			metrics.TurnsAborted.WithLabelValues("transport").Inc()
			l.log.Errorw("model call failed", "model", l.cfg.Model, "error", err)
			return Result{
				Transcript: transcript,
				State:      StateAborted,
				ModelTurns: modelTurns,
			}, errors.Wrapf(errors.ErrModelTransport, "model call failed: %v", err)
		}
		metrics.RecordLLMCall(l.provider.Name(), l.cfg.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, nil)

		if len(resp.Choices) == 0 {
			metrics.TurnsAborted.WithLabelValues("transport").Inc()
			return Result{
				Transcript: transcript,
				State:      StateAborted,
				ModelTurns: modelTurns,
			}, errors.Wrap(errors.ErrModelTransport, "model returned no choices")
		}
		msg := resp.Choices[0].Message

		// Zero tool calls means the text is the final answer.
		if len(msg.ToolCalls) == 0 {
			transcript = transcript.Append(Turn{Kind: TurnAssistant, Text: msg.Content})
			l.log.Debugw("turn complete", "model_turns", modelTurns, "duration", time.Since(started))
			return Result{
				Answer:     msg.Content,
				Transcript: transcript,
				State:      StateFinalAnswer,
				ModelTurns: modelTurns,
			}, nil
		}

		reqs := callRequests(msg.ToolCalls)
		l.log.Debugw("model requested tool calls", "count", len(reqs), "state", StateToolCallsPending)
		transcript = transcript.Append(Turn{Kind: TurnAssistant, Text: msg.Content, ToolCalls: reqs})

		if aborted := l.checkCancelled(ctx, transcript, modelTurns); aborted != nil {
			return *aborted, errors.Wrap(errors.ErrTurnCancelled, "cancelled before dispatch")
		}

		l.log.Debugw("dispatching tool calls", "count", len(reqs), "state", StateDispatching)
		results := l.dispatcher.DispatchAll(ctx, reqs)

		// In-flight calls were allowed to finish, but a cancelled caller
		// never sees their results; the turn aborts and the results are
		// discarded.
		if aborted := l.checkCancelled(ctx, transcript, modelTurns); aborted != nil {
			return *aborted, errors.Wrap(errors.ErrTurnCancelled, "cancelled during dispatch")
		}

		transcript = transcript.Append(Turn{Kind: TurnToolResults, Results: results})
	}
}

func (l *Loop) checkCancelled(ctx context.Context, transcript Transcript, modelTurns int) *Result {
	if ctx.Err() == nil {
		return nil
	}
	metrics.TurnsAborted.WithLabelValues("cancelled").Inc()
	l.log.Warnw("turn cancelled by caller", "model_turns", modelTurns)
	return &Result{
		Transcript: transcript,
		State:      StateAborted,
		ModelTurns: modelTurns,
	}
}

// callRequests converts model tool calls into dispatcher requests,
// preserving order. Missing call IDs get generated ones so results can
// always be matched back.
func callRequests(calls []ai.ToolCall) []tools.CallRequest {
	reqs := make([]tools.CallRequest, len(calls))
	for i, call := range calls {
		id := call.ID
		if id == "" {
			id = uuid.NewString()
		}
		var args map[string]interface{}
		if call.Function.Arguments != "" {
			// Undecodable arguments stay nil and fail schema validation,
			// which reaches the model as an invalid_arguments result.
			_ = json.Unmarshal([]byte(call.Function.Arguments), &args)
		}
		reqs[i] = tools.CallRequest{ID: id, Name: call.Function.Name, Args: args}
	}
	return reqs
}
