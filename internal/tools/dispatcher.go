package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"plutus/internal/metrics"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// CallRequest is one structured tool invocation produced by the model.
type CallRequest struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args"`
}

// CallStatus marks a result as success or failure.
type CallStatus string

const (
	StatusOK    CallStatus = "ok"
	StatusError CallStatus = "error"
)

// Machine-stable error codes returned to the model.
const (
	CodeInvalidArguments = "invalid_arguments"
	CodeUnknownTool      = "unknown_tool"
	CodeNotFound         = "not_found"
	CodeTimeout          = "timeout"
	CodeCollaborator     = "collaborator_error"
	CodeInternal         = "internal_error"
)

// CallError is the structured failure payload of an errored call.
type CallError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CallResult is the single outcome of one CallRequest, matched by ID.
type CallResult struct {
	ID      string      `json:"id"`
	Status  CallStatus  `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *CallError  `json:"error,omitempty"`
}

// Dispatcher turns CallRequests into CallResults. No failure ever escapes
// its boundary: validation errors, collaborator failures and handler panics
// all come back as status=error results so the conversation can continue.
type Dispatcher struct {
	registry    *Registry
	callTimeout time.Duration
	tickerLocks sync.Map // ticker -> *sync.Mutex, serializes mutations
	log         *logger.Logger
}

// NewDispatcher creates a dispatcher with a per-call timeout.
func NewDispatcher(registry *Registry, callTimeout time.Duration) *Dispatcher {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &Dispatcher{
		registry:    registry,
		callTimeout: callTimeout,
		log:         logger.Get().With("component", "tool_dispatcher"),
	}
}

// Dispatch executes one request. Always returns a result, never an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req CallRequest) CallResult {
	started := time.Now()
	result := d.dispatch(ctx, req)
	metrics.RecordToolDispatch(req.Name, time.Since(started), result.Status == StatusOK)

	if result.Status == StatusError {
		d.log.Warnw("tool call failed",
			"tool", req.Name, "call_id", req.ID,
			"code", result.Error.Code, "message", result.Error.Message)
	} else {
		d.log.Debugw("tool call succeeded",
			"tool", req.Name, "call_id", req.ID, "duration", time.Since(started))
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, req CallRequest) (result CallResult) {
	result = CallResult{ID: req.ID, Status: StatusOK}

	// A handler panic is a tool failure, not a process failure.
	defer func() {
		if r := recover(); r != nil {
			result = errorResult(req.ID, CodeInternal, fmt.Sprintf("tool %s panicked: %v", req.Name, r))
		}
	}()

	spec, handler, err := d.registry.Lookup(req.Name)
	if err != nil {
		return errorResult(req.ID, CodeUnknownTool, err.Error())
	}

	args, err := spec.Validate(req.Args)
	if err != nil {
		return errorResult(req.ID, CodeInvalidArguments, err.Error())
	}

	if spec.Mutating {
		// At most one in-flight mutation per ticker.
		unlock := d.lockTicker(args.String("ticker"))
		defer unlock()
	}

	callCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
	defer cancel()

	payload, err := handler(callCtx, args)
	if err != nil {
		return errorResult(req.ID, codeFor(err), err.Error())
	}

	result.Payload = payload
	return result
}

// DispatchAll runs a batch of independent requests concurrently and
// reassembles the results in request order. One request's failure never
// blocks the others.
func (d *Dispatcher) DispatchAll(ctx context.Context, reqs []CallRequest) []CallResult {
	results := make([]CallResult, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req CallRequest) {
			defer wg.Done()
			results[i] = d.Dispatch(ctx, req)
		}(i, req)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) lockTicker(ticker string) func() {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return func() {}
	}
	v, _ := d.tickerLocks.LoadOrStore(ticker, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func errorResult(id, code, message string) CallResult {
	return CallResult{
		ID:     id,
		Status: StatusError,
		Error:  &CallError{Code: code, Message: message},
	}
}

// codeFor maps error chains to machine-stable codes.
func codeFor(err error) string {
	switch {
	case errors.Is(err, errors.ErrInvalidArguments), errors.Is(err, errors.ErrInvalidInput):
		return CodeInvalidArguments
	case errors.Is(err, errors.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, errors.ErrTimeout):
		return CodeTimeout
	case errors.Is(err, errors.ErrExternal), errors.Is(err, errors.ErrCollaborator),
		errors.Is(err, errors.ErrQuoteUnavailable), errors.Is(err, errors.ErrUnavailable):
		return CodeCollaborator
	default:
		return CodeInternal
	}
}
