package tools

import (
	"context"
	"sort"
	"sync"

	"plutus/internal/adapters/ai"
	"plutus/pkg/errors"
)

// Handler executes one tool call with validated arguments.
type Handler func(ctx context.Context, args Args) (interface{}, error)

type registration struct {
	spec    Spec
	handler Handler
}

// Registry holds the fixed capability set. Tools are registered once at
// startup; routing is checked at registration time, not at call time.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]registration
}

// NewRegistry constructs an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]registration)}
}

// Register adds a tool. Duplicate names fail with ErrDuplicateTool.
func (r *Registry) Register(spec Spec, handler Handler) error {
	if spec.Name == "" {
		return errors.Wrap(errors.ErrInvalidInput, "tool name cannot be empty")
	}
	if handler == nil {
		return errors.Wrapf(errors.ErrInvalidInput, "tool %s has no handler", spec.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[spec.Name]; exists {
		return errors.Wrapf(errors.ErrDuplicateTool, "tool %s already registered", spec.Name)
	}
	r.tools[spec.Name] = registration{spec: spec, handler: handler}
	return nil
}

// Lookup returns a tool's spec and handler, or ErrUnknownTool.
func (r *Registry) Lookup(name string) (Spec, Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.tools[name]
	if !ok {
		return Spec{}, nil, errors.Wrapf(errors.ErrUnknownTool, "tool %s not registered", name)
	}
	return reg.spec, reg.handler, nil
}

// Specs returns all registered specs sorted by name.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.tools))
	for _, reg := range r.tools {
		specs = append(specs, reg.spec)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}

// Definitions renders every spec as a model tool definition.
func (r *Registry) Definitions() []ai.ToolDefinition {
	specs := r.Specs()
	defs := make([]ai.ToolDefinition, 0, len(specs))
	for _, spec := range specs {
		defs = append(defs, ai.ToolDefinition{
			Type: "function",
			Function: ai.FunctionDefinition{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.JSONSchema(),
			},
		})
	}
	return defs
}
