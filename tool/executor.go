package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

var (
	// ErrMultiInputTool is returned when a tool declares more than one
	// input argument. The executor drives single-input tools only.
	ErrMultiInputTool = errors.New("only single input tools are supported")

	// ErrToolNotFound is returned when an invocation names an unknown tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrDuplicateTool is returned when two tools share a name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// InputSchemaProvider lets a tool declare a JSON schema for its input.
// Tools without it are assumed to take a single free-form string.
type InputSchemaProvider interface {
	// InputSchema returns a JSON-schema object describing the tool input.
	InputSchema() map[string]any
}

// Invocation names a tool and carries its single input string.
type Invocation struct {
	Tool      string
	ToolInput string
}

// Executor dispatches invocations to a fixed set of single-input tools.
type Executor struct {
	tools map[string]tools.Tool
	names []string
}

// NewExecutor builds an executor over the given tools. Tools whose
// declared schema takes more than one argument are rejected here, at
// construction, never at invocation time.
func NewExecutor(ts []tools.Tool) (*Executor, error) {
	e := &Executor{tools: make(map[string]tools.Tool, len(ts))}
	for _, t := range ts {
		if err := validateSingleInput(t); err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name(), err)
		}
		if _, exists := e.tools[t.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, t.Name())
		}
		e.tools[t.Name()] = t
		e.names = append(e.names, t.Name())
	}
	return e, nil
}

// validateSingleInput rejects tools that declare multiple input arguments.
func validateSingleInput(t tools.Tool) error {
	sp, ok := t.(InputSchemaProvider)
	if !ok {
		// tools.Tool.Call takes one string; nothing more to check.
		return nil
	}
	schema := sp.InputSchema()
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	if len(props) > 1 {
		return ErrMultiInputTool
	}
	return nil
}

// Execute runs the named tool with the given input.
func (e *Executor) Execute(ctx context.Context, inv Invocation) (string, error) {
	t, ok := e.tools[inv.Tool]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, inv.Tool)
	}
	return t.Call(ctx, inv.ToolInput)
}

// Len returns the number of registered tools.
func (e *Executor) Len() int {
	return len(e.tools)
}

// Names returns tool names in registration order.
func (e *Executor) Names() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Definitions renders the registered tools as function definitions with a
// single "input" string argument, for passing to the model.
func (e *Executor) Definitions() []llms.Tool {
	var defs []llms.Tool
	for _, name := range e.names {
		t := e.tools[name]
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"input": map[string]any{
							"type":        "string",
							"description": "The input query for the tool",
						},
					},
					"required":             []string{"input"},
					"additionalProperties": false,
				},
			},
		})
	}
	return defs
}
