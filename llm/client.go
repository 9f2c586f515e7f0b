package llm

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/llms"
)

// ModelClient is the model capability the agent consumes. It is a plain
// chat model plus schema-bound structured invocation.
type ModelClient interface {
	llms.Model

	// InvokeStructured sends messages with the given schema binding and
	// extracts the first well-formed schema instance from the response.
	// A *ParseError means the response had no such instance; any other
	// error is a transport or model failure.
	InvokeStructured(ctx context.Context, messages []llms.MessageContent, binding SchemaBinding) (*StructuredResult, error)
}

// LangChainClient adapts any langchaingo llms.Model into a ModelClient.
type LangChainClient struct {
	llms.Model
}

var _ ModelClient = (*LangChainClient)(nil)

// NewLangChainClient wraps model.
func NewLangChainClient(model llms.Model) *LangChainClient {
	return &LangChainClient{Model: model}
}

// InvokeStructured implements ModelClient.
func (c *LangChainClient) InvokeStructured(ctx context.Context, messages []llms.MessageContent, binding SchemaBinding) (*StructuredResult, error) {
	opts := []llms.CallOption{
		llms.WithTools(bindingTools(binding)),
	}
	if binding.Forced && len(binding.Schemas) > 0 {
		opts = append(opts, llms.WithToolChoice(map[string]any{
			"type": "function",
			"function": map[string]any{
				"name": binding.Schemas[0].Name,
			},
		}))
	}

	resp, err := c.Model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, err
	}

	return ExtractStructured(resp, binding)
}

// bindingTools converts the bound schemas into function-tool definitions.
func bindingTools(binding SchemaBinding) []llms.Tool {
	tools := make([]llms.Tool, 0, len(binding.Schemas))
	for _, s := range binding.Schemas {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.Parameters,
			},
		})
	}
	return tools
}

// ExtractStructured scans a content response for the first tool call that
// matches one of the bound schemas and carries valid JSON arguments.
func ExtractStructured(resp *llms.ContentResponse, binding SchemaBinding) (*StructuredResult, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &ParseError{Message: "empty model response"}
	}

	bound := make(map[string]bool, len(binding.Schemas))
	for _, s := range binding.Schemas {
		bound[s.Name] = true
	}

	choice := resp.Choices[0]
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil || !bound[tc.FunctionCall.Name] {
			continue
		}
		args := tc.FunctionCall.Arguments
		if !json.Valid([]byte(args)) {
			return nil, &ParseError{Message: "tool call arguments are not valid JSON", Raw: args}
		}
		return &StructuredResult{
			Schema:    tc.FunctionCall.Name,
			Arguments: json.RawMessage(args),
		}, nil
	}

	return nil, &ParseError{Message: "no tool call matched a bound schema", Raw: choice.Content}
}
