// Package openaicompat implements llm.ModelClient over any
// OpenAI-compatible chat-completions endpoint (vLLM, TGI, OpenAI itself).
// Forced schema bindings use native tool_choice, which self-hosted vLLM
// honors for guaranteed function emission.
package openaicompat

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/planexec/llm"
)

// Options configures the client.
type Options struct {
	// BaseURL is the endpoint root, e.g. "http://vllm:8000/v1".
	// Empty means the OpenAI default.
	BaseURL string

	// APIKey authenticates the endpoint. Falls back to OPENAI_API_KEY.
	APIKey string

	// Model is the model name passed on every request.
	Model string
}

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	api   *openai.Client
	model string
}

var _ llm.ModelClient = (*Client)(nil)

// New creates a client for the configured endpoint.
func New(opts Options) (*Client, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	cfg := openai.DefaultConfig(key)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: opts.Model,
	}, nil
}

// GenerateContent implements llms.Model.
func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	co := llms.CallOptions{}
	for _, o := range options {
		o(&co)
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: convertMessages(messages),
	}
	if co.Temperature > 0 {
		req.Temperature = float32(co.Temperature)
	}
	if co.MaxTokens > 0 {
		req.MaxTokens = co.MaxTokens
	}
	for _, t := range co.Tools {
		if t.Function == nil {
			continue
		}
		req.Tools = append(req.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  t.Function.Parameters,
			},
		})
	}
	if name, ok := forcedToolName(co.ToolChoice); ok {
		req.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: name},
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	out := &llms.ContentResponse{}
	for _, ch := range resp.Choices {
		choice := &llms.ContentChoice{
			Content:    ch.Message.Content,
			StopReason: string(ch.FinishReason),
		}
		for _, tc := range ch.Message.ToolCalls {
			choice.ToolCalls = append(choice.ToolCalls, llms.ToolCall{
				ID:   tc.ID,
				Type: string(tc.Type),
				FunctionCall: &llms.FunctionCall{
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				},
			})
		}
		out.Choices = append(out.Choices, choice)
	}
	return out, nil
}

// Call implements llms.Model.
func (c *Client) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := c.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// InvokeStructured implements llm.ModelClient.
func (c *Client) InvokeStructured(ctx context.Context, messages []llms.MessageContent, binding llm.SchemaBinding) (*llm.StructuredResult, error) {
	lc := llm.NewLangChainClient(c)
	return lc.InvokeStructured(ctx, messages, binding)
}

// forcedToolName digs the function name out of a tool_choice value.
func forcedToolName(choice any) (string, bool) {
	m, ok := choice.(map[string]any)
	if !ok {
		return "", false
	}
	fn, ok := m["function"].(map[string]any)
	if !ok {
		return "", false
	}
	name, ok := fn["name"].(string)
	return name, ok && name != ""
}

// convertMessages maps langchaingo message content onto the OpenAI wire
// format. Tool calls and tool responses keep their call IDs so multi-turn
// agent loops replay correctly.
func convertMessages(messages []llms.MessageContent) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{Role: convertRole(msg.Role)}
		for _, part := range msg.Parts {
			switch p := part.(type) {
			case llms.TextContent:
				m.Content += p.Text
			case llms.ToolCall:
				if p.FunctionCall == nil {
					continue
				}
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   p.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.FunctionCall.Name,
						Arguments: p.FunctionCall.Arguments,
					},
				})
			case llms.ToolCallResponse:
				m.ToolCallID = p.ToolCallID
				m.Name = p.Name
				m.Content = p.Content
			}
		}
		out = append(out, m)
	}
	return out
}

func convertRole(role llms.ChatMessageType) string {
	switch role {
	case llms.ChatMessageTypeSystem:
		return openai.ChatMessageRoleSystem
	case llms.ChatMessageTypeAI:
		return openai.ChatMessageRoleAssistant
	case llms.ChatMessageTypeTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}
