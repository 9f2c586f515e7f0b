package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel replays canned responses and records call options.
type fakeModel struct {
	responses []*llms.ContentResponse
	err       error
	calls     int
	lastOpts  llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.lastOpts = llms.CallOptions{}
	for _, o := range options {
		o(&m.lastOpts)
	}
	if m.err != nil {
		return nil, m.err
	}
	resp := m.responses[m.calls%len(m.responses)]
	m.calls++
	return resp, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func toolCallResponse(name, args string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						ID:   "call-1",
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      name,
							Arguments: args,
						},
					},
				},
			},
		},
	}
}

var planBinding = SchemaBinding{
	Schemas: []ToolSchema{
		{
			Name:        "Plan",
			Description: "Plan to follow in future",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"steps": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"steps"},
			},
		},
	},
	Forced: true,
}

func TestInvokeStructuredExtractsFirstMatch(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("Plan", `{"steps":["a","b"]}`),
	}}
	client := NewLangChainClient(model)

	res, err := client.InvokeStructured(context.Background(), nil, planBinding)
	require.NoError(t, err)
	assert.Equal(t, "Plan", res.Schema)

	var plan struct {
		Steps []string `json:"steps"`
	}
	require.NoError(t, res.Decode(&plan))
	assert.Equal(t, []string{"a", "b"}, plan.Steps)

	// Forced binding must be passed through as tool_choice.
	assert.NotNil(t, model.lastOpts.ToolChoice)
	assert.Len(t, model.lastOpts.Tools, 1)
}

func TestInvokeStructuredNoToolCallIsParseError(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		{Choices: []*llms.ContentChoice{{Content: "I cannot comply"}}},
	}}
	client := NewLangChainClient(model)

	_, err := client.InvokeStructured(context.Background(), nil, planBinding)
	assert.True(t, IsParseError(err))
}

func TestInvokeStructuredInvalidJSONIsParseError(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("Plan", `{"steps": [`),
	}}
	client := NewLangChainClient(model)

	_, err := client.InvokeStructured(context.Background(), nil, planBinding)
	assert.True(t, IsParseError(err))
}

func TestInvokeStructuredUnboundSchemaIgnored(t *testing.T) {
	model := &fakeModel{responses: []*llms.ContentResponse{
		toolCallResponse("SomethingElse", `{"x":1}`),
	}}
	client := NewLangChainClient(model)

	_, err := client.InvokeStructured(context.Background(), nil, planBinding)
	assert.True(t, IsParseError(err))
}

func TestDecodeMismatchIsParseError(t *testing.T) {
	res := &StructuredResult{Schema: "Plan", Arguments: []byte(`{"steps": "not-an-array"}`)}
	var plan struct {
		Steps []string `json:"steps"`
	}
	err := res.Decode(&plan)
	assert.True(t, IsParseError(err))
}
