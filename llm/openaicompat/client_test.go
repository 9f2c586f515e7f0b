package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/smallnest/planexec/llm"
)

// chatStub serves a canned OpenAI chat-completions response and records
// the last request body.
type chatStub struct {
	response map[string]any
	lastReq  map[string]any
}

func (s *chatStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.lastReq = map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&s.lastReq)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.response)
}

func newStubClient(t *testing.T, stub *chatStub) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL, APIKey: "test", Model: "test-model"})
	require.NoError(t, err)
	return client
}

func TestGenerateContentText(t *testing.T) {
	stub := &chatStub{response: map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": "hello"}, "finish_reason": "stop"},
		},
	}}
	client := newStubClient(t, stub)

	resp, err := client.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Choices[0].Content)

	msgs := stub.lastReq["messages"].([]any)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
}

func TestInvokeStructuredForcedToolChoice(t *testing.T) {
	stub := &chatStub{response: map[string]any{
		"choices": []map[string]any{
			{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{
						{
							"id":   "call-1",
							"type": "function",
							"function": map[string]any{
								"name":      "Plan",
								"arguments": `{"steps":["one"]}`,
							},
						},
					},
				},
				"finish_reason": "tool_calls",
			},
		},
	}}
	client := newStubClient(t, stub)

	binding := llm.SchemaBinding{
		Schemas: []llm.ToolSchema{{Name: "Plan", Parameters: map[string]any{"type": "object"}}},
		Forced:  true,
	}
	res, err := client.InvokeStructured(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "plan it"),
	}, binding)
	require.NoError(t, err)
	assert.Equal(t, "Plan", res.Schema)

	// Forced binding must surface as a function tool_choice on the wire.
	tc, ok := stub.lastReq["tool_choice"].(map[string]any)
	require.True(t, ok, "tool_choice not sent: %v", stub.lastReq["tool_choice"])
	fn := tc["function"].(map[string]any)
	assert.Equal(t, "Plan", fn["name"])
}

func TestNewRequiresModel(t *testing.T) {
	_, err := New(Options{APIKey: "k"})
	assert.Error(t, err)
}
