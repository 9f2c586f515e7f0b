package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
	"github.com/smallnest/planexec/tool"
	"github.com/tmc/langchaingo/llms"
)

// DefaultMaxIterations bounds the reasoning/tool loop for one plan step.
const DefaultMaxIterations = 50

const executorSystemPrompt = `You are a capable assistant executing one task of a larger plan. ` +
	`Use the provided tools when they help. When you have the final result, reply with it directly as plain text.`

// PlanExecutor runs plan steps in order through a tool-calling loop.
// Each step's task prompt embeds the outputs of all earlier steps, so
// steps are never executed in parallel.
type PlanExecutor struct {
	client        llm.ModelClient
	tools         *tool.Executor
	maxIterations int
	logger        log.Logger
}

// NewPlanExecutor builds an executor over a tool set. maxIterations
// bounds the tool loop per step; values below 1 fall back to
// DefaultMaxIterations.
func NewPlanExecutor(client llm.ModelClient, tools *tool.Executor, maxIterations int, logger log.Logger) *PlanExecutor {
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &PlanExecutor{
		client:        client,
		tools:         tools,
		maxIterations: maxIterations,
		logger:        logger,
	}
}

// Execute runs every step of the plan in order and returns the produced
// step records. A step that exhausts the iteration budget or whose tool
// fails aborts the whole call.
func (e *PlanExecutor) Execute(ctx context.Context, plan []string) (StateDelta, error) {
	var records []StepRecord
	for _, step := range plan {
		task := taskPrompt(step, records)
		e.logger.Debug("executing step: %s", step)

		output, err := e.runStep(ctx, task)
		if err != nil {
			return StateDelta{}, fmt.Errorf("step %q: %w", step, err)
		}

		e.logger.Info("Task is %s, Response is %s", step, output)
		records = append(records, StepRecord{Step: step, Output: output})
	}
	return StateDelta{PastSteps: records}, nil
}

// taskPrompt renders the task for one step, embedding every earlier
// step's output verbatim.
func taskPrompt(step string, prior []StepRecord) string {
	return fmt.Sprintf(`
You are tasked with executing %s.

You can leverage output from previous steps to help you.
previous steps and output: %v
`, step, prior)
}

// runStep drives the tool loop for one task until the model answers in
// plain text or the iteration budget runs out.
func (e *PlanExecutor) runStep(ctx context.Context, task string) (string, error) {
	messages := []llms.MessageContent{
		systemMessage(executorSystemPrompt),
		humanMessage(task),
	}

	var opts []llms.CallOption
	if e.tools != nil && e.tools.Len() > 0 {
		opts = append(opts, llms.WithTools(e.tools.Definitions()))
	}

	for i := 0; i < e.maxIterations; i++ {
		resp, err := e.client.GenerateContent(ctx, messages, opts...)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("model returned no choices")
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			return choice.Content, nil
		}

		for _, tc := range choice.ToolCalls {
			messages = append(messages, toolCallMessage(tc))

			observation, recovered := e.invokeTool(ctx, tc)
			if !recovered {
				return "", fmt.Errorf("tool %s: %s", toolCallName(tc), observation)
			}
			messages = append(messages, toolResponseMessage(tc, observation))
		}
	}

	return "", fmt.Errorf("no final answer after %d iterations", e.maxIterations)
}

// invokeTool executes one tool call. Malformed call syntax and unknown
// tool names are recovered as corrective feedback for the next
// iteration; a tool that runs and fails is fatal.
func (e *PlanExecutor) invokeTool(ctx context.Context, tc llms.ToolCall) (string, bool) {
	if tc.FunctionCall == nil {
		return "Invalid tool call: missing function name. Answer directly or call a tool by name.", true
	}

	var args struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
		e.logger.Warn("malformed tool arguments for %s: %v", tc.FunctionCall.Name, err)
		return fmt.Sprintf("Invalid tool arguments: %v. Provide a JSON object with a single string field %q.", err, "input"), true
	}

	// Models sometimes hallucinate calls even with no tools advertised.
	if e.tools == nil || e.tools.Len() == 0 {
		return fmt.Sprintf("Unknown tool %q. No tools are available; answer directly.", tc.FunctionCall.Name), true
	}

	output, err := e.tools.Execute(ctx, tool.Invocation{Tool: tc.FunctionCall.Name, ToolInput: args.Input})
	if err != nil {
		if errors.Is(err, tool.ErrToolNotFound) {
			return fmt.Sprintf("Unknown tool %q. Available tools: %v.", tc.FunctionCall.Name, e.tools.Names()), true
		}
		return err.Error(), false
	}
	return output, true
}

func toolCallName(tc llms.ToolCall) string {
	if tc.FunctionCall == nil {
		return "<unnamed>"
	}
	return tc.FunctionCall.Name
}

func toolCallMessage(tc llms.ToolCall) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeAI,
		Parts: []llms.ContentPart{tc},
	}
}

func toolResponseMessage(tc llms.ToolCall, content string) llms.MessageContent {
	return llms.MessageContent{
		Role: llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{llms.ToolCallResponse{
			ToolCallID: tc.ID,
			Name:       toolCallName(tc),
			Content:    content,
		}},
	}
}
