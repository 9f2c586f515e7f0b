package agent

import (
	"fmt"
	"strings"

	"github.com/smallnest/planexec/llm"
	"github.com/tmc/langchaingo/llms"
)

// Output schemas bound to structured model calls.

var planSchema = llm.ToolSchema{
	Name:        "Plan",
	Description: "Plan to follow in future.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"steps": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "different steps to follow, should be in sorted order",
			},
		},
		"required": []string{"steps"},
	},
}

var responseSchema = llm.ToolSchema{
	Name:        "Response",
	Description: "Response to user.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"response": map[string]any{
				"type": "string",
			},
		},
		"required": []string{"response"},
	},
}

var gradeSchema = llm.ToolSchema{
	Name:        "grade",
	Description: "Binary grade of the candidate.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"binary_score": map[string]any{
				"type":        "string",
				"description": "executable score 'yes' or 'no'",
			},
		},
		"required": []string{"binary_score"},
	},
}

// Typed payloads decoded from the schemas above.

type planPayload struct {
	Steps []string `json:"steps"`
}

type responsePayload struct {
	Response string `json:"response"`
}

type gradePayload struct {
	BinaryScore string `json:"binary_score"`
}

const plannerSystemPrompt = `For the given objective, come up with a simple step by step plan. ` +
	`This plan should involve individual tasks, that if executed correctly will yield the correct answer. ` +
	`Do not add any superfluous steps. The result of the final step should be the final answer. ` +
	`Make sure that each step has all the information needed - do not skip steps.`

func plannerMessages(objective string) []llms.MessageContent {
	return []llms.MessageContent{
		systemMessage(plannerSystemPrompt),
		humanMessage(objective),
	}
}

func planCheckMessages(step, question string) []llms.MessageContent {
	prompt := fmt.Sprintf(`You are grading a candidate plan step. `+
		`Decide whether the step is executable and helps answer the question. `+
		`Give a binary score 'yes' or 'no'.

Step: %s
Question: %s`, step, question)
	return []llms.MessageContent{humanMessage(prompt)}
}

func answerMakeMessages(state ExecutionState) []llms.MessageContent {
	prompt := fmt.Sprintf(`Make a final answer to the objective based on the executed steps below. `+
		`Answer directly and completely.

Objective: %s

Executed steps and results:
%s`, state.Input, renderSteps(state.PastSteps))
	return []llms.MessageContent{humanMessage(prompt)}
}

func answerCheckMessages(state ExecutionState) []llms.MessageContent {
	prompt := fmt.Sprintf(`Decide whether the answer below fully resolves the objective. `+
		`Give a binary score 'yes' or 'no'.

Objective: %s
Answer: %s`, state.Input, state.Response)
	return []llms.MessageContent{humanMessage(prompt)}
}

func replannerMessages(state ExecutionState) []llms.MessageContent {
	prompt := fmt.Sprintf(`%s

Your objective was this:
%s

Your original plan was this:
%s

You have currently done the following steps:
%s

The answer produced so far was rejected:
%s

Update your plan accordingly. Only add steps that still NEED to be done. ` +
		`Do not return previously done steps as part of the plan.`,
		plannerSystemPrompt, state.Input, strings.Join(state.Plan, "\n"),
		renderSteps(state.PastSteps), state.Response)
	return []llms.MessageContent{humanMessage(prompt)}
}

func renderSteps(steps []StepRecord) string {
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		lines = append(lines, s.String())
	}
	return strings.Join(lines, "\n")
}

func systemMessage(text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeSystem,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}

func humanMessage(text string) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(text)},
	}
}
