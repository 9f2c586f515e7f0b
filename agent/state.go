package agent

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// StepRecord is one executed plan step and the output it produced.
type StepRecord struct {
	Step   string `json:"step"`
	Output string `json:"output"`
}

func (r StepRecord) String() string {
	return fmt.Sprintf("Task is %s, Response is %s", r.Step, r.Output)
}

// ExecutionState is the state threaded through every phase of a run.
type ExecutionState struct {
	// Messages is the conversation history, append-only.
	Messages []llms.MessageContent `json:"messages"`

	// Input is the original user request. Set once by the planner,
	// immutable for the rest of the run.
	Input string `json:"input"`

	// Plan is the current ordered list of step descriptions. Replaced
	// wholesale by the planner or replanner.
	Plan []string `json:"plan"`

	// PastSteps grows monotonically across executor calls within a run.
	PastSteps []StepRecord `json:"past_steps"`

	// Response and Output hold the synthesized answer, overwritten once
	// per planning cycle.
	Response string `json:"response"`
	Output   string `json:"output"`
}

// StateDelta is a partial state update returned by a phase. Nil fields
// are untouched by Apply.
type StateDelta struct {
	Messages  []llms.MessageContent `json:"messages,omitempty"`
	Input     *string               `json:"input,omitempty"`
	Plan      []string              `json:"plan,omitempty"`
	PastSteps []StepRecord          `json:"past_steps,omitempty"`
	Response  *string               `json:"response,omitempty"`
	Output    *string               `json:"output,omitempty"`
}

// Apply merges a delta into the state and returns the result. Messages
// and past steps are appended, input is set-once, the plan is replaced
// wholesale, response and output are overwritten.
func (s ExecutionState) Apply(d StateDelta) ExecutionState {
	if len(d.Messages) > 0 {
		s.Messages = append(s.Messages, d.Messages...)
	}
	if d.Input != nil && s.Input == "" {
		s.Input = *d.Input
	}
	if d.Plan != nil {
		s.Plan = d.Plan
	}
	if len(d.PastSteps) > 0 {
		s.PastSteps = append(s.PastSteps, d.PastSteps...)
	}
	if d.Response != nil {
		s.Response = *d.Response
	}
	if d.Output != nil {
		s.Output = *d.Output
	}
	return s
}

// deltaField is one non-nil delta field rendered for streaming.
type deltaField struct {
	Name  string
	Value string
}

// fields renders the delta's set fields in declaration order.
func (d StateDelta) fields() []deltaField {
	var out []deltaField
	if len(d.Messages) > 0 {
		out = append(out, deltaField{"messages", fmt.Sprintf("%v", d.Messages)})
	}
	if d.Input != nil {
		out = append(out, deltaField{"input", *d.Input})
	}
	if d.Plan != nil {
		out = append(out, deltaField{"plan", fmt.Sprintf("%v", d.Plan)})
	}
	if len(d.PastSteps) > 0 {
		out = append(out, deltaField{"past_steps", fmt.Sprintf("%v", d.PastSteps)})
	}
	if d.Response != nil {
		out = append(out, deltaField{"response", *d.Response})
	}
	if d.Output != nil {
		out = append(out, deltaField{"output", *d.Output})
	}
	return out
}

// initialState seeds a run with the user query as the first message.
func initialState(query string) ExecutionState {
	return ExecutionState{
		Messages: []llms.MessageContent{
			{
				Role:  llms.ChatMessageTypeHuman,
				Parts: []llms.ContentPart{llms.TextPart(query)},
			},
		},
	}
}
