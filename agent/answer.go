package agent

import (
	"context"

	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
)

// AnswerMaker synthesizes the final answer from the objective and the
// executed steps. Parse failures are retried per the invoker's policy.
type AnswerMaker struct {
	invoker *StructuredOutputInvoker
	logger  log.Logger
}

// NewAnswerMaker builds an answer maker.
func NewAnswerMaker(client llm.ModelClient, forced bool, maxAttempts int, logger log.Logger) *AnswerMaker {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	binding := llm.SchemaBinding{Schemas: []llm.ToolSchema{responseSchema}, Forced: forced}
	return &AnswerMaker{
		invoker: NewStructuredOutputInvoker(client, binding, maxAttempts, logger),
		logger:  logger,
	}
}

// Synthesize produces the answer, writing both the response and output
// fields of the state.
func (m *AnswerMaker) Synthesize(ctx context.Context, state ExecutionState) (StateDelta, error) {
	var payload responsePayload
	if err := m.invoker.Invoke(ctx, answerMakeMessages(state), &payload); err != nil {
		return StateDelta{}, err
	}
	m.logger.Debug("generated response: %s", payload.Response)

	answer := payload.Response
	return StateDelta{Response: &answer, Output: &answer}, nil
}
