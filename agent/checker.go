package agent

import (
	"context"
	"strings"

	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
)

// Decision is the outcome of grading a synthesized answer.
type Decision int

const (
	// DecisionReplan routes the run back through the replanner.
	DecisionReplan Decision = iota
	// DecisionTerminate accepts the answer and ends the run.
	DecisionTerminate
)

func (d Decision) String() string {
	if d == DecisionTerminate {
		return "terminate"
	}
	return "replan"
}

// acceptedScore reports whether a binary grade counts as acceptance.
// The match is a case-sensitive prefix check; anything else, including
// a malformed grade, is a rejection.
func acceptedScore(score string) bool {
	return strings.HasPrefix(score, "yes")
}

// PlanStepChecker grades a single candidate plan step against the
// original question. Unlike the structured invoker there is no retry:
// a response that fails to parse counts as a "no".
type PlanStepChecker struct {
	client  llm.ModelClient
	binding llm.SchemaBinding
	logger  log.Logger
}

// NewPlanStepChecker builds a checker. forced requires the model to emit
// the grade schema rather than merely offering it.
func NewPlanStepChecker(client llm.ModelClient, forced bool, logger log.Logger) *PlanStepChecker {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &PlanStepChecker{
		client:  client,
		binding: llm.SchemaBinding{Schemas: []llm.ToolSchema{gradeSchema}, Forced: forced},
		logger:  logger,
	}
}

// Check reports whether the step is graded executable for the question.
func (c *PlanStepChecker) Check(ctx context.Context, step, question string) (bool, error) {
	result, err := c.client.InvokeStructured(ctx, planCheckMessages(step, question), c.binding)
	if err != nil {
		if llm.IsParseError(err) {
			return false, nil
		}
		return false, err
	}

	var grade gradePayload
	if err := result.Decode(&grade); err != nil {
		return false, nil
	}

	c.logger.Debug("Task is %s, Score is %s", step, grade.BinaryScore)
	return acceptedScore(grade.BinaryScore), nil
}

// FinalAnswerChecker grades a synthesized answer and decides whether the
// run terminates or replans. Same grading mechanics as PlanStepChecker.
type FinalAnswerChecker struct {
	client  llm.ModelClient
	binding llm.SchemaBinding
	logger  log.Logger
}

// NewFinalAnswerChecker builds an answer checker.
func NewFinalAnswerChecker(client llm.ModelClient, forced bool, logger log.Logger) *FinalAnswerChecker {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return &FinalAnswerChecker{
		client:  client,
		binding: llm.SchemaBinding{Schemas: []llm.ToolSchema{gradeSchema}, Forced: forced},
		logger:  logger,
	}
}

// Grade decides whether the answer in state is acceptable.
func (c *FinalAnswerChecker) Grade(ctx context.Context, state ExecutionState) (Decision, error) {
	result, err := c.client.InvokeStructured(ctx, answerCheckMessages(state), c.binding)
	if err != nil {
		if llm.IsParseError(err) {
			return DecisionReplan, nil
		}
		return DecisionReplan, err
	}

	var grade gradePayload
	if err := result.Decode(&grade); err != nil {
		return DecisionReplan, nil
	}

	c.logger.Debug("Answer is %s, Grade of good response is %s", state.Response, grade.BinaryScore)
	if acceptedScore(grade.BinaryScore) {
		return DecisionTerminate, nil
	}
	return DecisionReplan, nil
}
