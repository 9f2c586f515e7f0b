package agent

import (
	"context"
	"fmt"

	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
)

// Planner produces the initial plan for a user request. Generated steps
// are individually graded by the step checker; if none survive, the
// whole plan is discarded and regenerated from scratch.
type Planner struct {
	invoker     *StructuredOutputInvoker
	checker     *PlanStepChecker
	maxAttempts int
	logger      log.Logger
}

// NewPlanner builds a planner. maxAttempts caps both the parse-retry
// loop and the regenerate-on-empty loop; 0 means no cap.
func NewPlanner(client llm.ModelClient, checker *PlanStepChecker, forced bool, maxAttempts int, logger log.Logger) *Planner {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	binding := llm.SchemaBinding{Schemas: []llm.ToolSchema{planSchema}, Forced: forced}
	return &Planner{
		invoker:     NewStructuredOutputInvoker(client, binding, maxAttempts, logger),
		checker:     checker,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Plan generates and filters a plan for the objective. The returned
// delta carries the objective as the run's input and the surviving
// steps in generation order.
func (p *Planner) Plan(ctx context.Context, objective string) (StateDelta, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return StateDelta{}, err
		}

		var plan planPayload
		if err := p.invoker.Invoke(ctx, plannerMessages(objective), &plan); err != nil {
			return StateDelta{}, err
		}
		p.logger.Debug("generated plan: %v", plan.Steps)

		var steps []string
		for _, step := range plan.Steps {
			ok, err := p.checker.Check(ctx, step, objective)
			if err != nil {
				return StateDelta{}, err
			}
			if ok {
				steps = append(steps, step)
			}
		}

		if len(steps) > 0 {
			p.logger.Info("plan has %d steps", len(steps))
			input := objective
			return StateDelta{Input: &input, Plan: steps}, nil
		}

		// Every step was rejected; generate a fresh plan.
		p.logger.Warn("all plan steps rejected, regenerating (attempt %d)", attempt)
		if p.maxAttempts > 0 && attempt >= p.maxAttempts {
			return StateDelta{}, fmt.Errorf("no acceptable plan after %d attempts", attempt)
		}
	}
}

// Replanner regenerates the plan after a rejected answer, conditioned on
// the full run history. Regenerated steps are not re-filtered.
type Replanner struct {
	invoker *StructuredOutputInvoker
	logger  log.Logger
}

// NewReplanner builds a replanner.
func NewReplanner(client llm.ModelClient, forced bool, maxAttempts int, logger log.Logger) *Replanner {
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	binding := llm.SchemaBinding{Schemas: []llm.ToolSchema{planSchema}, Forced: forced}
	return &Replanner{
		invoker: NewStructuredOutputInvoker(client, binding, maxAttempts, logger),
		logger:  logger,
	}
}

// Replan produces a new plan from the current state. The returned delta
// replaces the plan wholesale.
func (r *Replanner) Replan(ctx context.Context, state ExecutionState) (StateDelta, error) {
	var plan planPayload
	if err := r.invoker.Invoke(ctx, replannerMessages(state), &plan); err != nil {
		return StateDelta{}, err
	}
	r.logger.Debug("replan: %v", plan.Steps)
	return StateDelta{Plan: plan.Steps}, nil
}
