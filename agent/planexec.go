package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/planexec/llm"
	"github.com/smallnest/planexec/log"
	"github.com/smallnest/planexec/registry"
	"github.com/smallnest/planexec/store"
	"github.com/smallnest/planexec/tool"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// phase is one state of the run's state machine.
type phase int

const (
	phasePlanner phase = iota
	phaseExecutor
	phaseAnswerMaker
	phaseReplan
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phasePlanner:
		return "planner"
	case phaseExecutor:
		return "plan_executor"
	case phaseAnswerMaker:
		return "answer_maker"
	case phaseReplan:
		return "replan"
	case phaseDone:
		return "end"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Agent is the plan-execute-replan loop: plan the request, execute the
// steps with tools, synthesize an answer, and replan until the answer
// checker accepts it.
type Agent struct {
	client llm.ModelClient
	tools  *tool.Executor

	planner       *Planner
	executor      *PlanExecutor
	answerMaker   *AnswerMaker
	answerChecker *FinalAnswerChecker
	replanner     *Replanner

	threads     registry.Store
	checkpoints store.CheckpointStore
	logger      log.Logger
}

// Option configures an Agent.
type Option func(*options)

type options struct {
	maxAttempts   int
	maxIterations int
	forced        bool
	threads       registry.Store
	checkpoints   store.CheckpointStore
	logger        log.Logger
}

// WithMaxAttempts caps every structured-output retry loop, including
// plan regeneration. 0 (the default) retries without limit.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.maxAttempts = n }
}

// WithMaxIterations bounds the tool loop per plan step.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// WithForcedSchema makes every structured call force its schema via
// tool choice instead of merely offering it. Use with backends that
// support forced function calling, such as vLLM.
func WithForcedSchema(forced bool) Option {
	return func(o *options) { o.forced = forced }
}

// WithThreadRegistry injects the thread table consulted for cooperative
// cancellation during streaming runs.
func WithThreadRegistry(threads registry.Store) Option {
	return func(o *options) { o.threads = threads }
}

// WithCheckpointStore persists a state snapshot after every phase.
func WithCheckpointStore(cs store.CheckpointStore) Option {
	return func(o *options) { o.checkpoints = cs }
}

// WithLogger sets the agent's logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds an agent over a model client and a tool set. Tools taking
// more than one input argument are rejected here.
func New(client llm.ModelClient, toolSet []tools.Tool, opts ...Option) (*Agent, error) {
	if client == nil {
		return nil, fmt.Errorf("model client is required")
	}

	o := &options{logger: log.GetDefaultLogger()}
	for _, opt := range opts {
		opt(o)
	}

	executor, err := tool.NewExecutor(toolSet)
	if err != nil {
		return nil, err
	}

	stepChecker := NewPlanStepChecker(client, o.forced, log.Scoped(o.logger, "plan_checker"))

	return &Agent{
		client:        client,
		tools:         executor,
		planner:       NewPlanner(client, stepChecker, o.forced, o.maxAttempts, log.Scoped(o.logger, phasePlanner.String())),
		executor:      NewPlanExecutor(client, executor, o.maxIterations, log.Scoped(o.logger, phaseExecutor.String())),
		answerMaker:   NewAnswerMaker(client, o.forced, o.maxAttempts, log.Scoped(o.logger, phaseAnswerMaker.String())),
		answerChecker: NewFinalAnswerChecker(client, o.forced, log.Scoped(o.logger, "answer_checker")),
		replanner:     NewReplanner(client, o.forced, o.maxAttempts, log.Scoped(o.logger, phaseReplan.String())),
		threads:       o.threads,
		checkpoints:   o.checkpoints,
		logger:        o.logger,
	}, nil
}

// runPhase executes the node for one phase and returns its state delta.
func (a *Agent) runPhase(ctx context.Context, ph phase, state ExecutionState) (StateDelta, error) {
	a.logger.Info("--- CALL %s ---", ph)
	switch ph {
	case phasePlanner:
		return a.planner.Plan(ctx, latestHumanText(state))
	case phaseExecutor:
		return a.executor.Execute(ctx, state.Plan)
	case phaseAnswerMaker:
		return a.answerMaker.Synthesize(ctx, state)
	case phaseReplan:
		return a.replanner.Replan(ctx, state)
	default:
		return StateDelta{}, fmt.Errorf("no node for phase %s", ph)
	}
}

// nextPhase is the transition function. Only answer_maker branches: the
// answer checker decides between termination and another plan cycle.
func (a *Agent) nextPhase(ctx context.Context, ph phase, state ExecutionState) (phase, error) {
	switch ph {
	case phasePlanner:
		return phaseExecutor, nil
	case phaseExecutor:
		return phaseAnswerMaker, nil
	case phaseAnswerMaker:
		decision, err := a.answerChecker.Grade(ctx, state)
		if err != nil {
			return phaseDone, err
		}
		if decision == DecisionTerminate {
			return phaseDone, nil
		}
		return phaseReplan, nil
	case phaseReplan:
		return phaseExecutor, nil
	default:
		return phaseDone, fmt.Errorf("no transition from phase %s", ph)
	}
}

// Invoke runs the loop to completion and returns the final state.
func (a *Agent) Invoke(ctx context.Context, query string) (ExecutionState, error) {
	return a.run(ctx, query, uuid.NewString())
}

func (a *Agent) run(ctx context.Context, query, runID string) (ExecutionState, error) {
	state := initialState(query)
	version := 0

	for ph := phasePlanner; ph != phaseDone; {
		delta, err := a.runPhase(ctx, ph, state)
		if err != nil {
			return state, err
		}
		state = state.Apply(delta)

		version++
		a.saveCheckpoint(ctx, runID, ph, state, version)

		ph, err = a.nextPhase(ctx, ph, state)
		if err != nil {
			return state, err
		}
	}

	return state, nil
}

// Run is the synchronous entry point. Any failure is converted to its
// textual description rather than returned as an error.
func (a *Agent) Run(ctx context.Context, query string) string {
	state, err := a.run(ctx, query, uuid.NewString())
	if err != nil {
		return err.Error()
	}
	a.logger.Info("******Response: %s", state.Output)
	return state.Output
}

// saveCheckpoint persists a snapshot if a checkpoint store is set.
// Persistence failures are logged, never fatal to the run.
func (a *Agent) saveCheckpoint(ctx context.Context, threadID string, ph phase, state ExecutionState, version int) {
	if a.checkpoints == nil {
		return
	}
	cp := &store.Checkpoint{
		ID:        uuid.NewString(),
		ThreadID:  threadID,
		Phase:     ph.String(),
		State:     state,
		Timestamp: time.Now(),
		Version:   version,
	}
	if err := a.checkpoints.Save(ctx, cp); err != nil {
		a.logger.Warn("checkpoint save failed for thread %s: %v", threadID, err)
	}
}

// latestHumanText returns the content of the most recent message, which
// seeds the planner with the user's request.
func latestHumanText(state ExecutionState) string {
	if len(state.Messages) == 0 {
		return ""
	}
	last := state.Messages[len(state.Messages)-1]
	for _, part := range last.Parts {
		if text, ok := part.(llms.TextContent); ok {
			return text.Text
		}
	}
	return ""
}
