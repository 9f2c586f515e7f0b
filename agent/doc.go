// Package agent implements a plan-execute-replan loop over a chat model
// and a set of single-input tools.
//
// A run moves through an explicit state machine:
//
//	planner -> plan_executor -> answer_maker -> end
//	                 ^                |
//	                 +--- replan <----+  (answer rejected)
//
// The planner generates a step list and filters it through a binary
// step checker, regenerating until at least one step survives. The
// executor runs the steps sequentially through a tool-calling loop,
// feeding earlier outputs into later task prompts. The answer maker
// synthesizes a response from the executed steps, and the answer
// checker either accepts it or routes through the replanner for
// another cycle.
//
// Structured model output is obtained by schema binding: a call is
// retried while the model fails to produce a well-formed instance of
// the bound schema, and aborted on any other error. The retry budget is
// configurable; the default retries without limit.
//
// Runs come in two modes. Run is synchronous and converts any failure
// into its textual description. Stream emits text frames per completed
// phase and supports cooperative cancellation through an injected
// thread registry, checked between phases only.
package agent
