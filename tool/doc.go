// Package tool provides the tool-execution capability used by the agent's
// step executor, plus a small catalogue of ready-made single-input tools.
//
// Tools implement langchaingo's tools.Tool. The Executor validates at
// construction that every tool takes a single input argument; multi-input
// tools are a configuration error, not a runtime one.
package tool
