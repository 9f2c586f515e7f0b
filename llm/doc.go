// Package llm defines the model-invocation capability consumed by the
// plan-execute agent: a chat model that can be bound to named output
// schemas and asked for a structured result.
//
// A SchemaBinding carries one or more ToolSchema descriptors plus a Forced
// flag. Forced bindings require the model to emit exactly the first schema
// (the vLLM-style tool_choice mode); permissive bindings offer the schemas
// as allowed options. InvokeStructured extracts the first well-formed
// instance of a bound schema from the model output, or returns a
// *ParseError when none matches.
package llm
