package log

// scoped tags every message with the node it came from, so interleaved
// output from a running loop reads as "planner: ..." / "plan_executor: ...".
type scoped struct {
	node string
	base Logger
}

// Scoped returns a logger that prefixes messages with a node name.
// A nil base falls back to the package-level logger.
func Scoped(base Logger, node string) Logger {
	if base == nil {
		base = defaultLogger
	}
	// Collapse nesting so re-scoping swaps the tag instead of stacking.
	if s, ok := base.(*scoped); ok {
		base = s.base
	}
	return &scoped{node: node, base: base}
}

func (s *scoped) Debug(format string, v ...any) { s.base.Debug(s.node+": "+format, v...) }
func (s *scoped) Info(format string, v ...any)  { s.base.Info(s.node+": "+format, v...) }
func (s *scoped) Warn(format string, v ...any)  { s.base.Warn(s.node+": "+format, v...) }
func (s *scoped) Error(format string, v ...any) { s.base.Error(s.node+": "+format, v...) }
