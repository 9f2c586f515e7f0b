package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/smallnest/planexec/registry"
)

// Frames of the streaming protocol.
const (
	// doneFrame terminates a stream that ran (or was cancelled) cleanly.
	doneFrame = "data: [DONE]\n\n"

	// cancelNotice acknowledges a cooperative cancellation request.
	cancelNotice = "[thread_completion_callback] signal to cancel! Changed status to ready"
)

// StreamOptions configures a streaming run.
type StreamOptions struct {
	// ThreadID identifies the registry entry polled for cancellation.
	// Empty disables cancellation checks.
	ThreadID string
}

// Stream runs the loop and emits one group of text frames per completed
// phase: a call banner, one line per set delta field, and a serialized
// event line. If a thread id is given, the thread registry is consulted
// after each phase; a pending cancellation is acknowledged with a notice
// frame, the status swaps back to ready, and the run stops early but
// still terminates the stream with the done sentinel. A fatal error
// closes the stream with no sentinel.
func (a *Agent) Stream(ctx context.Context, query string, opts StreamOptions) <-chan string {
	out := make(chan string)

	go func() {
		defer close(out)

		threadID := opts.ThreadID
		runID := threadID
		if runID == "" {
			runID = uuid.NewString()
		}

		state := initialState(query)
		version := 0

		for ph := phasePlanner; ph != phaseDone; {
			delta, err := a.runPhase(ctx, ph, state)
			if err != nil {
				a.logger.Error("streaming run aborted in %s: %v", ph, err)
				return
			}
			state = state.Apply(delta)

			version++
			a.saveCheckpoint(ctx, runID, ph, state, version)

			if threadID != "" && a.cancelRequested(ctx, threadID) {
				if !emit(ctx, out, cancelNotice) {
					return
				}
				break
			}

			for _, frame := range deltaFrames(ph, delta) {
				if !emit(ctx, out, frame) {
					return
				}
			}

			ph, err = a.nextPhase(ctx, ph, state)
			if err != nil {
				a.logger.Error("streaming run aborted after %s: %v", ph, err)
				return
			}
		}

		emit(ctx, out, doneFrame)
	}()

	return out
}

// emit sends one frame, giving up when the context ends so an
// abandoned consumer never strands the producer on a channel send.
func emit(ctx context.Context, out chan<- string, frame string) bool {
	select {
	case out <- frame:
		return true
	case <-ctx.Done():
		return false
	}
}

// cancelRequested atomically acknowledges a try_cancel mark, resetting
// the thread to ready. Registry errors are treated as "no request".
func (a *Agent) cancelRequested(ctx context.Context, threadID string) bool {
	if a.threads == nil {
		return false
	}
	swapped, err := a.threads.CompareAndSetStatus(ctx, threadID, registry.StatusTryCancel, registry.StatusReady)
	if err != nil {
		a.logger.Warn("cancellation check for thread %s: %v", threadID, err)
		return false
	}
	return swapped
}

// deltaFrames renders one phase completion as protocol frames.
func deltaFrames(ph phase, delta StateDelta) []string {
	frames := []string{fmt.Sprintf("--- CALL %s ---\n", ph)}

	event := make(map[string]any)
	var lines strings.Builder
	for _, f := range delta.fields() {
		lines.WriteString(fmt.Sprintf("%s: %s\n", f.Name, f.Value))
		event[f.Name] = f.Value
	}
	if lines.Len() > 0 {
		frames = append(frames, lines.String())
	}

	payload, err := json.Marshal(map[string]any{ph.String(): event})
	if err != nil {
		payload = []byte(fmt.Sprintf("%q", ph.String()))
	}
	frames = append(frames, fmt.Sprintf("data: %s\n\n", payload))

	return frames
}
