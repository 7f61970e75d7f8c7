// Package wait implements the cooperative waits used by the scene loader.
//
// Every wait suspends on a frame.Ticker, so a predicate is evaluated at most
// once per frame. Cancellation is never reported as an error: a cancelled
// wait simply returns. A nil predicate or action panics; that is a caller
// bug and is not recovered.
package wait

import (
	"context"
	"time"

	"github.com/younwookim/sceneflow/internal/application/frame"
)

// Until suspends until pred returns true or ctx is done.
// It returns true when pred was satisfied.
func Until(ctx context.Context, t frame.Ticker, pred func() bool) bool {
	for !pred() {
		if t.Next(ctx) != nil {
			return false
		}
	}
	return true
}

// While suspends while pred holds or until ctx is done.
// It returns true when pred stopped holding.
func While(ctx context.Context, t frame.Ticker, pred func() bool) bool {
	for pred() {
		if t.Next(ctx) != nil {
			return false
		}
	}
	return true
}

// DelayThenRun waits d of wall time, or less if ctx ends, then runs action.
// The action runs even when the wait was cancelled.
func DelayThenRun(ctx context.Context, action func(), d time.Duration) {
	timer := time.NewTimer(d)
	select {
	case <-timer.C:
	case <-ctx.Done():
		timer.Stop()
	}
	action()
}

// DelayThenRunFrames waits frames ticks, or fewer if ctx ends, then runs
// action. Like DelayThenRun, cancellation does not skip the action.
func DelayThenRunFrames(ctx context.Context, t frame.Ticker, action func(), frames int) {
	for i := 0; i < frames; i++ {
		if t.Next(ctx) != nil {
			break
		}
	}
	action()
}
