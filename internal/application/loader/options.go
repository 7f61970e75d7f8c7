package loader

import "github.com/younwookim/sceneflow/internal/domain/scene"

// LoadOptions configures Load and Reload.
// Every field is optional; absent callbacks are skipped.
type LoadOptions struct {
	// LoadingScene is shown while the transition runs. Setting it forces
	// the target scene to load additively on top of it.
	LoadingScene string
	// WaitUntil gates activation: the loaded scene stays deferred until it
	// returns true. It is polled once per frame.
	WaitUntil func() bool
	Mode      scene.Mode
	// OnProgress receives the transition progress in [0,1].
	OnProgress func(progress float64)
	// OnFinish runs once when the host operation completes.
	OnFinish func(op scene.Operation)
}

// UnloadOptions configures Unload
type UnloadOptions struct {
	OnProgress func(progress float64)
	OnFinish   func(op scene.Operation)
}

func report(fn func(float64), progress float64) {
	if fn != nil {
		fn(progress)
	}
}

// scaled maps progress in [0,1] onto [offset, offset+span]
func scaled(fn func(float64), offset, span float64) func(float64) {
	if fn == nil {
		return nil
	}
	return func(progress float64) {
		fn(offset + progress*span)
	}
}
