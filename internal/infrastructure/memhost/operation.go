package memhost

import "github.com/younwookim/sceneflow/internal/domain/scene"

type opKind int

const (
	opLoad opKind = iota
	opUnload
)

// operation is the host's handle on one load or unload.
// All fields are guarded by host.mu.
type operation struct {
	host *Host
	kind opKind
	name scene.Name
	mode scene.Mode

	frames   int
	elapsed  int
	progress float64
	allow    bool
	done     bool

	callbacks []func(scene.Operation)
}

func (op *operation) Progress() float64 {
	op.host.mu.Lock()
	defer op.host.mu.Unlock()
	return op.progress
}

func (op *operation) Done() bool {
	op.host.mu.Lock()
	defer op.host.mu.Unlock()
	return op.done
}

func (op *operation) SetAllowActivation(allow bool) {
	op.host.mu.Lock()
	defer op.host.mu.Unlock()
	op.allow = allow
}

func (op *operation) OnComplete(fn func(scene.Operation)) {
	op.host.mu.Lock()
	if !op.done {
		op.callbacks = append(op.callbacks, fn)
		op.host.mu.Unlock()
		return
	}
	op.host.mu.Unlock()
	fn(op)
}
