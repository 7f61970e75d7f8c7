package scene

import "context"

// Operation is a handle on an in-flight load or unload issued by a Host.
//
// Progress is non-decreasing in [0,1]. A load started with activation
// deferred stops at ActivationThreshold until SetAllowActivation(true).
type Operation interface {
	Progress() float64
	Done() bool
	SetAllowActivation(allow bool)

	// OnComplete registers fn to run once when the operation finishes.
	// Registering after completion runs fn immediately.
	OnComplete(fn func(Operation))
}

// Hooks receives scene changes the host made outside of the operations it
// handed out (direct loads, evictions caused by a Single load, ...).
type Hooks struct {
	OnLoaded   func(name Name, mode Mode)
	OnUnloaded func(name Name)
}

// Host is the application's live scene registry and content loader.
type Host interface {
	// LoadAsync starts loading name. With deferActivation the operation
	// halts at ActivationThreshold until activation is allowed.
	LoadAsync(name Name, mode Mode, deferActivation bool) (Operation, error)
	UnloadAsync(name Name) (Operation, error)

	// IsValid reports whether name is currently resident.
	IsValid(name Name) bool
	// NameAt resolves a build index to a scene name.
	NameAt(index int) (Name, bool)
	ActiveScene() Name
	SetActive(name Name) bool
	// Resident lists the resident scenes in load order.
	Resident() []Name

	Subscribe(h Hooks) (unsubscribe func())
}

// AdditiveFinalizer is implemented by hosts that need a secondary indexing
// pass (light probes, lookup structures) after additive composition.
type AdditiveFinalizer interface {
	FinalizeAdditive(ctx context.Context)
}
