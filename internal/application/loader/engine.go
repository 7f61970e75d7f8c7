// Package loader is the scene transition engine.
//
// It loads, unloads and reloads scenes on a scene.Host, deduplicating
// requests through the shared registry, optionally wrapping a transition in
// a loading scene, and reporting staged progress. Every wait is cooperative:
// the engine polls host operations once per frame of its frame.Ticker.
//
// Engine calls block until the transition finishes; run them from their own
// goroutine (see wait.Launcher) when the caller is the game loop.
package loader

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/younwookim/sceneflow/internal/application/event"
	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/application/registry"
	"github.com/younwookim/sceneflow/internal/application/state"
	"github.com/younwookim/sceneflow/internal/domain/scene"
	"github.com/younwookim/sceneflow/internal/logging"
)

// Engine coordinates scene transitions
type Engine struct {
	host     scene.Host
	registry *registry.Registry
	ticker   frame.Ticker
	bus      *event.Bus
	logger   *slog.Logger
	finalize func(ctx context.Context)

	mu         sync.Mutex
	activating map[scene.Name]int
	reloading  map[scene.Name]int
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithBus publishes transitions on bus instead of a private one
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithFinalizeHook replaces the post-additive finalize step.
// By default the host's FinalizeAdditive runs, if it has one.
func WithFinalizeHook(fn func(ctx context.Context)) Option {
	return func(e *Engine) {
		e.finalize = fn
	}
}

// New creates an engine driving host, with reg as the shared bookkeeping
// and t as the frame source for every wait.
func New(host scene.Host, reg *registry.Registry, t frame.Ticker, opts ...Option) *Engine {
	e := &Engine{
		host:       host,
		registry:   reg,
		ticker:     t,
		logger:     logging.NewNop(),
		activating: make(map[scene.Name]int),
		reloading:  make(map[scene.Name]int),
	}
	if f, ok := host.(scene.AdditiveFinalizer); ok {
		e.finalize = f.FinalizeAdditive
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = event.NewBus()
	}
	return e
}

// Bus returns the bus transitions are published on
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Registry returns the engine's registry
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Phase reports where ref is in its transition lifecycle
func (e *Engine) Phase(ref string) state.Phase {
	name := scene.Normalize(ref)

	e.mu.Lock()
	reloading := e.reloading[name] > 0
	activating := e.activating[name] > 0
	e.mu.Unlock()

	switch {
	case reloading:
		return state.PhaseReloading
	case activating:
		return state.PhaseActivating
	default:
		return e.registry.Phase(name)
	}
}

func (e *Engine) enter(m map[scene.Name]int, name scene.Name) func() {
	e.mu.Lock()
	m[name]++
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		if m[name]--; m[name] <= 0 {
			delete(m, name)
		}
		e.mu.Unlock()
	}
}

func (e *Engine) snapshot(name scene.Name) event.LoadEvent {
	return event.LoadEvent{
		Active: e.registry.ActiveScenesExcludingTransitional(),
		Scene:  name,
	}
}

// settle turns a cancelled transition into a quiet early return. Marks
// already committed to the registry stay as they are.
func (e *Engine) settle(name scene.Name, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Debug("scene transition cancelled", "scene", name, "phase", e.registry.Phase(name))
		return nil
	}
	return err
}

// tick waits one frame
func (e *Engine) tick(ctx context.Context) error {
	return e.ticker.Next(ctx)
}
