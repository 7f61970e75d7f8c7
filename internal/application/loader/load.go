package loader

import (
	"context"
	"fmt"

	"github.com/younwookim/sceneflow/internal/application/wait"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// Load loads the scene ref refers to.
//
// Loading a scene that is already resident, or whose transition is already
// in flight, is a logged no-op. Cancelling ctx stops the transition early
// and returns nil; the registry keeps whatever marks were already taken.
func (e *Engine) Load(ctx context.Context, ref string, opts LoadOptions) error {
	name := scene.Normalize(ref)
	return e.settle(name, e.load(ctx, name, opts))
}

// LoadIndex loads the scene at a build index
func (e *Engine) LoadIndex(ctx context.Context, index int, opts LoadOptions) error {
	name, ok := e.host.NameAt(index)
	if !ok {
		return fmt.Errorf("load build index %d: %w", index, scene.ErrUnknownScene)
	}
	return e.Load(ctx, name.String(), opts)
}

func (e *Engine) load(ctx context.Context, name scene.Name, opts LoadOptions) error {
	if e.registry.IsLoaded(name) {
		e.logger.Info("scene already loaded", "scene", name)
		e.registry.MarkLoaded(name)
		return nil
	}
	if !e.registry.TryMarkLoading(name) {
		e.logger.Info("scene already loading", "scene", name, "phase", e.registry.Phase(name))
		return nil
	}

	e.bus.LoadRequested.Publish(e.snapshot(name))

	wrapper := scene.Normalize(opts.LoadingScene)
	if err := e.loadWrapper(ctx, wrapper, opts.Mode); err != nil {
		if ctx.Err() == nil {
			e.registry.UnmarkLoading(name)
		}
		return err
	}

	mode := opts.Mode
	if wrapper != "" {
		mode = scene.Additive
	}

	op, err := e.host.LoadAsync(name, mode, true)
	if err != nil {
		e.registry.UnmarkLoading(name)
		if uerr := e.unloadWrapper(ctx, wrapper); uerr != nil {
			e.logger.Warn("loading scene left resident", "scene", wrapper, "error", uerr)
		}
		return fmt.Errorf("load scene %s: %w", name, err)
	}
	if opts.OnFinish != nil {
		op.OnComplete(opts.OnFinish)
	}
	e.logger.Debug("scene load started", "scene", name, "mode", mode)

	for p := op.Progress(); p < scene.ActivationThreshold; p = op.Progress() {
		report(opts.OnProgress, p)
		if err := e.tick(ctx); err != nil {
			return err
		}
	}
	report(opts.OnProgress, op.Progress())

	if opts.WaitUntil != nil && !wait.Until(ctx, e.ticker, opts.WaitUntil) {
		return ctx.Err()
	}

	leave := e.enter(e.activating, name)
	op.SetAllowActivation(true)
	done := wait.Until(ctx, e.ticker, op.Done)
	leave()
	if !done {
		return ctx.Err()
	}

	if e.host.IsValid(name) {
		e.host.SetActive(name)
	}

	e.registry.UnmarkLoading(name)
	e.registry.MarkLoaded(name)
	report(opts.OnProgress, op.Progress())
	e.bus.LoadCompleted.Publish(e.snapshot(name))
	e.logger.Info("scene loaded", "scene", name, "mode", mode)

	if err := e.unloadWrapper(ctx, wrapper); err != nil {
		return err
	}

	if mode == scene.Additive && e.finalize != nil {
		e.finalize(ctx)
	}
	return nil
}

// loadWrapper makes the loading scene resident unless it already is or is
// being loaded by someone else.
func (e *Engine) loadWrapper(ctx context.Context, wrapper scene.Name, mode scene.Mode) error {
	if wrapper == "" || e.registry.IsLoaded(wrapper) {
		return nil
	}
	if !e.registry.TryMarkLoading(wrapper) {
		return nil
	}

	op, err := e.host.LoadAsync(wrapper, mode, false)
	if err != nil {
		e.registry.UnmarkLoading(wrapper)
		return fmt.Errorf("load loading scene %s: %w", wrapper, err)
	}
	if !wait.Until(ctx, e.ticker, op.Done) {
		return ctx.Err()
	}

	e.registry.UnmarkLoading(wrapper)
	e.registry.MarkLoaded(wrapper)
	return nil
}

// unloadWrapper tears the loading scene down and waits for it to go
func (e *Engine) unloadWrapper(ctx context.Context, wrapper scene.Name) error {
	if wrapper == "" || !e.registry.IsLoaded(wrapper) {
		return nil
	}
	if !e.registry.TryMarkUnloading(wrapper) {
		return nil
	}

	op, err := e.host.UnloadAsync(wrapper)
	if err != nil {
		e.registry.UnmarkUnloading(wrapper)
		return fmt.Errorf("unload loading scene %s: %w", wrapper, err)
	}
	e.registry.UnmarkLoaded(wrapper)
	if !wait.Until(ctx, e.ticker, op.Done) {
		return ctx.Err()
	}

	e.registry.UnmarkUnloading(wrapper)
	return nil
}
