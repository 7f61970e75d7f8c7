package loader

import (
	"context"
	"fmt"

	"github.com/younwookim/sceneflow/internal/application/wait"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// Unload unloads the scene ref refers to.
//
// Unloading a scene that is not resident, or already unloading, is a logged
// no-op. Progress below the activation threshold is reported scaled by it.
func (e *Engine) Unload(ctx context.Context, ref string, opts UnloadOptions) error {
	name := scene.Normalize(ref)
	return e.settle(name, e.unload(ctx, name, opts))
}

// UnloadIndex unloads the scene at a build index
func (e *Engine) UnloadIndex(ctx context.Context, index int, opts UnloadOptions) error {
	name, ok := e.host.NameAt(index)
	if !ok {
		return fmt.Errorf("unload build index %d: %w", index, scene.ErrUnknownScene)
	}
	return e.Unload(ctx, name.String(), opts)
}

func (e *Engine) unload(ctx context.Context, name scene.Name, opts UnloadOptions) error {
	if !e.registry.IsLoaded(name) {
		e.logger.Info("scene already unloaded", "scene", name)
		e.registry.UnmarkUnloading(name)
		return nil
	}
	if !e.registry.TryMarkUnloading(name) {
		e.logger.Info("scene already unloading", "scene", name, "phase", e.registry.Phase(name))
		return nil
	}

	op, err := e.host.UnloadAsync(name)
	if err != nil {
		e.registry.UnmarkUnloading(name)
		return fmt.Errorf("unload scene %s: %w", name, err)
	}
	if opts.OnFinish != nil {
		op.OnComplete(opts.OnFinish)
	}

	for p := op.Progress(); p < scene.ActivationThreshold; p = op.Progress() {
		report(opts.OnProgress, p*scene.ActivationThreshold)
		if err := e.tick(ctx); err != nil {
			return err
		}
	}
	report(opts.OnProgress, op.Progress())

	if !wait.Until(ctx, e.ticker, op.Done) {
		return ctx.Err()
	}
	report(opts.OnProgress, op.Progress())

	e.registry.UnmarkUnloading(name)
	e.registry.UnmarkLoaded(name)
	e.bus.UnloadCompleted.Publish(e.snapshot(name))
	e.logger.Info("scene unloaded", "scene", name)
	return nil
}
