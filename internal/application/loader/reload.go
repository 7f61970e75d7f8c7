package loader

import (
	"context"

	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// Reload unloads and loads the scene ref refers to again.
//
// The unload reports progress in [0,0.5] and the load in [0.5,1]. When
// opts.LoadingScene is set it is loaded additively once, stays resident for
// both halves, and is torn down at the end. Reloading a scene that is not
// resident is a logged no-op.
func (e *Engine) Reload(ctx context.Context, ref string, opts LoadOptions) error {
	name := scene.Normalize(ref)
	return e.settle(name, e.reload(ctx, name, opts))
}

// ReloadActive reloads the host's active scene
func (e *Engine) ReloadActive(ctx context.Context, opts LoadOptions) error {
	name := e.host.ActiveScene()
	if name == "" {
		e.logger.Info("no active scene to reload")
		return nil
	}
	return e.Reload(ctx, name.String(), opts)
}

func (e *Engine) reload(ctx context.Context, name scene.Name, opts LoadOptions) error {
	if !e.registry.IsLoaded(name) {
		e.logger.Info("scene is not loaded", "scene", name)
		return nil
	}

	leave := e.enter(e.reloading, name)
	defer leave()

	// A Single wrapper load would evict the scene before its own unload.
	wrapper := scene.Normalize(opts.LoadingScene)
	if err := e.loadWrapper(ctx, wrapper, scene.Additive); err != nil {
		return err
	}

	if err := e.unload(ctx, name, UnloadOptions{OnProgress: scaled(opts.OnProgress, 0, 0.5)}); err != nil {
		return err
	}

	loadOpts := opts
	loadOpts.LoadingScene = ""
	loadOpts.OnProgress = scaled(opts.OnProgress, 0.5, 0.5)
	if wrapper != "" {
		loadOpts.Mode = scene.Additive
	}
	if err := e.load(ctx, name, loadOpts); err != nil {
		return err
	}

	return e.unloadWrapper(ctx, wrapper)
}
