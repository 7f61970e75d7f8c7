// Package registry tracks which scenes are loading, unloading and loaded.
//
// A Registry is shared by every transition in the process. Its sets only
// change through idempotent add/remove, and it reconciles itself with the
// host whenever the host reports a scene change made outside the loader.
package registry

import (
	"log/slog"
	"sync"

	"github.com/younwookim/sceneflow/internal/application/state"
	"github.com/younwookim/sceneflow/internal/domain/nameset"
	"github.com/younwookim/sceneflow/internal/domain/scene"
	"github.com/younwookim/sceneflow/internal/infrastructure/config"
	"github.com/younwookim/sceneflow/internal/logging"
)

// Registry is the process-wide transition bookkeeping
type Registry struct {
	host   scene.Host
	logger *slog.Logger

	mu        sync.Mutex
	loading   *nameset.Set
	unloading *nameset.Set
	loaded    *nameset.Set
	reserved  []scene.Name
	assets    []string

	detach func()
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for drift warnings
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// New builds a registry for host from the persistent record.
//
// The record's scene lists are discarded (the registry always starts
// cleared); its reserved loading scenes are kept. The registry subscribes
// to the host's external-change hooks until Close.
func New(host scene.Host, rec *config.Record, opts ...Option) *Registry {
	r := &Registry{
		host:      host,
		logger:    logging.NewNop(),
		loading:   nameset.New(),
		unloading: nameset.New(),
		loaded:    nameset.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if rec != nil {
		r.assets = append([]string(nil), rec.LoadingScenes...)
		r.reserved = normalizeAll(rec.LoadingScenes)
	}

	r.Clear()
	r.detach = host.Subscribe(scene.Hooks{
		OnLoaded: func(name scene.Name, _ scene.Mode) {
			r.ReconcileOnExternalLoad(name)
		},
		OnUnloaded: r.ReconcileOnExternalUnload,
	})

	return r
}

// Close stops reconciling with the host
func (r *Registry) Close() {
	r.mu.Lock()
	detach := r.detach
	r.detach = nil
	r.mu.Unlock()

	if detach != nil {
		detach()
	}
}

// Clear empties the loading, unloading and loaded sets
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loading.Clear()
	r.unloading.Clear()
	r.loaded.Clear()
}

func (r *Registry) edit(set *nameset.Set, fn func(*nameset.Set)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(set)
}

func (r *Registry) MarkLoading(name scene.Name) {
	r.edit(r.loading, func(s *nameset.Set) { s.AddUnique(name) })
}

func (r *Registry) UnmarkLoading(name scene.Name) {
	r.edit(r.loading, func(s *nameset.Set) { s.RemoveUnique(name) })
}

func (r *Registry) MarkUnloading(name scene.Name) {
	r.edit(r.unloading, func(s *nameset.Set) { s.AddUnique(name) })
}

func (r *Registry) UnmarkUnloading(name scene.Name) {
	r.edit(r.unloading, func(s *nameset.Set) { s.RemoveUnique(name) })
}

func (r *Registry) MarkLoaded(name scene.Name) {
	r.edit(r.loaded, func(s *nameset.Set) { s.AddUnique(name) })
}

func (r *Registry) UnmarkLoaded(name scene.Name) {
	r.edit(r.loaded, func(s *nameset.Set) { s.RemoveUnique(name) })
}

// TryMarkLoading marks name as loading unless a load or unload of it is
// already in flight. It reports whether the mark was taken.
func (r *Registry) TryMarkLoading(name scene.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loading.Contains(name) || r.unloading.Contains(name) {
		return false
	}
	r.loading.AddUnique(name)
	return true
}

// TryMarkUnloading is TryMarkLoading for unloads
func (r *Registry) TryMarkUnloading(name scene.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.unloading.Contains(name) || r.loading.Contains(name) {
		return false
	}
	r.unloading.AddUnique(name)
	return true
}

// IsLoaded asks the host whether name is resident right now.
// The loaded set can lag behind the host, so it is not consulted.
func (r *Registry) IsLoaded(name scene.Name) bool {
	return r.host.IsValid(name)
}

func (r *Registry) IsLoading(name scene.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading.Contains(name)
}

func (r *Registry) IsUnloading(name scene.Name) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloading.Contains(name)
}

// Phase derives the bookkeeping phase of name.
// Activating and Reloading are only known to the engine driving the scene.
func (r *Registry) Phase(name scene.Name) state.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.unloading.Contains(name):
		return state.PhaseUnloading
	case r.loading.Contains(name):
		return state.PhaseLoading
	case r.loaded.Contains(name):
		return state.PhaseLoaded
	default:
		return state.PhaseIdle
	}
}

// Loading returns the names being loaded, in request order
func (r *Registry) Loading() []scene.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading.Names()
}

// Unloading returns the names being unloaded, in request order
func (r *Registry) Unloading() []scene.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloading.Names()
}

// Loaded returns the names registered as loaded
func (r *Registry) Loaded() []scene.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded.Names()
}

// ReservedScenes returns the normalized loading-scene names
func (r *Registry) ReservedScenes() []scene.Name {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scene.Name(nil), r.reserved...)
}

// SetReservedScenes replaces the loading-scene asset list
func (r *Registry) SetReservedScenes(paths []string) {
	reserved := normalizeAll(paths)

	r.mu.Lock()
	r.assets = append([]string(nil), paths...)
	r.reserved = reserved
	r.mu.Unlock()
}

// ActiveScenesExcludingTransitional lists the loaded scenes that are not
// reserved loading scenes. When nothing qualifies it falls back to the
// host's active scene.
func (r *Registry) ActiveScenesExcludingTransitional() []scene.Name {
	r.mu.Lock()
	var active []scene.Name
	for _, name := range r.loaded.Names() {
		if !containsName(r.reserved, name) {
			active = append(active, name)
		}
	}
	r.mu.Unlock()

	if len(active) == 0 {
		if name := r.host.ActiveScene(); name != "" {
			active = append(active, name)
		}
	}
	return active
}

// ReconcileOnExternalLoad handles a host report that name was loaded
// without the loader.
func (r *Registry) ReconcileOnExternalLoad(name scene.Name) {
	r.reconcile(name, "loaded")
}

// ReconcileOnExternalUnload handles a host report that name was unloaded
// without the loader.
func (r *Registry) ReconcileOnExternalUnload(name scene.Name) {
	r.reconcile(name, "unloaded")
}

// reconcile drops any pending transition of name, since the host already
// settled it, then rebuilds the loaded set from the host's resident list.
func (r *Registry) reconcile(name scene.Name, verb string) {
	resident := r.host.Resident()

	r.mu.Lock()
	drifted := r.loading.Contains(name) || r.unloading.Contains(name)
	r.loading.RemoveUnique(name)
	r.unloading.RemoveUnique(name)
	r.loaded.Clear()
	for _, n := range resident {
		r.loaded.AddUnique(n)
	}
	r.mu.Unlock()

	if drifted {
		r.logger.Warn("scene "+verb+" outside the loader flow, registry updated", "scene", name)
	}
}

// Snapshot returns the registry as a persistent record
func (r *Registry) Snapshot() *config.Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	return &config.Record{
		LoadingScenes:   append([]string(nil), r.assets...),
		ScenesLoading:   toStrings(r.loading.Names()),
		ScenesUnloading: toStrings(r.unloading.Names()),
		ScenesLoaded:    toStrings(r.loaded.Names()),
	}
}

func normalizeAll(paths []string) []scene.Name {
	names := make([]scene.Name, 0, len(paths))
	for _, p := range paths {
		if n := scene.Normalize(p); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func containsName(names []scene.Name, name scene.Name) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

func toStrings(names []scene.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}
