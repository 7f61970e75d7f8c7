// Package memhost is an in-process scene host: a build catalog, a content
// loader whose operations advance one step per frame, and the list of
// resident scenes.
//
// It is the host the windowed game and the headless runner drive, and the
// reference implementation of scene.Host used by the loader tests.
package memhost

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	appscene "github.com/younwookim/sceneflow/internal/application/scene"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// ErrNotResident is returned when unloading a scene that is not loaded
var ErrNotResident = errors.New("scene not resident")

// Entry describes one scene of the build catalog
type Entry struct {
	Name         scene.Name
	LoadFrames   int // Frames to reach the activation threshold
	UnloadFrames int // Frames before the scene is torn down
	Content      func() appscene.Scene
}

type resident struct {
	name    scene.Name
	content appscene.Scene
}

// Host implements scene.Host in memory
type Host struct {
	mu         sync.Mutex
	catalog    []Entry
	index      map[scene.Name]int
	persistent []scene.Name

	resident []resident
	active   scene.Name
	pending  []*operation

	hooks    map[int]scene.Hooks
	nextHook int

	loadRequests   map[scene.Name]int
	unloadRequests map[scene.Name]int
	finalized      int
}

// Option configures a Host
type Option func(*Host)

// WithPersistent keeps names resident across Single loads
func WithPersistent(names ...scene.Name) Option {
	return func(h *Host) {
		h.persistent = append(h.persistent, names...)
	}
}

// New creates a host for the given build catalog
func New(catalog []Entry, opts ...Option) *Host {
	h := &Host{
		catalog:        catalog,
		index:          make(map[scene.Name]int, len(catalog)),
		hooks:          make(map[int]scene.Hooks),
		loadRequests:   make(map[scene.Name]int),
		unloadRequests: make(map[scene.Name]int),
	}
	for i, e := range catalog {
		h.index[e.Name] = i
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// LoadAsync implements scene.Host
func (h *Host) LoadAsync(name scene.Name, mode scene.Mode, deferActivation bool) (scene.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	i, ok := h.index[name]
	if !ok {
		return nil, fmt.Errorf("load %s: %w", name, scene.ErrUnknownScene)
	}

	op := &operation{
		host:   h,
		kind:   opLoad,
		name:   name,
		mode:   mode,
		frames: h.catalog[i].LoadFrames,
		allow:  !deferActivation,
	}
	h.pending = append(h.pending, op)
	h.loadRequests[name]++
	return op, nil
}

// UnloadAsync implements scene.Host
func (h *Host) UnloadAsync(name scene.Name) (scene.Operation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.residentIndex(name) < 0 {
		return nil, fmt.Errorf("unload %s: %w", name, ErrNotResident)
	}

	frames := 0
	if i, ok := h.index[name]; ok {
		frames = h.catalog[i].UnloadFrames
	}
	op := &operation{
		host:   h,
		kind:   opUnload,
		name:   name,
		frames: frames,
		allow:  true,
	}
	h.pending = append(h.pending, op)
	h.unloadRequests[name]++
	return op, nil
}

// IsValid implements scene.Host
func (h *Host) IsValid(name scene.Name) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.residentIndex(name) >= 0
}

// NameAt implements scene.Host
func (h *Host) NameAt(index int) (scene.Name, bool) {
	if index < 0 || index >= len(h.catalog) {
		return "", false
	}
	return h.catalog[index].Name, true
}

// ActiveScene implements scene.Host
func (h *Host) ActiveScene() scene.Name {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// SetActive implements scene.Host
func (h *Host) SetActive(name scene.Name) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.residentIndex(name) < 0 {
		return false
	}
	h.active = name
	return true
}

// Resident implements scene.Host
func (h *Host) Resident() []scene.Name {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]scene.Name, len(h.resident))
	for i, r := range h.resident {
		names[i] = r.name
	}
	return names
}

// Scenes returns the content of every resident scene in load order
func (h *Host) Scenes() []appscene.Scene {
	h.mu.Lock()
	defer h.mu.Unlock()

	scenes := make([]appscene.Scene, 0, len(h.resident))
	for _, r := range h.resident {
		if r.content != nil {
			scenes = append(scenes, r.content)
		}
	}
	return scenes
}

// Subscribe implements scene.Host
func (h *Host) Subscribe(hooks scene.Hooks) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextHook++
	id := h.nextHook
	h.hooks[id] = hooks

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.hooks, id)
	}
}

// FinalizeAdditive implements scene.AdditiveFinalizer
func (h *Host) FinalizeAdditive(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	h.mu.Lock()
	h.finalized++
	h.mu.Unlock()
}

// Finalized returns how many post-additive passes ran
func (h *Host) Finalized() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finalized
}

// LoadRequests returns how many load operations were issued for name
func (h *Host) LoadRequests(name scene.Name) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadRequests[name]
}

// UnloadRequests returns how many unload operations were issued for name
func (h *Host) UnloadRequests(name scene.Name) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unloadRequests[name]
}

// Pending returns the number of operations still in flight
func (h *Host) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Step advances every pending operation by one frame
func (h *Host) Step() {
	var fx effects

	h.mu.Lock()
	remaining := h.pending[:0]
	for _, op := range h.pending {
		if !h.advance(op, &fx) {
			remaining = append(remaining, op)
		}
	}
	clear(h.pending[len(remaining):])
	h.pending = remaining
	h.mu.Unlock()

	fx.run()
}

// LoadImmediate makes name resident right away, bypassing operations.
// Subscribers are told, as for any change made outside the loader.
func (h *Host) LoadImmediate(name scene.Name, mode scene.Mode) error {
	var fx effects

	h.mu.Lock()
	if _, ok := h.index[name]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("load %s: %w", name, scene.ErrUnknownScene)
	}
	h.activate(name, mode, &fx)
	fx.notifyLoaded(h.hookList(), name, mode)
	h.mu.Unlock()

	fx.run()
	return nil
}

// UnloadImmediate removes name right away, bypassing operations
func (h *Host) UnloadImmediate(name scene.Name) error {
	var fx effects

	h.mu.Lock()
	if !h.remove(name, &fx) {
		h.mu.Unlock()
		return fmt.Errorf("unload %s: %w", name, ErrNotResident)
	}
	fx.notifyUnloaded(h.hookList(), name)
	h.mu.Unlock()

	fx.run()
	return nil
}

// advance steps op; it reports whether op finished. Called with h.mu held.
func (h *Host) advance(op *operation, fx *effects) bool {
	if op.elapsed < op.frames {
		op.elapsed++
		op.progress = scene.ActivationThreshold * float64(op.elapsed) / float64(op.frames)
		if op.elapsed == op.frames {
			op.progress = scene.ActivationThreshold
		}
		return false
	}
	if op.progress < scene.ActivationThreshold {
		op.progress = scene.ActivationThreshold
		return false
	}
	if !op.allow {
		return false
	}

	switch op.kind {
	case opLoad:
		h.activate(op.name, op.mode, fx)
	case opUnload:
		h.remove(op.name, fx)
	}

	op.progress = 1
	op.done = true
	callbacks := op.callbacks
	op.callbacks = nil
	for _, cb := range callbacks {
		fx.add(func() { cb(op) })
	}
	return true
}

// activate makes name resident. Called with h.mu held.
func (h *Host) activate(name scene.Name, mode scene.Mode, fx *effects) {
	if mode == scene.Single {
		var evicted []scene.Name
		for _, r := range h.resident {
			if r.name != name && !slices.Contains(h.persistent, r.name) {
				evicted = append(evicted, r.name)
			}
		}
		for _, n := range evicted {
			h.remove(n, fx)
			fx.notifyUnloaded(h.hookList(), n)
		}
	}

	if h.residentIndex(name) < 0 {
		r := resident{name: name}
		if factory := h.catalog[h.index[name]].Content; factory != nil {
			r.content = factory()
		}
		h.resident = append(h.resident, r)
		if r.content != nil {
			fx.add(r.content.OnEnter)
		}
	}

	if mode == scene.Single || h.active == "" {
		h.active = name
	}
}

// remove drops name from the resident list. Called with h.mu held.
func (h *Host) remove(name scene.Name, fx *effects) bool {
	i := h.residentIndex(name)
	if i < 0 {
		return false
	}
	r := h.resident[i]
	h.resident = slices.Delete(h.resident, i, i+1)
	if r.content != nil {
		fx.add(r.content.OnExit)
	}
	if h.active == name {
		h.active = ""
		if len(h.resident) > 0 {
			h.active = h.resident[0].name
		}
	}
	return true
}

func (h *Host) residentIndex(name scene.Name) int {
	for i, r := range h.resident {
		if r.name == name {
			return i
		}
	}
	return -1
}

func (h *Host) hookList() []scene.Hooks {
	ids := make([]int, 0, len(h.hooks))
	for id := range h.hooks {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	hooks := make([]scene.Hooks, len(ids))
	for i, id := range ids {
		hooks[i] = h.hooks[id]
	}
	return hooks
}

// effects collects the calls a state change triggers so they can run after
// the host lock is released.
type effects struct {
	calls []func()
}

func (fx *effects) add(fn func()) {
	fx.calls = append(fx.calls, fn)
}

func (fx *effects) notifyLoaded(hooks []scene.Hooks, name scene.Name, mode scene.Mode) {
	for _, hk := range hooks {
		if hk.OnLoaded != nil {
			fn := hk.OnLoaded
			fx.add(func() { fn(name, mode) })
		}
	}
}

func (fx *effects) notifyUnloaded(hooks []scene.Hooks, name scene.Name) {
	for _, hk := range hooks {
		if hk.OnUnloaded != nil {
			fn := hk.OnUnloaded
			fx.add(func() { fn(name) })
		}
	}
}

func (fx *effects) run() {
	for _, fn := range fx.calls {
		fn()
	}
}
