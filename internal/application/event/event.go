// Package event is the scene loader's publish/subscribe surface.
//
// Handlers run synchronously on the publishing goroutine, in registration
// order. Publish works on a snapshot of the subscribers, so a handler may
// unsubscribe itself (or others) without affecting the firing in progress.
package event

import (
	"sync"

	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// LoadEvent describes a transition of one scene.
// Active is the snapshot of active, non-transitional scenes at firing time.
type LoadEvent struct {
	Active []scene.Name
	Scene  scene.Name
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Topic is a list of subscribers for one kind of event
type Topic[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
}

// Subscribe registers fn and returns the func that removes it.
// Calling the returned func more than once is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, s := range t.subs {
			if s.id == id {
				t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers v to every current subscriber
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := t.subs
	t.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Bus groups the observable scene transitions
type Bus struct {
	// LoadRequested fires when a load passes the re-entrancy guards.
	LoadRequested Topic[LoadEvent]
	// LoadCompleted fires once the scene is activated and registered.
	LoadCompleted Topic[LoadEvent]
	// UnloadCompleted fires once an unload finished and was unregistered.
	UnloadCompleted Topic[LoadEvent]
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{}
}
