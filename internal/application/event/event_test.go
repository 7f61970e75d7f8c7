package event

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/younwookim/sceneflow/internal/domain/scene"
)

func TestTopic_PublishInRegistrationOrder(t *testing.T) {
	var topic Topic[LoadEvent]
	var order []string

	topic.Subscribe(func(LoadEvent) { order = append(order, "first") })
	topic.Subscribe(func(LoadEvent) { order = append(order, "second") })
	topic.Subscribe(func(LoadEvent) { order = append(order, "third") })

	topic.Publish(LoadEvent{Scene: "Level1"})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestTopic_Unsubscribe(t *testing.T) {
	var topic Topic[int]
	got := 0

	unsubscribe := topic.Subscribe(func(v int) { got += v })
	topic.Publish(1)
	unsubscribe()
	unsubscribe()
	topic.Publish(10)

	assert.Equal(t, 1, got)
	assert.Equal(t, 0, topic.Len())
}

func TestTopic_UnsubscribeDuringPublish(t *testing.T) {
	var topic Topic[int]
	var calls []string

	var unsubscribeSecond func()
	topic.Subscribe(func(int) {
		calls = append(calls, "first")
		unsubscribeSecond()
	})
	unsubscribeSecond = topic.Subscribe(func(int) { calls = append(calls, "second") })
	topic.Subscribe(func(int) { calls = append(calls, "third") })

	topic.Publish(0)
	assert.Equal(t, []string{"first", "second", "third"}, calls)

	calls = nil
	topic.Publish(0)
	assert.Equal(t, []string{"first", "third"}, calls)
}

func TestBus_TopicsAreIndependent(t *testing.T) {
	bus := NewBus()
	var requested, completed []scene.Name

	bus.LoadRequested.Subscribe(func(e LoadEvent) { requested = append(requested, e.Scene) })
	bus.LoadCompleted.Subscribe(func(e LoadEvent) { completed = append(completed, e.Scene) })

	bus.LoadRequested.Publish(LoadEvent{Scene: "Level1", Active: []scene.Name{"Menu"}})

	assert.Equal(t, []scene.Name{"Level1"}, requested)
	assert.Empty(t, completed)
	assert.Equal(t, 0, bus.UnloadCompleted.Len())
}
