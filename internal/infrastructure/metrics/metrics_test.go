package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/sceneflow/internal/application/event"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

func TestCollector_CountsBusEvents(t *testing.T) {
	c := New()
	bus := event.NewBus()
	detach := c.Attach(bus)

	bus.LoadRequested.Publish(event.LoadEvent{Scene: "Level1"})
	bus.LoadCompleted.Publish(event.LoadEvent{Scene: "Level1", Active: []scene.Name{"Menu", "Level1"}})
	bus.LoadRequested.Publish(event.LoadEvent{Scene: "Level2"})
	bus.UnloadCompleted.Publish(event.LoadEvent{Scene: "Level1", Active: []scene.Name{"Menu"}})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requested.WithLabelValues("Level1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requested.WithLabelValues("Level2")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completed.WithLabelValues("Level1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.unloaded.WithLabelValues("Level1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.active))

	detach()
	bus.LoadRequested.Publish(event.LoadEvent{Scene: "Level1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requested.WithLabelValues("Level1")), "detached collector ignores events")
}

func TestCollector_LoadDuration(t *testing.T) {
	c := New()
	clock := time.Unix(0, 0)
	c.now = func() time.Time { return clock }
	bus := event.NewBus()
	defer c.Attach(bus)()

	bus.LoadRequested.Publish(event.LoadEvent{Scene: "Level1"})
	clock = clock.Add(300 * time.Millisecond)
	bus.LoadCompleted.Publish(event.LoadEvent{Scene: "Level1"})

	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
	assert.Empty(t, c.started)

	// Completion without a matching request is counted but not timed
	bus.LoadCompleted.Publish(event.LoadEvent{Scene: "Level2"})
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.completed.WithLabelValues("Level2")))
}

func TestCollector_Handler(t *testing.T) {
	c := New()
	bus := event.NewBus()
	defer c.Attach(bus)()
	bus.LoadRequested.Publish(event.LoadEvent{Scene: "Menu"})

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `sceneflow_load_requests_total{scene="Menu"} 1`))
}
