// Package metrics exports scene transition counters for Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/younwookim/sceneflow/internal/application/event"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

const namespace = "sceneflow"

// Collector turns bus events into metrics on its own registry
type Collector struct {
	registry *prometheus.Registry

	requested *prometheus.CounterVec
	completed *prometheus.CounterVec
	unloaded  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	active    prometheus.Gauge

	now     func() time.Time
	mu      sync.Mutex
	started map[scene.Name]time.Time
}

// New creates a collector with every metric registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "load_requests_total",
				Help:      "Loads that passed the re-entrancy guards",
			},
			[]string{"scene"},
		),
		completed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "loads_completed_total",
				Help:      "Loads that reached activation",
			},
			[]string{"scene"},
		),
		unloaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unloads_completed_total",
				Help:      "Unloads that finished",
			},
			[]string{"scene"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "load_duration_seconds",
				Help:      "Time from load request to activation",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"scene"},
		),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_scenes",
			Help:      "Active non-transitional scenes after the last transition",
		}),
		now:     time.Now,
		started: make(map[scene.Name]time.Time),
	}
	c.registry.MustRegister(c.requested, c.completed, c.unloaded, c.duration, c.active)
	return c
}

// Registry returns the registry the metrics live on
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Attach subscribes the collector to bus. The returned func detaches it.
func (c *Collector) Attach(bus *event.Bus) func() {
	detach := []func(){
		bus.LoadRequested.Subscribe(c.onLoadRequested),
		bus.LoadCompleted.Subscribe(c.onLoadCompleted),
		bus.UnloadCompleted.Subscribe(c.onUnloadCompleted),
	}
	return func() {
		for _, fn := range detach {
			fn()
		}
	}
}

func (c *Collector) onLoadRequested(e event.LoadEvent) {
	c.requested.WithLabelValues(e.Scene.String()).Inc()

	c.mu.Lock()
	c.started[e.Scene] = c.now()
	c.mu.Unlock()
}

func (c *Collector) onLoadCompleted(e event.LoadEvent) {
	c.completed.WithLabelValues(e.Scene.String()).Inc()
	c.active.Set(float64(len(e.Active)))

	c.mu.Lock()
	start, ok := c.started[e.Scene]
	delete(c.started, e.Scene)
	c.mu.Unlock()

	if ok {
		c.duration.WithLabelValues(e.Scene.String()).Observe(c.now().Sub(start).Seconds())
	}
}

func (c *Collector) onUnloadCompleted(e event.LoadEvent) {
	c.unloaded.WithLabelValues(e.Scene.String()).Inc()
	c.active.Set(float64(len(e.Active)))
}
