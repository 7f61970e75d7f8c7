package main

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/younwookim/sceneflow/internal/application/event"
	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/application/journal"
	"github.com/younwookim/sceneflow/internal/application/loader"
	"github.com/younwookim/sceneflow/internal/application/registry"
	appscene "github.com/younwookim/sceneflow/internal/application/scene"
	"github.com/younwookim/sceneflow/internal/domain/scene"
	"github.com/younwookim/sceneflow/internal/infrastructure/config"
	"github.com/younwookim/sceneflow/internal/infrastructure/memhost"
	"github.com/younwookim/sceneflow/internal/infrastructure/metrics"
)

// meter holds the latest transition progress for the loading screen
type meter struct {
	bits atomic.Uint64
}

func (m *meter) Set(p float64) {
	m.bits.Store(math.Float64bits(p))
}

func (m *meter) Get() float64 {
	return math.Float64frombits(m.bits.Load())
}

// newHost builds the scene catalog from the config. Reserved loading scenes
// get a progress bar, everything else a plain backdrop.
func newHost(cfg *config.GameConfig, progress *meter) (*memhost.Host, error) {
	reserved := make(map[scene.Name]bool, len(cfg.Record.LoadingScenes))
	for _, path := range cfg.Record.LoadingScenes {
		reserved[scene.Normalize(path)] = true
	}

	entries := make([]memhost.Entry, 0, len(cfg.Config.Scenes))
	for _, sc := range cfg.Config.Scenes {
		c, err := sc.RGBA()
		if err != nil {
			return nil, err
		}
		name := scene.Normalize(sc.Path)
		content := func() appscene.Scene { return appscene.NewBackdrop(name.String(), c) }
		if reserved[name] {
			content = func() appscene.Scene { return appscene.NewLoadingScreen(name.String(), c, progress.Get) }
		}
		entries = append(entries, memhost.Entry{
			Name:         name,
			LoadFrames:   sc.LoadFrames,
			UnloadFrames: sc.UnloadFrames,
			Content:      content,
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no scenes configured")
	}
	return memhost.New(entries), nil
}

// session wires one loader stack: host, registry, engine, metrics and journal
type session struct {
	cfg      *config.GameConfig
	host     *memhost.Host
	registry *registry.Registry
	engine   *loader.Engine
	metrics  *metrics.Collector
	journal  *journal.Recorder
	progress *meter
	logger   *slog.Logger
	detach   []func()
}

// newSession builds the loader stack on host. frameNo stamps journal entries.
func newSession(cfg *config.GameConfig, host *memhost.Host, progress *meter, t frame.Ticker, frameNo func() uint64, logger *slog.Logger) *session {
	bus := event.NewBus()
	reg := registry.New(host, cfg.Record, registry.WithLogger(logger))
	s := &session{
		cfg:      cfg,
		host:     host,
		registry: reg,
		engine:   loader.New(host, reg, t, loader.WithLogger(logger), loader.WithBus(bus)),
		metrics:  metrics.New(),
		journal:  journal.NewRecorder(bus, frameNo, cfg.Config.InitialScene),
		progress: progress,
		logger:   logger,
	}
	s.detach = append(s.detach,
		s.metrics.Attach(bus),
		bus.LoadCompleted.Subscribe(func(e event.LoadEvent) {
			logger.Debug("active scenes", "scenes", e.Active)
		}),
	)
	return s
}

// loadOptions wraps loads in the configured loading scene and feeds the meter
func (s *session) loadOptions(mode scene.Mode) loader.LoadOptions {
	return loader.LoadOptions{
		LoadingScene: s.cfg.Config.LoadingScene,
		Mode:         mode,
		OnProgress:   s.progress.Set,
	}
}

// initialOptions loads the first scene directly, there is nothing to cover yet
func (s *session) initialOptions() loader.LoadOptions {
	return loader.LoadOptions{Mode: scene.Single, OnProgress: s.progress.Set}
}

func (s *session) unloadOptions() loader.UnloadOptions {
	return loader.UnloadOptions{OnProgress: s.progress.Set}
}

// Close detaches every subscriber and stops reconciling with the host
func (s *session) Close() {
	s.journal.Stop()
	for _, fn := range s.detach {
		fn()
	}
	s.registry.Close()
}
