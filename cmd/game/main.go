package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/application/game"
	"github.com/younwookim/sceneflow/internal/application/wait"
	"github.com/younwookim/sceneflow/internal/infrastructure/config"
	"github.com/younwookim/sceneflow/internal/logging"
)

//go:embed configs
var configFS embed.FS

func main() {
	// Parse command line flags
	configDir := flag.String("config", "", "Config directory on disk (default: embedded configs, no hot reload)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	metricsAddr := flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g., -metrics :2112)")
	headless := flag.Bool("headless", false, "Run a transition script without a window")
	script := flag.String("script", defaultScript, "Headless steps: load|additive|unload|reload:<scene>, reloadActive")
	journalPath := flag.String("journal", "", "Write the transition journal to this file on exit")
	snapshotDir := flag.String("snapshot", "", "Write the registry record to this directory on exit")
	flag.Parse()

	logger := logging.New(logging.ParseLevel(*logLevel))

	cfg, err := loadConfig(*configDir)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *headless {
		steps, err := parseScript(*script)
		if err != nil {
			logger.Error("invalid script", "error", err)
			os.Exit(1)
		}
		res, err := runHeadless(ctx, cfg, steps, *journalPath, logger)
		if err != nil {
			logger.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		logger.Info("headless run finished", "frames", res.Frames, "resident", res.Resident, "active", res.Active)
		writeSnapshot(*snapshotDir, cfg, res.Record, logger)
		return
	}

	if err := runWindowed(ctx, cfg, *configDir, *metricsAddr, *journalPath, *snapshotDir, logger); err != nil {
		logger.Error("game stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(dir string) (*config.GameConfig, error) {
	if dir != "" {
		return config.NewLoader(dir).LoadAll()
	}
	fsys, err := fs.Sub(configFS, "configs")
	if err != nil {
		return nil, err
	}
	return config.NewFSLoader(fsys, "configs").LoadAll()
}

func writeSnapshot(dir string, cfg *config.GameConfig, rec *config.Record, logger *slog.Logger) {
	if dir == "" {
		return
	}
	if err := config.WriteRecord(dir, cfg.Config.Record, rec); err != nil {
		logger.Error("failed to write record", "error", err)
		return
	}
	logger.Info("record saved", "dir", dir, "name", cfg.Config.Record)
}

func runWindowed(ctx context.Context, cfg *config.GameConfig, configDir, metricsAddr, journalPath, snapshotDir string, logger *slog.Logger) error {
	progress := &meter{}
	host, err := newHost(cfg, progress)
	if err != nil {
		return err
	}
	clock := frame.NewClock(host.Step)
	s := newSession(cfg, host, progress, clock, clock.Frame, logger)
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: s.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	if configDir != "" {
		stop, err := watchRecord(ctx, s, configDir, logger)
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer stop()
		}
	}

	launcher := wait.NewLauncher(8, logger)
	defer launcher.Wait()
	defer cancel()

	if initial := cfg.Config.InitialScene; initial != "" {
		launcher.FireAndForget(func() error {
			return s.engine.Load(ctx, initial, s.initialOptions())
		})
	}

	c := newControls(ctx, s, launcher, logger)
	g := game.New(host, clock, cfg.Config.Display.ScreenWidth, cfg.Config.Display.ScreenHeight,
		game.WithInput(c.Update))

	// Set up ebiten
	ebiten.SetWindowSize(cfg.Config.Display.ScreenWidth*cfg.Config.Display.Scale,
		cfg.Config.Display.ScreenHeight*cfg.Config.Display.Scale)
	ebiten.SetWindowTitle("Scene Flow")
	ebiten.SetTPS(cfg.Config.Display.Framerate)

	err = ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		err = nil
	}

	if journalPath != "" {
		if serr := s.journal.Save(journalPath); serr != nil {
			logger.Warn("journal not saved", "error", serr)
		}
	}
	writeSnapshot(snapshotDir, cfg, s.registry.Snapshot(), logger)
	return err
}

// watchRecord reloads the reserved loading scenes whenever the record file
// changes on disk.
func watchRecord(ctx context.Context, s *session, dir string, logger *slog.Logger) (func(), error) {
	w, err := config.NewWatcher(dir)
	if err != nil {
		return nil, err
	}
	loader := config.NewLoader(dir)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case path, ok := <-w.Events:
				if !ok {
					return
				}
				rec, err := loader.LoadRecord(s.cfg.Config.Record)
				if err != nil {
					logger.Warn("record reload failed", "path", path, "error", err)
					continue
				}
				s.registry.SetReservedScenes(rec.LoadingScenes)
				logger.Info("reserved loading scenes reloaded", "scenes", s.registry.ReservedScenes())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			}
		}
	}()

	return func() { _ = w.Close() }, nil
}
