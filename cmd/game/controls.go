package main

import (
	"context"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/younwookim/sceneflow/internal/application/journal"
	"github.com/younwookim/sceneflow/internal/application/wait"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

var digitKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

// controls maps keys to transitions. Transitions run on the launcher so the
// game loop keeps advancing the clock they wait on.
//
//	1-9        load build index (Shift: additive)
//	R          reload the active scene
//	U          unload the active scene
//	F5         save the journal
//	Escape     quit
type controls struct {
	ctx      context.Context
	s        *session
	launcher *wait.Launcher
	logger   *slog.Logger
}

func newControls(ctx context.Context, s *session, launcher *wait.Launcher, logger *slog.Logger) *controls {
	return &controls{ctx: ctx, s: s, launcher: launcher, logger: logger}
}

// Update polls the keyboard once per frame
func (c *controls) Update() error {
	c.drainFaults()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	mode := scene.Single
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mode = scene.Additive
	}
	for i, key := range digitKeys {
		if inpututil.IsKeyJustPressed(key) {
			c.loadIndex(i, mode)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		c.launcher.FireAndForget(func() error {
			return c.s.engine.ReloadActive(c.ctx, c.s.loadOptions(scene.Single))
		})
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyU) {
		if active := c.s.host.ActiveScene(); active != "" {
			c.launcher.FireAndForget(func() error {
				return c.s.engine.Unload(c.ctx, active.String(), c.s.unloadOptions())
			})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		c.saveJournal()
	}
	return nil
}

func (c *controls) loadIndex(index int, mode scene.Mode) {
	c.launcher.FireAndForget(func() error {
		return c.s.engine.LoadIndex(c.ctx, index, c.s.loadOptions(mode))
	})
}

func (c *controls) drainFaults() {
	for {
		select {
		case err := <-c.launcher.Faults():
			c.logger.Error("transition failed", "error", err)
		default:
			return
		}
	}
}

func (c *controls) saveJournal() {
	filename := journal.GenerateFilename()
	if err := c.s.journal.Save(filename); err != nil {
		c.logger.Error("failed to save journal", "error", err)
		return
	}
	c.logger.Info("journal saved", "path", filename, "entries", c.s.journal.Len())
}
