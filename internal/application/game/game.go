// Package game provides the ebiten loop that drives resident scenes and
// the frame clock the loader waits on.
package game

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/application/scene"
)

// Stage lists the scenes that are resident right now, in load order
type Stage interface {
	Scenes() []scene.Scene
}

// Game implements ebiten.Game.
// Each Update runs the input handler, updates every resident scene and then
// advances the clock, which steps the host and wakes pending transitions.
type Game struct {
	stage   Stage
	clock   *frame.Clock
	input   func() error
	screenW int
	screenH int
	dt      float64
}

// Option configures a Game
type Option func(*Game)

// WithInput sets a handler polled at the start of every Update.
// Returning an error terminates the game.
func WithInput(fn func() error) Option {
	return func(g *Game) {
		g.input = fn
	}
}

// New creates a Game drawing stage and advancing clock once per frame
func New(stage Stage, clock *frame.Clock, screenW, screenH int, opts ...Option) *Game {
	g := &Game{
		stage:   stage,
		clock:   clock,
		screenW: screenW,
		screenH: screenH,
		dt:      1.0 / 60.0, // Default to 60 FPS
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update implements ebiten.Game
func (g *Game) Update() error {
	if g.input != nil {
		if err := g.input(); err != nil {
			return err
		}
	}

	for _, s := range g.stage.Scenes() {
		if err := s.Update(g.dt); err != nil {
			return err
		}
	}

	g.clock.Advance()
	return nil
}

// Draw renders every resident scene, first loaded at the bottom.
// Implements ebiten.Game interface.
func (g *Game) Draw(screen *ebiten.Image) {
	for _, s := range g.stage.Scenes() {
		s.Draw(screen)
	}
}

// Layout returns the game's logical screen dimensions.
// Implements ebiten.Game interface.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.screenW, g.screenH
}

// SetDT sets the delta time used for updates.
// Useful for testing or custom frame rates.
func (g *Game) SetDT(dt float64) {
	g.dt = dt
}
