// Package scene defines the content side of a scene: what a resident scene
// does every frame once the loader has activated it.
//
// Several scenes can be resident at once (additive loading), so the game
// loop updates and draws every resident scene in load order.
package scene

import "github.com/hajimehoshi/ebiten/v2"

// Scene is the live content of a loaded scene (menu, level, loading screen, ...)
type Scene interface {
	// Update updates the scene state.
	// dt is the delta time in seconds (typically 1/60).
	// Returns an error to terminate the game.
	Update(dt float64) error

	// Draw renders the scene to the screen.
	Draw(screen *ebiten.Image)

	// OnEnter is called when the scene is activated.
	OnEnter()

	// OnExit is called when the scene is unloaded.
	OnExit()
}
