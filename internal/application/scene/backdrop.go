package scene

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

var (
	colorBarBG = color.RGBA{60, 60, 60, 255}
	colorBarFG = color.RGBA{100, 200, 100, 255}
)

// Backdrop is a placeholder scene that fills the screen and prints its name
type Backdrop struct {
	name    string
	color   color.RGBA
	elapsed float64
	entered int
}

// NewBackdrop creates a backdrop scene
func NewBackdrop(name string, c color.RGBA) *Backdrop {
	return &Backdrop{name: name, color: c}
}

func (b *Backdrop) Update(dt float64) error {
	b.elapsed += dt
	return nil
}

func (b *Backdrop) Draw(screen *ebiten.Image) {
	screen.Fill(b.color)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  %.1fs", b.name, b.elapsed), 8, 8)
}

func (b *Backdrop) OnEnter() {
	b.entered++
	b.elapsed = 0
}

func (b *Backdrop) OnExit() {}

// Elapsed returns the seconds spent since the last OnEnter
func (b *Backdrop) Elapsed() float64 {
	return b.elapsed
}

// LoadingScreen is a transitional scene drawing a progress bar
type LoadingScreen struct {
	Backdrop
	progress func() float64
}

// NewLoadingScreen creates a loading screen. progress is read every Draw and
// should return a value in [0,1].
func NewLoadingScreen(name string, c color.RGBA, progress func() float64) *LoadingScreen {
	return &LoadingScreen{
		Backdrop: Backdrop{name: name, color: c},
		progress: progress,
	}
}

func (l *LoadingScreen) Draw(screen *ebiten.Image) {
	l.Backdrop.Draw(screen)

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	barW := float64(w) * 0.6
	barH := 6.0
	barX := (float64(w) - barW) / 2
	barY := float64(h) * 0.75

	ebitenutil.DrawRect(screen, barX, barY, barW, barH, colorBarBG)
	ebitenutil.DrawRect(screen, barX, barY, barW*clamp01(l.progress()), barH, colorBarFG)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
