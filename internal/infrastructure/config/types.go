package config

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Config is the root config for sceneflow.yaml
type Config struct {
	Display      DisplayConfig `yaml:"display"`
	Scenes       []SceneConfig `yaml:"scenes"`
	InitialScene string        `yaml:"initialScene"`
	LoadingScene string        `yaml:"loadingScene"`
	// Record names the persistent SceneLoaderData record file (without extension).
	Record string `yaml:"record"`
}

type DisplayConfig struct {
	ScreenWidth  int `yaml:"screenWidth"`
	ScreenHeight int `yaml:"screenHeight"`
	Scale        int `yaml:"scale"`
	Framerate    int `yaml:"framerate"`
}

// SceneConfig describes one scene of the build catalog.
// Its position in Config.Scenes is its build index.
type SceneConfig struct {
	Path         string `yaml:"path"`
	Color        string `yaml:"color"`        // Background colour, "#rrggbb"
	LoadFrames   int    `yaml:"loadFrames"`   // Frames to reach the activation threshold
	UnloadFrames int    `yaml:"unloadFrames"` // Frames to tear down
}

// RGBA parses Color. An empty colour is opaque black.
func (s SceneConfig) RGBA() (color.RGBA, error) {
	if s.Color == "" {
		return color.RGBA{A: 255}, nil
	}
	hex := strings.TrimPrefix(s.Color, "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q for scene %s", s.Color, s.Path)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q for scene %s: %w", s.Color, s.Path, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// Record is the persistent SceneLoaderData record.
//
// LoadingScenes lists the asset paths reserved for transitional loading
// screens. The three scene lists mirror the transition registry; they are
// reset whenever a registry is built from the record.
type Record struct {
	LoadingScenes   []string `yaml:"loadingScenes"`
	ScenesLoading   []string `yaml:"scenesLoading"`
	ScenesUnloading []string `yaml:"scenesUnloading"`
	ScenesLoaded    []string `yaml:"scenesLoaded"`
}
