// Package scene holds the domain types shared by the transition engine and
// the hosts it drives: scene names, load modes and the collaborator
// interfaces a host must implement.
package scene

import (
	"errors"
	"path"
	"strings"
)

// ActivationThreshold is the progress value a content loader reports once a
// deferred load is ready and waiting for activation. Loaders cap visible
// progress here until activation is allowed; it is part of the loader's
// contract, not a tunable.
const ActivationThreshold = 0.9

// ErrUnknownScene is returned by hosts asked to load a scene they don't know.
var ErrUnknownScene = errors.New("unknown scene")

// Name is a normalized scene identifier
type Name string

// Normalize strips directory and extension decoration from a scene reference,
// so "Assets/Scenes/Level1.unity" and "Level1" name the same scene.
func Normalize(ref string) Name {
	ref = strings.ReplaceAll(ref, "\\", "/")
	base := path.Base(ref)
	if base == "." || base == "/" {
		return ""
	}
	return Name(strings.TrimSuffix(base, path.Ext(base)))
}

// String returns the name as a plain string
func (n Name) String() string {
	return string(n)
}

// Mode selects how a load composes with scenes already resident
type Mode int

const (
	// Single unloads every other resident scene when the load activates.
	Single Mode = iota
	// Additive layers the scene on top of the resident ones.
	Additive
)

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case Single:
		return "Single"
	case Additive:
		return "Additive"
	default:
		return "Unknown"
	}
}
