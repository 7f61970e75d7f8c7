// Package journal records scene transitions frame by frame and reads the
// recording back.
package journal

import "github.com/younwookim/sceneflow/internal/domain/scene"

// Kind names the bus topic an entry came from
type Kind string

const (
	KindLoadRequested   Kind = "loadRequested"
	KindLoadCompleted   Kind = "loadCompleted"
	KindUnloadCompleted Kind = "unloadCompleted"
)

// Entry records one transition event
type Entry struct {
	F      uint64       `json:"f"`                // Frame number
	Kind   Kind         `json:"kind"`             // Event topic
	Scene  scene.Name   `json:"scene"`            // Scene the event is about
	Active []scene.Name `json:"active,omitempty"` // Active scenes when it fired
}

// Data contains everything a run recorded
type Data struct {
	Version   string  `json:"version"`
	Initial   string  `json:"initial"`
	StartTime string  `json:"startTime"`
	Entries   []Entry `json:"entries"`
}
