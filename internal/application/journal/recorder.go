package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/younwookim/sceneflow/internal/application/event"
)

// ErrEmpty is returned when saving a journal with no entries
var ErrEmpty = errors.New("no entries to save")

// Recorder appends every bus event to a journal.
// Events may arrive from several loader goroutines.
type Recorder struct {
	mu      sync.Mutex
	data    Data
	frame   func() uint64
	detach  []func()
	stopped bool
}

// NewRecorder subscribes to bus and stamps each entry with frame().
// initial names the scene the run started from.
func NewRecorder(bus *event.Bus, frame func() uint64, initial string) *Recorder {
	r := &Recorder{
		data: Data{
			Version:   "1.0",
			Initial:   initial,
			StartTime: time.Now().Format(time.RFC3339),
			Entries:   make([]Entry, 0, 64),
		},
		frame: frame,
	}

	r.detach = []func(){
		bus.LoadRequested.Subscribe(r.handler(KindLoadRequested)),
		bus.LoadCompleted.Subscribe(r.handler(KindLoadCompleted)),
		bus.UnloadCompleted.Subscribe(r.handler(KindUnloadCompleted)),
	}
	return r
}

func (r *Recorder) handler(kind Kind) func(event.LoadEvent) {
	return func(e event.LoadEvent) {
		r.record(kind, e)
	}
}

func (r *Recorder) record(kind Kind, e event.LoadEvent) {
	f := r.frame()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.data.Entries = append(r.data.Entries, Entry{
		F:      f,
		Kind:   kind,
		Scene:  e.Scene,
		Active: e.Active,
	})
}

// Stop unsubscribes from the bus; entries already recorded are kept
func (r *Recorder) Stop() {
	r.mu.Lock()
	r.stopped = true
	detach := r.detach
	r.detach = nil
	r.mu.Unlock()

	for _, fn := range detach {
		fn()
	}
}

// IsRecording returns whether recording is active
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.stopped
}

// Len returns the number of recorded entries
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data.Entries)
}

// Data returns a copy of the journal recorded so far
func (r *Recorder) Data() Data {
	r.mu.Lock()
	defer r.mu.Unlock()

	d := r.data
	d.Entries = append([]Entry(nil), r.data.Entries...)
	return d
}

// Save writes the journal to a file
func (r *Recorder) Save(filename string) error {
	data := r.Data()
	if len(data.Entries) == 0 {
		return ErrEmpty
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode journal: %w", err)
	}

	return nil
}

// GenerateFilename creates a filename based on current time
func GenerateFilename() string {
	return fmt.Sprintf("journal_%s.json", time.Now().Format("20060102_150405"))
}
