package journal

import (
	"encoding/json"
	"fmt"
	"os"
)

// Reader walks a recorded journal in order
type Reader struct {
	data Data
	pos  int
}

// NewReader creates a reader positioned at the first entry
func NewReader(data Data) *Reader {
	return &Reader{data: data}
}

// Load reads a journal from a file
func Load(filename string) (*Data, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var data Data
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode journal: %w", err)
	}

	return &data, nil
}

// Next returns the next entry and advances
func (r *Reader) Next() (Entry, bool) {
	if r.pos >= len(r.data.Entries) {
		return Entry{}, false
	}
	e := r.data.Entries[r.pos]
	r.pos++
	return e, true
}

// Until returns every entry recorded up to and including frame f
func (r *Reader) Until(f uint64) []Entry {
	start := r.pos
	for r.pos < len(r.data.Entries) && r.data.Entries[r.pos].F <= f {
		r.pos++
	}
	return r.data.Entries[start:r.pos]
}

// Position returns the index of the next entry
func (r *Reader) Position() int {
	return r.pos
}

// Total returns the number of entries
func (r *Reader) Total() int {
	return len(r.data.Entries)
}

// Reset rewinds the reader to the beginning
func (r *Reader) Reset() {
	r.pos = 0
}
