// Package selection holds the process-wide "current audio selection": one
// sound file plus a time range, exposed by the filesystem as a single
// synthetic WAV file.
//
// The slot is last-writer-wins. It is not a queue and keeps no history.
package selection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

// Suffix is appended to the source base name to form the virtual file name.
const Suffix = "Selection.wav"

// Selection is a time range within one stored sound file.
type Selection struct {
	FileID int64

	// Start and End are offsets in seconds.
	Start float64
	End   float64

	// FileName is the original name of the source file.
	FileName string
}

// Name returns the virtual file name, {base}Selection.wav.
func (s Selection) Name() string {
	base := s.FileName
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base + Suffix
}

// Validate checks the range.
func (s Selection) Validate() error {
	if s.FileID <= 0 {
		return errors.New("selection: file id must be positive")
	}
	if s.Start < 0 || s.End < 0 {
		return errors.New("selection: times must not be negative")
	}
	if s.End < s.Start {
		return fmt.Errorf("selection: end %.3f before start %.3f", s.End, s.Start)
	}
	return nil
}

// Slot is a mutex-guarded single-value store. The zero value is empty and
// ready to use.
type Slot struct {
	mu      sync.RWMutex
	current *Selection
}

// NewSlot returns an empty slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Set replaces the current selection.
func (s *Slot) Set(sel Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &sel
}

// Get returns a copy of the current selection.
func (s *Slot) Get() (Selection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Selection{}, false
	}
	return *s.current, true
}

// Clear empties the slot.
func (s *Slot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Trimmer produces the bytes served for a selection from the full source
// stream.
type Trimmer interface {
	// Trim returns a reader over the selected excerpt and its length, or -1
	// when the length is unknown until the stream is consumed.
	Trim(ctx context.Context, src io.ReadSeeker, size int64, sel Selection) (io.ReadSeeker, int64, error)
}

// PassthroughTrimmer serves the whole source file and ignores the range.
//
// TODO: replace with sample-accurate PCM WAV slicing that rewrites the RIFF
// header for the selected frames.
type PassthroughTrimmer struct{}

func (PassthroughTrimmer) Trim(_ context.Context, src io.ReadSeeker, size int64, _ Selection) (io.ReadSeeker, int64, error) {
	return src, size, nil
}
