package system

import (
	"errors"
	"fmt"
	"sync"
)

type cleanupStep struct {
	name string
	undo func() error
}

// CleanupStack unwinds partially built state in reverse order (LIFO).
// Each step registers its undo after it succeeds; Clear drops them all
// once the whole operation succeeded.
type CleanupStack struct {
	steps []cleanupStep
	mu    sync.Mutex
}

// NewCleanupStack creates a new cleanup stack
func NewCleanupStack() *CleanupStack {
	return &CleanupStack{}
}

// Add registers undo for the step called name
func (s *CleanupStack) Add(name string, undo func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, cleanupStep{name: name, undo: undo})
}

// Len returns the number of pending steps
func (s *CleanupStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Execute undoes every registered step, newest first. A failing undo does
// not stop the remaining ones; all failures are returned joined, each
// prefixed with its step name.
func (s *CleanupStack) Execute() error {
	s.mu.Lock()
	steps := s.steps
	s.steps = nil
	s.mu.Unlock()

	var errs []error
	for i := len(steps) - 1; i >= 0; i-- {
		if err := steps[i].undo(); err != nil {
			errs = append(errs, fmt.Errorf("undo %s: %w", steps[i].name, err))
		}
	}
	return errors.Join(errs...)
}

// Clear drops all registered steps
func (s *CleanupStack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = nil
}
