package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrSinkReopen is returned when an open Sink is asked to open a different
// path, or a closed Sink is asked to open again.
var ErrSinkReopen = errors.New("log sink already open")

// Sink is the persistent log file. It is opened at most once per run,
// appends a newline to every line and syncs after each write so that lines
// survive a process killed by a failing child.
type Sink struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// NewSink returns a closed sink. Write on a closed sink is a no-op.
func NewSink() *Sink {
	return &Sink{}
}

// Open opens path for appending. Opening the same path again is a no-op;
// opening a different path returns ErrSinkReopen.
func (s *Sink) Open(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: %s was closed", ErrSinkReopen, s.path)
	}
	if s.file != nil {
		if s.path == path {
			return nil
		}
		return fmt.Errorf("%w: %s (requested %s)", ErrSinkReopen, s.path, path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	s.file = f
	s.path = path
	return nil
}

// Path returns the log file path, or "" if none was opened.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// WriteLine writes line followed by a newline and syncs the file.
func (s *Sink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	if _, err := s.file.WriteString(line + "\n"); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close closes the underlying file. A closed sink stays closed for the rest
// of the run.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.closed = true
	return err
}
