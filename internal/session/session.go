// Package session keeps the state shared between a preview and the downloads that follow it.
package session

import (
	"log/slog"
	"sync"

	"ultradl/internal/entity"
	"ultradl/pkg/gen"
)

// Snapshot is an immutable view of the session state.
type Snapshot struct {
	// Descriptor is the last successful preview. Nil before any.
	Descriptor *entity.MediaDescriptor
	// InputURL is the link the descriptor was previewed from.
	InputURL string
}

// Loaded reports whether a preview has succeeded.
func (s Snapshot) Loaded() bool {
	return s.Descriptor != nil
}

// Session is safe for concurrent use. A failed preview never touches it.
type Session struct {
	id string

	mu    sync.RWMutex
	state Snapshot
}

// New returns an empty session.
func New() *Session {
	return &Session{id: gen.SessionID()}
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// Replace stores a new preview result.
func (s *Session) Replace(desc *entity.MediaDescriptor, inputURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Snapshot{Descriptor: desc, InputURL: inputURL}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (s *Session) LogValue() slog.Value {
	snap := s.Snapshot()

	return slog.GroupValue(
		slog.String("id", s.id),
		slog.String("input_url", snap.InputURL),
		slog.Bool("loaded", snap.Loaded()),
	)
}
