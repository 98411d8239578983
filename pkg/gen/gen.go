// Package gen provides utility functions for generating values.
package gen

import (
	"github.com/google/uuid"
)

// RequestID returns a fresh random identifier for an outgoing request.
func RequestID() string {
	return uuid.NewString()
}

// SessionID returns a fresh random identifier for a client session.
func SessionID() string {
	return uuid.NewString()
}

// IsID reports whether s is a well-formed identifier produced by this package.
func IsID(s string) bool {
	u, err := uuid.Parse(s)

	return err == nil && u.Version() == 4
}
