// Package errs defines common error variables used across the application.
package errs

import (
	"errors"
	"fmt"
)

// Validation errors. These are handled locally and never reach the network.
var (
	// ErrEmptyURL indicates that the input URL is empty or blank.
	ErrEmptyURL = errors.New("empty url")
	// ErrNoPreview indicates that a download was requested before any successful preview.
	ErrNoPreview = errors.New("no preview loaded")
	// ErrNoImage indicates that the descriptor has no image candidates.
	ErrNoImage = errors.New("no image available")
	// ErrInvalidKind indicates that the media kind is not usable for the action.
	ErrInvalidKind = errors.New("invalid media kind")
)

// ErrBusy indicates that another action is still in flight.
var ErrBusy = errors.New("another action is in progress")

// Save errors.
var (
	// ErrNilPayload indicates that there is nothing to save.
	ErrNilPayload = errors.New("payload is nil")
	// ErrEmptyFilename indicates that the target filename is empty.
	ErrEmptyFilename = errors.New("filename is empty")
)

// Auxiliary UI errors.
var (
	// ErrUnknownCoin indicates that no donation address is configured for the coin.
	ErrUnknownCoin = errors.New("unknown coin")
	// ErrClipboardUnavailable indicates that the system clipboard cannot be used.
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// Config errors.
var (
	// ErrInvalidBaseURL indicates that the service base URL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid server base url")
	// ErrInvalidDonateAddresses indicates a malformed COIN=address list.
	ErrInvalidDonateAddresses = errors.New("invalid donate addresses")
)

// ServiceError is a non-success HTTP status from one of the external services.
type ServiceError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// TransportError is a failure before any status was received, or while reading the body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "Fetch error"
	}

	return "Fetch error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyURL) ||
		errors.Is(err, ErrNoPreview) ||
		errors.Is(err, ErrNoImage) ||
		errors.Is(err, ErrInvalidKind)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// Message returns the user-facing text of err: the innermost service or
// transport error if there is one, otherwise err.Error().
func Message(err error) string {
	if err == nil {
		return ""
	}

	var se *ServiceError
	if errors.As(err, &se) {
		return se.Error()
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}

	return err.Error()
}
