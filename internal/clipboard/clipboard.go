// Package clipboard reads and writes the system clipboard.
package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ultradl/internal/errs"
	"ultradl/pkg/urls"

	atotto "github.com/atotto/clipboard"
)

// Clipboard is a text clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// System is the OS clipboard.
type System struct{}

var _ Clipboard = System{}

func (System) ReadAll() (string, error) {
	if atotto.Unsupported {
		return "", errs.ErrClipboardUnavailable
	}

	text, err := atotto.ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrClipboardUnavailable, err)
	}

	return text, nil
}

func (System) WriteAll(text string) error {
	if atotto.Unsupported {
		return errs.ErrClipboardUnavailable
	}

	err := atotto.WriteAll(text)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClipboardUnavailable, err)
	}

	return nil
}

// Autofill returns the clipboard text when it looks like a link, else "".
// Read failures are logged and swallowed.
func Autofill(ctx context.Context, log *slog.Logger, cb Clipboard) string {
	text, err := cb.ReadAll()
	if err != nil {
		log.DebugContext(ctx, "clipboard autofill", slog.String("package", "clipboard"), slog.Any("error", err))

		return ""
	}

	if !urls.LooksLikeURL(text) {
		return ""
	}

	return strings.TrimSpace(text)
}
