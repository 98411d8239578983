// Package panel is the user-facing status line, log panel and alerts.
package panel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"ultradl/internal/consts"

	"github.com/ulikunitz/xz"
)

// Options configure a Panel.
type Options struct {
	// Output receives status changes, log lines and alerts as they happen. Nil keeps them in memory only.
	Output io.Writer
	// Now is the clock for log timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Panel records what the user sees. It is safe for concurrent use.
type Panel struct {
	log *slog.Logger
	out io.Writer
	now func() time.Time

	mu     sync.Mutex
	status string
	lines  []string
	alerts []string
}

// New creates a Panel.
func New(log *slog.Logger, opt Options) *Panel {
	now := opt.Now
	if now == nil {
		now = time.Now
	}

	return &Panel{
		log: log.With(slog.String("package", "panel")),
		out: opt.Output,
		now: now,
	}
}

// Status replaces the status line.
func (p *Panel) Status(text string) {
	p.mu.Lock()
	p.status = text
	p.write("» " + text)
	p.mu.Unlock()

	p.log.Debug("status", slog.String("text", text))
}

// StatusText returns the current status line.
func (p *Panel) StatusText() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.status
}

// Log prepends a timestamp and appends msg to the log panel.
func (p *Panel) Log(msg string) {
	line := p.now().Format(consts.LogTimeLayout) + " • " + msg

	p.mu.Lock()
	p.lines = append(p.lines, line)
	p.write(line)
	p.mu.Unlock()

	p.log.Info(msg)
}

// Lines returns a copy of the log panel, oldest first.
func (p *Panel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.lines)
}

// Alert shows a blocking notice. In a terminal it is simply printed.
func (p *Panel) Alert(msg string) {
	p.mu.Lock()
	p.alerts = append(p.alerts, msg)
	p.write("! " + msg)
	p.mu.Unlock()

	p.log.Warn("alert", slog.String("message", msg))
}

// Alerts returns a copy of every alert shown so far.
func (p *Panel) Alerts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.alerts)
}

// Export writes all log lines to path. A .xz suffix compresses the file.
func (p *Panel) Export(ctx context.Context, path string) (err error) {
	lines := p.Lines()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close export: %w", closeErr)
		}
	}()

	var w io.Writer = f

	var zw *xz.Writer
	if strings.HasSuffix(path, ".xz") {
		zw, err = xz.NewWriter(f)
		if err != nil {
			return fmt.Errorf("create xz writer: %w", err)
		}
		w = zw
	}

	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err = bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
	}

	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}

	if zw != nil {
		if err = zw.Close(); err != nil {
			return fmt.Errorf("close xz writer: %w", err)
		}
	}

	p.log.InfoContext(ctx, "log exported",
		slog.String("path", path),
		slog.Int("lines", len(lines)))

	return nil
}

// write must be called with mu held.
func (p *Panel) write(s string) {
	if p.out == nil {
		return
	}

	_, _ = fmt.Fprintln(p.out, s)
}
