// Package donate is the donation dialog: the modal and its copy-address buttons.
package donate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ultradl/internal/analytics"
	"ultradl/internal/clipboard"
	"ultradl/internal/consts"
	"ultradl/internal/errs"
)

// Target is what a click landed on.
type Target int

const (
	// TargetBackdrop is the area around the dialog.
	TargetBackdrop Target = iota
	// TargetContent is anything inside the dialog.
	TargetContent
)

// Modal is the donation dialog visibility.
type Modal struct {
	tracker analytics.Tracker

	mu     sync.Mutex
	active bool
}

// NewModal returns a closed modal.
func NewModal(tracker analytics.Tracker) *Modal {
	return &Modal{tracker: tracker}
}

// Open shows the dialog.
func (m *Modal) Open(ctx context.Context) {
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()

	m.tracker.Track(ctx, consts.EventDonateOpened, nil)
}

// Close hides the dialog.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = false
}

// Click closes the dialog only when the backdrop was hit.
func (m *Modal) Click(target Target) {
	if target == TargetBackdrop {
		m.Close()
	}
}

// Active reports whether the dialog is shown.
func (m *Modal) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active
}

// Button is the state of one copy button.
type Button struct {
	Label  string
	Copied bool
}

type button struct {
	Button
	timer *time.Timer
	// gen tells a stale revert from the current one
	gen int
}

// Copier copies donation addresses and flips the matching button for a while.
type Copier struct {
	addresses map[string]string
	cb        clipboard.Clipboard
	tracker   analytics.Tracker
	delay     time.Duration

	mu      sync.Mutex
	buttons map[string]*button
}

// NewCopier creates a Copier over addresses keyed by upper-case coin.
func NewCopier(addresses map[string]string, cb clipboard.Clipboard, tracker analytics.Tracker) *Copier {
	return &Copier{
		addresses: addresses,
		cb:        cb,
		tracker:   tracker,
		delay:     consts.CopyRevertDelay,
		buttons:   make(map[string]*button),
	}
}

// Address returns the address for coin.
func (c *Copier) Address(coin string) (string, error) {
	coin = strings.ToUpper(strings.TrimSpace(coin))

	addr, ok := c.addresses[coin]
	if !ok {
		return "", fmt.Errorf("%w: %q", errs.ErrUnknownCoin, coin)
	}

	return addr, nil
}

// Copy writes the address of coin to the clipboard and marks its button as copied.
// The button reverts after the delay; a repeated copy restarts the delay.
func (c *Copier) Copy(ctx context.Context, coin string) error {
	addr, err := c.Address(coin)
	if err != nil {
		return err
	}

	coin = strings.ToUpper(strings.TrimSpace(coin))

	err = c.cb.WriteAll(addr)
	if err != nil {
		return fmt.Errorf("copy %s address: %w", coin, err)
	}

	c.mu.Lock()
	b, ok := c.buttons[coin]
	if !ok {
		b = &button{}
		c.buttons[coin] = b
	}

	b.Label = consts.CopyLabelCopied
	b.Copied = true

	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(c.delay, func() { c.revert(coin, b, gen) })
	c.mu.Unlock()

	c.tracker.Track(ctx, consts.EventAddressCopied, map[string]string{consts.PropCoin: coin})

	return nil
}

// State returns the current button state of coin.
func (c *Copier) State(coin string) Button {
	coin = strings.ToUpper(strings.TrimSpace(coin))

	c.mu.Lock()
	defer c.mu.Unlock()

	if b, ok := c.buttons[coin]; ok {
		return b.Button
	}

	return Button{Label: fmt.Sprintf(consts.CopyLabelFmt, coin)}
}

// Stop cancels pending reverts.
func (c *Copier) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range c.buttons {
		if b.timer != nil {
			b.timer.Stop()
		}
	}
}

func (c *Copier) revert(coin string, b *button, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if b.gen != gen {
		return
	}

	b.Label = fmt.Sprintf(consts.CopyLabelFmt, coin)
	b.Copied = false
	b.timer = nil
}
