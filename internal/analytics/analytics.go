// Package analytics sends fire-and-forget usage events.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"ultradl/internal/consts"
	"ultradl/internal/observability"

	"golang.org/x/time/rate"
)

// Tracker records a named event. Implementations never block on delivery.
type Tracker interface {
	Track(ctx context.Context, event string, props map[string]string)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Track(context.Context, string, map[string]string) {}

// Multi fans events out to every tracker in order.
type Multi []Tracker

func (m Multi) Track(ctx context.Context, event string, props map[string]string) {
	for _, t := range m {
		t.Track(ctx, event, props)
	}
}

// Metrics counts events by name.
type Metrics struct {
	metrics *observability.Metrics
}

// NewMetrics returns a Tracker backed by the events counter.
func NewMetrics(metrics *observability.Metrics) *Metrics {
	return &Metrics{metrics: metrics}
}

func (m *Metrics) Track(_ context.Context, event string, _ map[string]string) {
	m.metrics.RecordEvent(event)
}

// PlausibleOptions configure a Plausible tracker.
type PlausibleOptions struct {
	Endpoint string
	Domain   string
	// PageURL is sent as the event url.
	PageURL string
	Timeout time.Duration
	// Rate is events per second; excess events are dropped. Zero means unlimited.
	Rate  float64
	Burst int
}

// Plausible posts events to a Plausible-compatible endpoint.
type Plausible struct {
	log     *slog.Logger
	client  *http.Client
	opt     PlausibleOptions
	limiter *rate.Limiter

	wg sync.WaitGroup
}

type plausibleEvent struct {
	Name   string            `json:"name"`
	URL    string            `json:"url"`
	Domain string            `json:"domain"`
	Props  map[string]string `json:"props,omitempty"`
}

// NewPlausible creates a Plausible tracker.
func NewPlausible(log *slog.Logger, client *http.Client, opt PlausibleOptions) *Plausible {
	if opt.Timeout <= 0 {
		opt.Timeout = consts.DefaultAnalyticsTimeout
	}

	if opt.PageURL == "" {
		opt.PageURL = "app://" + opt.Domain + "/"
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opt.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opt.Rate), max(opt.Burst, 1))
	}

	return &Plausible{
		log:     log.With(slog.String("package", "analytics")),
		client:  client,
		opt:     opt,
		limiter: limiter,
	}
}

// Track enqueues the event and returns immediately.
func (p *Plausible) Track(ctx context.Context, event string, props map[string]string) {
	if !p.limiter.Allow() {
		p.log.DebugContext(ctx, "event dropped by rate limit", slog.String("event", event))

		return
	}

	body, err := json.Marshal(plausibleEvent{
		Name:   event,
		URL:    p.opt.PageURL,
		Domain: p.opt.Domain,
		Props:  props,
	})
	if err != nil {
		p.log.DebugContext(ctx, "marshal event", slog.String("event", event), slog.Any("error", err))

		return
	}

	// the send outlives the caller's action
	sendCtx := context.WithoutCancel(ctx)

	p.wg.Go(func() {
		err := p.send(sendCtx, body)
		if err != nil {
			p.log.DebugContext(sendCtx, "send event", slog.String("event", event), slog.Any("error", err))
		}
	})
}

// Close waits for in-flight sends.
func (p *Plausible) Close() {
	p.wg.Wait()
}

func (p *Plausible) send(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.opt.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opt.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set(consts.HeaderContentType, "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}
