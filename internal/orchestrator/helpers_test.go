package orchestrator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ultradl/internal/entity"
	"ultradl/internal/metadata"
	"ultradl/internal/orchestrator"
	"ultradl/internal/progress"
	"ultradl/internal/saver"
	"ultradl/internal/transfer"
	"ultradl/pkg/logger"
)

// fakeService answers /info from descriptors keyed by url, /download with
// "<type>:<url>" bodies, and /img/* with image bytes. Targets in fail get a 500.
type fakeService struct {
	descriptors map[string]any
	fail        map[string]bool

	// infoGate, when set, blocks /info until it is closed; infoEntered is closed first.
	infoGate    chan struct{}
	infoEntered chan struct{}

	infoCalls atomic.Int32
	mu        sync.Mutex
	downloads []string
}

func (s *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		s.infoCalls.Add(1)

		if s.infoGate != nil {
			close(s.infoEntered)
			<-s.infoGate
		}

		target := r.URL.Query().Get("url")

		desc, ok := s.descriptors[target]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"Unsupported URL"}`))

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(desc); err != nil {
			t.Errorf("encode descriptor: %v", err)
		}
	})

	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Query().Get("url")
		typ := r.URL.Query().Get("type")

		s.mu.Lock()
		s.downloads = append(s.downloads, typ+":"+target)
		s.mu.Unlock()

		if s.fail[target] {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte(typ + ":" + target))
	})

	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.downloads = append(s.downloads, "direct:"+r.URL.Path)
		s.mu.Unlock()

		if s.fail[r.URL.Path] {
			w.WriteHeader(http.StatusBadGateway)

			return
		}

		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write([]byte("img" + r.URL.Path))
	})

	return mux
}

func (s *fakeService) Downloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.downloads)
}

type panelEvent struct {
	kind string // status, log, alert
	text string
}

type recordingPanel struct {
	mu     sync.Mutex
	events []panelEvent
}

func (p *recordingPanel) add(kind, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, panelEvent{kind: kind, text: text})
}

func (p *recordingPanel) Status(text string) { p.add("status", text) }
func (p *recordingPanel) Log(msg string)     { p.add("log", msg) }
func (p *recordingPanel) Alert(msg string)   { p.add("alert", msg) }

func (p *recordingPanel) of(kind string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []string
	for _, e := range p.events {
		if e.kind == kind {
			out = append(out, e.text)
		}
	}

	return out
}

func (p *recordingPanel) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.events)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracker) Track(_ context.Context, event string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *recordingTracker) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.events)
}

type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (l *progressLog) observe(percent int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.values = append(l.values, percent)
}

func (l *progressLog) Values() []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return slices.Clone(l.values)
}

// watchedFetcher records the progress value each transfer starts from.
type watchedFetcher struct {
	orchestrator.Fetcher
	state *progress.State

	mu     sync.Mutex
	starts []int
}

func (w *watchedFetcher) record() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.starts = append(w.starts, w.state.Value())
}

func (w *watchedFetcher) FetchMedia(ctx context.Context, target string, kind entity.Kind, sink transfer.Sink) (*entity.Payload, error) {
	w.record()

	return w.Fetcher.FetchMedia(ctx, target, kind, sink)
}

func (w *watchedFetcher) Fetch(ctx context.Context, in transfer.Request, sink transfer.Sink) (*entity.Payload, error) {
	w.record()

	return w.Fetcher.Fetch(ctx, in, sink)
}

func (w *watchedFetcher) Starts() []int {
	w.mu.Lock()
	defer w.mu.Unlock()

	return slices.Clone(w.starts)
}

type harness struct {
	srv      *httptest.Server
	svc      *fakeService
	orch     *orchestrator.Orchestrator
	panel    *recordingPanel
	tracker  *recordingTracker
	progress *progressLog
	fetcher  *watchedFetcher
	dir      string
}

func newHarness(t *testing.T, svc *fakeService, opt orchestrator.Options) *harness {
	t.Helper()

	srv := httptest.NewServer(svc.handler(t))
	t.Cleanup(srv.Close)

	log := logger.Discard()
	dir := t.TempDir()

	h := &harness{
		srv:      srv,
		svc:      svc,
		panel:    &recordingPanel{},
		tracker:  &recordingTracker{},
		progress: &progressLog{},
		dir:      dir,
	}

	state := progress.New(h.progress.observe)
	h.fetcher = &watchedFetcher{
		Fetcher: transfer.New(log, srv.Client(), srv.URL, 5*time.Second, nil),
		state:   state,
	}

	h.orch = orchestrator.New(log, orchestrator.Deps{
		Info:     metadata.New(log, srv.Client(), srv.URL, 5*time.Second),
		Fetcher:  h.fetcher,
		Saver:    saver.New(log, dir),
		Panel:    h.panel,
		Tracker:  h.tracker,
		Progress: state,
	}, opt)

	return h
}

// preview loads target and clears the recorders so tests see only the next action.
func (h *harness) preview(t *testing.T, target string) {
	t.Helper()

	if _, err := h.orch.Preview(t.Context(), target); err != nil {
		t.Fatalf("Preview() failed: %v", err)
	}

	h.panel.mu.Lock()
	h.panel.events = nil
	h.panel.mu.Unlock()

	h.tracker.mu.Lock()
	h.tracker.events = nil
	h.tracker.mu.Unlock()
}

func seconds(v float64) *float64 {
	return &v
}

func entries(urls ...string) []entity.Entry {
	out := make([]entity.Entry, 0, len(urls))
	for _, u := range urls {
		out = append(out, entity.Entry{URL: u})
	}

	return out
}
