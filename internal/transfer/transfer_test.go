package transfer_test

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"ultradl/internal/entity"
	"ultradl/internal/errs"
	"ultradl/internal/observability"
	"ultradl/internal/transfer"
	"ultradl/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newFetcher(t *testing.T, base string) (*transfer.Fetcher, *observability.Metrics) {
	t.Helper()

	metrics := observability.New(prometheus.NewRegistry())

	return transfer.New(logger.Discard(), http.DefaultClient, base, 0, metrics), metrics
}

type recordingSink struct {
	values []float64
}

func (s *recordingSink) Progress(f float64) { s.values = append(s.values, f) }

func TestFetchReportsProgress(t *testing.T) {
	body := bytes.Repeat([]byte("a"), 256<<10)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		for i := 0; i < len(body); i += 32 << 10 {
			w.Write(body[i : i+32<<10])
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	f, metrics := newFetcher(t, srv.URL)
	sink := &recordingSink{}

	payload, err := f.Fetch(t.Context(), transfer.Request{URL: srv.URL + "/x", ExpectedType: "audio/mp3", Service: "download"}, sink)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if !bytes.Equal(payload.Data, body) || payload.Size != int64(len(body)) {
		t.Fatalf("payload mismatch: %d bytes", payload.Size)
	}

	if payload.ContentType != "audio/mp3" || payload.DeclaredType != "audio/mpeg" {
		t.Errorf("types = %q / %q, want relabel to audio/mp3", payload.ContentType, payload.DeclaredType)
	}

	if len(sink.values) == 0 {
		t.Fatal("expected progress callbacks with a known length")
	}

	for i := 1; i < len(sink.values); i++ {
		if sink.values[i] < sink.values[i-1] {
			t.Fatalf("progress decreased: %v", sink.values)
		}
	}

	if last := sink.values[len(sink.values)-1]; last != 1 {
		t.Errorf("last progress = %v, want 1", last)
	}

	if got := testutil.ToFloat64(metrics.TransferBytes.WithLabelValues("download")); got != float64(len(body)) {
		t.Errorf("bytes metric = %v", got)
	}
}

func TestFetchUnknownLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("part1"))
		w.(http.Flusher).Flush()
		w.Write([]byte("part2"))
	}))
	defer srv.Close()

	f, _ := newFetcher(t, srv.URL)
	sink := &recordingSink{}

	payload, err := f.Fetch(t.Context(), transfer.Request{URL: srv.URL, ExpectedType: "image/jpeg"}, sink)
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	if string(payload.Data) != "part1part2" {
		t.Errorf("data = %q", payload.Data)
	}

	if len(sink.values) != 0 {
		t.Errorf("no progress expected without a length, got %v", sink.values)
	}

	if payload.ContentType != "image/jpeg" || payload.DeclaredType != "image/jpeg" {
		t.Errorf("matching type should be kept: %+v", payload)
	}
}

// rawServer answers every connection with response verbatim, so headers can lie.
func rawServer(t *testing.T, response string) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			go func() {
				defer conn.Close()

				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil || line == "\r\n" {
						break
					}
				}

				_, _ = conn.Write([]byte(response))
			}()
		}
	}()

	return "http://" + ln.Addr().String()
}

func TestFetchHugeDeclaredLength(t *testing.T) {
	base := rawServer(t, "HTTP/1.1 200 OK\r\n"+
		"Content-Type: image/jpeg\r\n"+
		"Content-Length: 9000000000000000000\r\n"+
		"Connection: close\r\n\r\n"+
		"abc")

	f, _ := newFetcher(t, base)

	_, err := f.Fetch(t.Context(), transfer.Request{URL: base + "/img.jpg", ExpectedType: "image/jpeg"}, &recordingSink{})

	var te *errs.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError for a truncated body", err)
	}
}

func TestFetchMediaURL(t *testing.T) {
	var gotType, gotURL string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotType = r.URL.Query().Get("type")
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte("mp4"))
	}))
	defer srv.Close()

	f, _ := newFetcher(t, srv.URL)

	payload, err := f.FetchMedia(t.Context(), "https://x.com/v?id=1&t=2", entity.KindVideo, nil)
	if err != nil {
		t.Fatalf("FetchMedia() failed: %v", err)
	}

	if gotType != "video" || gotURL != "https://x.com/v?id=1&t=2" {
		t.Errorf("query = type %q url %q", gotType, gotURL)
	}

	if payload.ContentType != "video/mp4" {
		t.Errorf("ContentType = %q, want video/mp4", payload.ContentType)
	}
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "File not found", http.StatusNotFound)
	}))
	defer srv.Close()

	f, metrics := newFetcher(t, srv.URL)
	sink := &recordingSink{}

	_, err := f.FetchMedia(t.Context(), "u", entity.KindAudio, sink)

	var se *errs.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want ServiceError", err)
	}

	if se.StatusCode != http.StatusNotFound || err.Error() != "HTTP error! status: 404" {
		t.Errorf("unexpected error %q (%d)", err.Error(), se.StatusCode)
	}

	if len(sink.values) != 0 {
		t.Errorf("failed transfer reported progress: %v", sink.values)
	}

	if got := testutil.ToFloat64(metrics.TransfersTotal.WithLabelValues("download", "status")); got != 1 {
		t.Errorf("status outcome metric = %v", got)
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	f, _ := newFetcher(t, base)

	_, err := f.Fetch(t.Context(), transfer.Request{URL: base + "/gone"}, nil)

	var te *errs.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError", err)
	}

	if errs.StatusCode(err) != 0 {
		t.Error("transport error must not carry a status")
	}
}

func TestFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f, _ := newFetcher(t, srv.URL)

	ctx, cancel := contextWithCancelNow(t.Context())
	defer cancel()

	_, err := f.Fetch(ctx, transfer.Request{URL: srv.URL}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
