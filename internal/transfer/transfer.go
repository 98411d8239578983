// Package transfer performs binary GETs that report fractional progress.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"time"

	"ultradl/internal/consts"
	"ultradl/internal/entity"
	"ultradl/internal/errs"
	"ultradl/internal/observability"
	"ultradl/pkg/calc"
	"ultradl/pkg/urls"
)

// Sink receives progress as a 0..1 fraction. It is called zero or more times
// with non-decreasing values, and only when the response declares its length.
type Sink interface {
	Progress(fraction float64)
}

// SinkFunc adapts a func to Sink.
type SinkFunc func(fraction float64)

func (f SinkFunc) Progress(fraction float64) { f(fraction) }

// Request is one transfer.
type Request struct {
	URL string
	// ExpectedType re-labels the payload when the server declares something else.
	ExpectedType string
	// Service labels errors and metrics; empty means direct.
	Service string
}

// Fetcher is the byte-transfer client.
type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	base    string
	timeout time.Duration
	metrics *observability.Metrics
}

// New returns a Fetcher for the media service at base. A zero timeout means no per-transfer bound.
func New(log *slog.Logger, client *http.Client, base string, timeout time.Duration, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		log:     log.With(slog.String("package", "transfer")),
		client:  client,
		base:    base,
		timeout: timeout,
		metrics: metrics,
	}
}

// MediaURL is the media service URL that streams target as kind.
func (f *Fetcher) MediaURL(target string, kind entity.Kind) string {
	return urls.Endpoint(f.base, consts.PathDownload, url.Values{
		consts.QueryURL:  {target},
		consts.QueryType: {kind.String()},
	})
}

// FetchMedia fetches target through the media service as kind.
func (f *Fetcher) FetchMedia(ctx context.Context, target string, kind entity.Kind, sink Sink) (*entity.Payload, error) {
	return f.Fetch(ctx, Request{
		URL:          f.MediaURL(target, kind),
		ExpectedType: kind.MIME(),
		Service:      consts.ServiceDownload,
	}, sink)
}

// Fetch performs the transfer. It resolves exactly once, with a payload or with a
// *errs.ServiceError (non-200) or *errs.TransportError (no status, or a broken body).
func (f *Fetcher) Fetch(ctx context.Context, in Request, sink Sink) (payload *entity.Payload, err error) {
	service := in.Service
	if service == "" {
		service = consts.ServiceDirect
	}

	log := f.log.With(slog.String("func", "Fetch"), slog.String("service", service))

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	started := time.Now()
	var received int64

	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = classify(err)
		}
		f.metrics.RecordTransfer(service, outcome, received, time.Since(started))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "new request", Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.TransportError{Op: "do", Err: unwrapURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, consts.ErrorBodyLimit))

		return nil, &errs.ServiceError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP error! status: %d", resp.StatusCode),
		}
	}

	total := resp.ContentLength

	var buf bytes.Buffer
	if total > 0 {
		// the declared length is untrusted
		buf.Grow(int(min(total, consts.PreallocLimit)))
	}

	body := io.Reader(resp.Body)
	if sink != nil && total > 0 {
		body = io.TeeReader(resp.Body, &reporter{sink: sink, total: total})
	}

	received, err = io.Copy(&buf, body)
	if err != nil {
		return nil, &errs.TransportError{Op: "read body", Err: err}
	}

	declared := mediaType(resp.Header.Get(consts.HeaderContentType))

	payload = &entity.Payload{
		Data:         buf.Bytes(),
		ContentType:  declared,
		DeclaredType: declared,
		Size:         received,
	}

	if in.ExpectedType != "" && declared != in.ExpectedType {
		payload.ContentType = in.ExpectedType
	}

	log.DebugContext(ctx, "transfer done", slog.Any("payload", payload))

	return payload, nil
}

// reporter turns byte counts into non-decreasing fractions.
type reporter struct {
	sink   Sink
	total  int64
	loaded int64
	last   float64
}

func (r *reporter) Write(p []byte) (int, error) {
	r.loaded += int64(len(p))

	fraction := calc.Fraction(r.loaded, r.total)
	if fraction > r.last {
		r.last = fraction
		r.sink.Progress(fraction)
	}

	return len(p), nil
}

func mediaType(header string) string {
	if header == "" {
		return ""
	}

	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return header
	}

	return mt
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}

	return err
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errs.StatusCode(err) != 0:
		return "status"
	default:
		return "transport"
	}
}
