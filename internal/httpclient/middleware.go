package httpclient

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"ultradl/internal/consts"
	"ultradl/internal/observability"
	"ultradl/pkg/gen"
	"ultradl/pkg/shellquote"
	"ultradl/pkg/urls"
)

// RoundTripperFunc lets a plain func act as an http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

type chain []Middleware

// then applies c so that c[0] is the outermost wrapper.
func (c chain) then(rt http.RoundTripper) http.RoundTripper {
	for _, mw := range slices.Backward(c) {
		rt = mw(rt)
	}
	return rt
}

// RequestID sets X-Request-ID on requests that do not carry one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(consts.HeaderXRequestID) != "" {
			return next.RoundTrip(req)
		}

		req = req.Clone(req.Context())
		req.Header.Set(consts.HeaderXRequestID, gen.RequestID())

		return next.RoundTrip(req)
	})
}

// UserAgent sets the User-Agent header when agent is non-empty.
func UserAgent(agent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if agent == "" || req.Header.Get(consts.HeaderUserAgent) != "" {
				return next.RoundTrip(req)
			}

			req = req.Clone(req.Context())
			req.Header.Set(consts.HeaderUserAgent, agent)

			return next.RoundTrip(req)
		})
	}
}

type requestLog struct {
	Method    string `json:"method"`
	URI       string `json:"uri"`
	RequestID string `json:"request_id"`
	Curl      string `json:"curl"`
}

// Logger logs every request at debug level, with a pasteable curl line.
func Logger(log *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			ctx := req.Context()

			log.DebugContext(ctx, "http request",
				slog.Any("request", requestLog{
					Method:    req.Method,
					URI:       req.URL.String(),
					RequestID: req.Header.Get(consts.HeaderXRequestID),
					Curl:      shellquote.Curl(req.Method, req.URL.String(), req.Header),
				}))

			started := time.Now()

			resp, err := next.RoundTrip(req)
			if err != nil {
				log.DebugContext(ctx, "http request failed",
					slog.String("uri", req.URL.String()),
					slog.Duration("elapsed", time.Since(started)),
					slog.Any("error", err))

				return nil, err
			}

			log.DebugContext(ctx, "http response",
				slog.String("uri", req.URL.String()),
				slog.Int("status", resp.StatusCode),
				slog.Int64("content_length", resp.ContentLength),
				slog.Duration("elapsed", time.Since(started)))

			return resp, nil
		})
	}
}

// Metrics records request counts and time to headers by host and status.
func Metrics(metrics *observability.Metrics) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			started := time.Now()

			resp, err := next.RoundTrip(req)

			status := 0
			if resp != nil {
				status = resp.StatusCode
			}

			metrics.RecordHTTPRequest(req.Method, urls.Host(req.URL.String()), status, time.Since(started))

			return resp, err
		})
	}
}
