// Package httpclient builds the outbound HTTP client shared by the service clients.
package httpclient

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"ultradl/internal/config"
	"ultradl/internal/observability"
	"ultradl/internal/proxy"
)

const (
	defaultDialTimeout           = 10 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 60 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
)

// Options are the pieces New needs beyond config.
type Options struct {
	// Proxy may be nil for direct connections.
	Proxy *proxy.Manager
	// Base is the innermost transport; nil means a tuned http.Transport.
	Base http.RoundTripper
}

// New returns a client whose transport runs RequestID, UserAgent, Logger and Metrics in that order.
// The client has no overall timeout; callers bound each request through its context.
func New(log *slog.Logger, cfg *config.Config, metrics *observability.Metrics, opt Options) *http.Client {
	base := opt.Base
	if base == nil {
		base = newTransport(opt.Proxy)
	}

	mw := chain{
		RequestID,
		UserAgent(cfg.HTTP.UserAgent),
		Logger(log.With(slog.String("package", "httpclient"))),
		Metrics(metrics),
	}

	return &http.Client{Transport: mw.then(base)}
}

func newTransport(pm *proxy.Manager) *http.Transport {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultDialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
	}

	if pm != nil && pm.Count() > 0 {
		tr.Proxy = pm.Func()
	}

	return tr
}
