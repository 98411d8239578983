// Package proxy picks an outbound proxy for requests to the media service.
package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ultradl/internal/observability"
)

const (
	defaultSOCKSPort = "1080"
	defaultHTTPPort  = "8080"
)

// Manager handles proxy selection and health checking.
type Manager struct {
	log           *slog.Logger
	metrics       *observability.Metrics
	proxies       []string
	healthCheck   bool
	healthTimeout time.Duration
}

// New creates a new proxy manager from a comma-separated list.
func New(proxyURLs string, healthCheck bool, healthTimeout time.Duration) (*Manager, error) {
	m := &Manager{
		log:           slog.Default(),
		proxies:       []string{},
		healthCheck:   healthCheck,
		healthTimeout: healthTimeout,
	}

	if proxyURLs == "" {
		return m, nil
	}

	for p := range strings.SplitSeq(proxyURLs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		// Validate proxy URL
		if _, err := url.Parse(p); err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", p, err)
		}

		m.proxies = append(m.proxies, p)
	}

	return m, nil
}

// WithObservability attaches a logger and metrics.
func (m *Manager) WithObservability(log *slog.Logger, metrics *observability.Metrics) *Manager {
	m.log = log.With(slog.String("package", "proxy"))
	m.metrics = metrics

	return m
}

// GetProxy returns a random healthy proxy URL, or empty string if no proxies configured.
func (m *Manager) GetProxy(ctx context.Context) (string, error) {
	if len(m.proxies) == 0 {
		return "", nil
	}

	if !m.healthCheck {
		return m.selectRandom(), nil
	}

	// Try to find a healthy proxy - shuffle and try each once
	indices := rand.Perm(len(m.proxies))
	for _, idx := range indices {
		proxy := m.proxies[idx]
		if m.checkHealth(ctx, proxy) {
			return proxy, nil
		}

		m.metrics.RecordProxyFailure(proxy)
		m.log.DebugContext(ctx, "proxy unhealthy", slog.String("proxy", proxy))
	}

	return "", fmt.Errorf("no healthy proxies available")
}

// Func adapts the manager to http.Transport.Proxy. No configured proxy means a direct connection.
func (m *Manager) Func() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		raw, err := m.GetProxy(req.Context())
		if err != nil {
			return nil, err
		}

		if raw == "" {
			return nil, nil
		}

		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse proxy %q: %w", raw, err)
		}

		m.metrics.RecordProxyRequest(u.Host)

		return u, nil
	}
}

// selectRandom returns a random proxy from the list.
func (m *Manager) selectRandom() string {
	if len(m.proxies) == 0 {
		return ""
	}
	return m.proxies[rand.IntN(len(m.proxies))]
}

// checkHealth checks if a proxy is healthy by attempting to connect to it.
func (m *Manager) checkHealth(ctx context.Context, proxyURL string) bool {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return false
	}

	port := u.Port()
	if port == "" {
		// Add default port based on scheme
		switch u.Scheme {
		case "socks5", "socks5h":
			port = defaultSOCKSPort
		case "http", "https":
			port = defaultHTTPPort
		default:
			return false
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.healthTimeout)
	defer cancel()

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(checkCtx, "tcp", net.JoinHostPort(u.Hostname(), port))
	if err != nil {
		return false
	}
	conn.Close()

	return true
}

// Count returns the number of configured proxies.
func (m *Manager) Count() int {
	return len(m.proxies)
}
