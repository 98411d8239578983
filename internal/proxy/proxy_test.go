package proxy_test

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"ultradl/internal/proxy"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		proxyURLs string
		wantCount int
		wantErr   bool
	}{
		{name: "empty proxies", proxyURLs: "", wantCount: 0},
		{name: "single proxy", proxyURLs: "socks5h://127.0.0.1:1080", wantCount: 1},
		{name: "multiple proxies", proxyURLs: "socks5h://127.0.0.1:1080,socks5h://127.0.0.1:1081", wantCount: 2},
		{name: "proxies with spaces", proxyURLs: "socks5h://127.0.0.1:1080 , socks5h://127.0.0.1:1081 ", wantCount: 2},
		{name: "proxies with empty entries", proxyURLs: "socks5h://127.0.0.1:1080,,socks5h://127.0.0.1:1081", wantCount: 2},
		{name: "IPv6 with port", proxyURLs: "socks5h://[::1]:1080", wantCount: 1},
		{name: "invalid proxy URL", proxyURLs: "not a valid url://:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := proxy.New(tt.proxyURLs, true, 5*time.Second)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && m.Count() != tt.wantCount {
				t.Errorf("New() count = %v, want %v", m.Count(), tt.wantCount)
			}
		})
	}
}

func TestGetProxy_NoProxies(t *testing.T) {
	m, err := proxy.New("", true, 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	proxyURL, err := m.GetProxy(context.Background())
	if err != nil {
		t.Errorf("GetProxy() error = %v", err)
	}
	if proxyURL != "" {
		t.Errorf("GetProxy() = %v, want empty string", proxyURL)
	}
}

func TestGetProxy_WithoutHealthCheck(t *testing.T) {
	m, err := proxy.New("socks5h://proxy1:1080,socks5h://proxy2:1080", false, 5*time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for range 10 {
		proxyURL, err := m.GetProxy(context.Background())
		if err != nil {
			t.Fatalf("GetProxy() error = %v", err)
		}
		if proxyURL != "socks5h://proxy1:1080" && proxyURL != "socks5h://proxy2:1080" {
			t.Fatalf("GetProxy() = %q, not one of the configured proxies", proxyURL)
		}
	}
}

func TestGetProxy_HealthCheck(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	healthy := "http://" + ln.Addr().String()

	m, err := proxy.New(healthy, true, time.Second)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	got, err := m.GetProxy(t.Context())
	if err != nil || got != healthy {
		t.Fatalf("GetProxy() = %q, %v; want %q", got, err, healthy)
	}

	ln.Close()

	if _, err := m.GetProxy(t.Context()); err == nil {
		t.Error("expected error once the only proxy is down")
	}
}

func TestFunc(t *testing.T) {
	direct, _ := proxy.New("", false, time.Second)

	req, _ := http.NewRequest(http.MethodGet, "http://example.com", nil)

	u, err := direct.Func()(req)
	if err != nil || u != nil {
		t.Errorf("direct Func() = %v, %v; want nil, nil", u, err)
	}

	via, _ := proxy.New("socks5h://127.0.0.1:1080", false, time.Second)

	u, err = via.Func()(req)
	if err != nil {
		t.Fatalf("Func() error = %v", err)
	}
	if u == nil || u.Scheme != "socks5h" || u.Host != "127.0.0.1:1080" {
		t.Errorf("Func() = %v", u)
	}
}
