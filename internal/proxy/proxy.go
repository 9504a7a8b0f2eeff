// Package proxy handles proxy selection and health checking for outbound
// requests. Profile pages and media payloads are fetched from services that
// throttle by origin IP, so every discovery and fetch can go through a
// different proxy.
package proxy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokvault/internal/errs"
)

const (
	defaultSOCKSPort = "1080"
	defaultHTTPPort  = "8080"
)

// Manager handles proxy selection and health checking.
type Manager struct {
	proxies       []string
	healthCheck   bool
	healthTimeout time.Duration
}

// New creates a new proxy manager from an already-parsed proxy list.
func New(proxies []string, healthCheck bool, healthTimeout time.Duration) (*Manager, error) {
	cleaned := make([]string, 0, len(proxies))

	for _, p := range proxies {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if _, err := url.Parse(p); err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", p, err)
		}

		cleaned = append(cleaned, p)
	}

	return &Manager{
		proxies:       cleaned,
		healthCheck:   healthCheck,
		healthTimeout: healthTimeout,
	}, nil
}

// Client returns an HTTP client routed through a healthy proxy, or a direct
// client when no proxies are configured. A nil Manager yields a direct
// client, so callers need no special case.
func (m *Manager) Client(ctx context.Context) (*http.Client, error) {
	if m == nil || len(m.proxies) == 0 {
		return &http.Client{}, nil
	}

	proxyURL, err := m.GetProxy(ctx)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy URL %q: %w", proxyURL, err)
	}

	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(u)},
	}, nil
}

// GetProxy returns a random healthy proxy URL.
func (m *Manager) GetProxy(ctx context.Context) (string, error) {
	if len(m.proxies) == 0 {
		return "", errs.ErrNoProxiesAvailable
	}

	if !m.healthCheck {
		return m.selectRandom(), nil
	}

	// Shuffle and try each once.
	for _, idx := range rand.Perm(len(m.proxies)) {
		proxy := m.proxies[idx]
		if m.checkHealth(ctx, proxy) {
			return proxy, nil
		}
	}

	return "", errs.ErrNoProxiesAvailable
}

// selectRandom returns a random proxy from the list.
func (m *Manager) selectRandom() string {
	return m.proxies[rand.IntN(len(m.proxies))]
}

// checkHealth checks if a proxy is healthy by attempting to connect to it.
func (m *Manager) checkHealth(ctx context.Context, proxyURL string) bool {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return false
	}

	host := u.Host
	if !strings.Contains(host, ":") {
		switch u.Scheme {
		case "socks5", "socks5h":
			host = host + ":" + defaultSOCKSPort
		case "http", "https":
			host = host + ":" + defaultHTTPPort
		default:
			return false
		}
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.healthTimeout)
	defer cancel()

	dialer := &net.Dialer{}

	conn, err := dialer.DialContext(checkCtx, "tcp", host)
	if err != nil {
		return false
	}
	conn.Close()

	return true
}

// Count returns the number of configured proxies.
func (m *Manager) Count() int {
	if m == nil {
		return 0
	}

	return len(m.proxies)
}
