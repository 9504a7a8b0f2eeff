package proxy

import (
	"errors"
	"testing"
	"time"

	"tokvault/internal/errs"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		proxies   []string
		wantCount int
	}{
		{
			name:      "empty list",
			proxies:   nil,
			wantCount: 0,
		},
		{
			name:      "blank entries skipped",
			proxies:   []string{" ", "", "socks5://127.0.0.1:1080"},
			wantCount: 1,
		},
		{
			name:      "multiple proxies",
			proxies:   []string{"http://p1:8080", "socks5://p2:1080"},
			wantCount: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.proxies, false, time.Second)
			if err != nil {
				t.Fatalf("new manager: %v", err)
			}
			if m.Count() != tt.wantCount {
				t.Errorf("expected %d proxies, got %d", tt.wantCount, m.Count())
			}
		})
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager

	if m.Count() != 0 {
		t.Errorf("expected nil manager to report zero proxies")
	}

	client, err := m.Client(t.Context())
	if err != nil {
		t.Fatalf("expected direct client from nil manager, got %v", err)
	}
	if client.Transport != nil {
		t.Errorf("expected direct client without proxy transport")
	}
}

func TestClientDirectWhenEmpty(t *testing.T) {
	m, err := New(nil, false, time.Second)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	client, err := m.Client(t.Context())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if client.Transport != nil {
		t.Errorf("expected direct client without proxy transport")
	}
}

func TestClientUsesProxy(t *testing.T) {
	m, err := New([]string{"socks5://127.0.0.1:1080"}, false, time.Second)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	client, err := m.Client(t.Context())
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if client.Transport == nil {
		t.Errorf("expected client with proxy transport")
	}
}

func TestGetProxyNoneConfigured(t *testing.T) {
	m, err := New(nil, false, time.Second)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.GetProxy(t.Context()); !errors.Is(err, errs.ErrNoProxiesAvailable) {
		t.Errorf("expected ErrNoProxiesAvailable, got %v", err)
	}
}

func TestGetProxyUnhealthyFiltered(t *testing.T) {
	// Nothing listens on this port, so the health check must fail.
	m, err := New([]string{"socks5://127.0.0.1:1"}, true, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	if _, err := m.GetProxy(t.Context()); !errors.Is(err, errs.ErrNoProxiesAvailable) {
		t.Errorf("expected ErrNoProxiesAvailable, got %v", err)
	}
}
