package config

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	if cfg.HTTP.Port != ":8080" {
		t.Errorf("expected default port :8080, got %q", cfg.HTTP.Port)
	}
	if cfg.Job.DefaultCount != 10 {
		t.Errorf("expected default count 10, got %d", cfg.Job.DefaultCount)
	}
	if cfg.Discover.Origin != "https://www.tiktok.com" {
		t.Errorf("unexpected default origin: %q", cfg.Discover.Origin)
	}
	if cfg.Discover.StateScriptID != "SIGI_STATE" {
		t.Errorf("unexpected default state script id: %q", cfg.Discover.StateScriptID)
	}
	if cfg.Bus.Buffer != 16 {
		t.Errorf("expected default bus buffer 16, got %d", cfg.Bus.Buffer)
	}
	if cfg.Bus.IdleTimeout != 60*time.Second {
		t.Errorf("expected default idle timeout 60s, got %v", cfg.Bus.IdleTimeout)
	}
	if !filepath.IsAbs(cfg.Fetch.TempDir) {
		t.Errorf("expected absolute temp dir, got %q", cfg.Fetch.TempDir)
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("TOKVAULT_HTTP_PORT", ":9999")
	t.Setenv("TOKVAULT_JOB_DEFAULT_COUNT", "25")
	t.Setenv("TOKVAULT_RESOLVE_TIMEOUT", "3s")
	t.Setenv("TOKVAULT_STORAGE_BUCKET", "archive")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	if cfg.HTTP.Port != ":9999" {
		t.Errorf("expected port :9999, got %q", cfg.HTTP.Port)
	}
	if cfg.Job.DefaultCount != 25 {
		t.Errorf("expected count 25, got %d", cfg.Job.DefaultCount)
	}
	if cfg.Resolve.Timeout != 3*time.Second {
		t.Errorf("expected resolve timeout 3s, got %v", cfg.Resolve.Timeout)
	}
	if cfg.Storage.Bucket != "archive" {
		t.Errorf("expected bucket archive, got %q", cfg.Storage.Bucket)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	if err := cfg.Validate(); !errors.Is(err, ErrBucketRequired) {
		t.Errorf("expected ErrBucketRequired, got %v", err)
	}

	cfg.Storage.Bucket = "archive"
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestProxyParseList(t *testing.T) {
	tests := []struct {
		name string
		list string
		want []string
	}{
		{
			name: "empty list",
			list: "",
			want: nil,
		},
		{
			name: "single proxy",
			list: "socks5://127.0.0.1:1080",
			want: []string{"socks5://127.0.0.1:1080"},
		},
		{
			name: "spaces and empty entries",
			list: " http://p1:8080 ,, socks5://p2:1080 ,",
			want: []string{"http://p1:8080", "socks5://p2:1080"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Proxy{List: tt.list}
			p.parseList()

			if !slices.Equal(p.Proxies, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, p.Proxies)
			}
		})
	}
}
