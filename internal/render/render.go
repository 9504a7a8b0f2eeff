// Package render provides the page-render capability used for discovery.
// The pipeline only depends on the Renderer interface; the HTTP
// implementation here can be swapped for a browser-automation driver
// without touching the pipeline.
package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/proxy"
)

// maxPageSize caps how much rendered content is read per attempt.
const maxPageSize = 16 * 1024 * 1024

// Renderer renders a page and returns its raw content.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// HTTP fetches pages over plain HTTP with browser-like headers. One request
// sequence per discovery; nothing is shared across concurrent jobs except
// the proxy manager, which is stateless per call.
type HTTP struct {
	log      *slog.Logger
	proxyMgr *proxy.Manager
	attempts int
	timeout  time.Duration
}

// NewHTTP creates an HTTP renderer.
func NewHTTP(log *slog.Logger, cfg config.Discover, proxyMgr *proxy.Manager) *HTTP {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	return &HTTP{
		log:      log.With(slog.String("package", "render")),
		proxyMgr: proxyMgr,
		attempts: attempts,
		timeout:  cfg.Timeout,
	}
}

// Render fetches pageURL, retrying up to the configured attempt count.
// Failure here is a hard discovery failure for the calling job.
func (r *HTTP) Render(ctx context.Context, pageURL string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= r.attempts; attempt++ {
		content, err := r.fetch(ctx, pageURL)
		if err == nil {
			return content, nil
		}

		lastErr = err

		r.log.DebugContext(ctx, "render attempt failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("render %q: %w", pageURL, lastErr)
}

func (r *HTTP) fetch(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client, err := r.proxyMgr.Client(ctx)
	if err != nil {
		return "", fmt.Errorf("proxy client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	return string(body), nil
}
