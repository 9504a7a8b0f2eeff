// Package fetch downloads a resolved media payload and hands it to the
// storage backend. Payloads stream through a scoped temporary file which is
// removed on every exit path; no local artifact outlives a call.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/errs"
	"tokvault/internal/observability"
	"tokvault/internal/proxy"
	"tokvault/internal/uploader"
)

const copyBufSize = 128 * 1024

// Worker downloads and persists one media payload per call. It is safe for
// concurrent use by many job pipelines.
type Worker struct {
	log      *slog.Logger
	proxyMgr *proxy.Manager
	uploader uploader.Uploader
	metrics  *observability.Metrics
	tempDir  string
	timeout  time.Duration
}

// New creates a fetch worker. The temp directory is created if missing.
func New(log *slog.Logger, cfg config.Fetch, proxyMgr *proxy.Manager, up uploader.Uploader, metrics *observability.Metrics) (*Worker, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	return &Worker{
		log:      log.With(slog.String("package", "fetch")),
		proxyMgr: proxyMgr,
		uploader: up,
		metrics:  metrics,
		tempDir:  cfg.TempDir,
		timeout:  cfg.Timeout,
	}, nil
}

// FetchAndStore downloads mediaURL into a temporary file, uploads it under
// name and returns the remote identifier. The temporary file is deleted
// before returning, on success and on every failure path.
func (w *Worker) FetchAndStore(ctx context.Context, mediaURL, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	client, err := w.proxyMgr.Client(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDownloadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDownloadFailed, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: unexpected status %d", errs.ErrDownloadFailed, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(w.tempDir, "tokvault-*.mp4")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", errs.ErrDownloadFailed, err)
	}

	defer func() {
		tmp.Close()

		if err := os.Remove(tmp.Name()); err != nil {
			w.log.ErrorContext(ctx, "remove temp file",
				slog.String("path", tmp.Name()),
				slog.Any("error", err))
		}
	}()

	n, err := io.CopyBuffer(tmp, resp.Body, make([]byte, copyBufSize))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrDownloadFailed, err)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: empty body", errs.ErrDownloadFailed)
	}

	w.metrics.RecordDownloadBytes(n)

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w: rewind temp file: %v", errs.ErrDownloadFailed, err)
	}

	remoteID, err := w.uploader.Store(ctx, tmp, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrUploadFailed, err)
	}

	w.log.DebugContext(ctx, "media stored",
		slog.String("name", name),
		slog.String("remote_id", remoteID),
		slog.Int64("bytes", n))

	return remoteID, nil
}
