package resolve

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/errs"
)

const testLink = "https://www.tiktok.com/@alice/video/111"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	return New(log, config.Resolve{Endpoint: srv.URL, Timeout: 5 * time.Second}, srv.Client())
}

func TestResolveRequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("X-Requested-With"); got != "XMLHttpRequest" {
			t.Errorf("expected XMLHttpRequest header, got %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostForm.Get("query"); got != testLink {
			t.Errorf("expected query %q, got %q", testLink, got)
		}

		w.Write([]byte(`{"links":[{"a":"https://cdn.example.com/v.mp4","t":"HD Original","s":"12 MB"}]}`))
	})

	res, err := c.Resolve(t.Context(), testLink)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if res.MediaURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("unexpected media url: %q", res.MediaURL)
	}
	if res.Degraded {
		t.Errorf("expected non-degraded resolution")
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantErr: errs.ErrTransport,
		},
		{
			name: "unparseable payload",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`<html>not json</html>`))
			},
			wantErr: errs.ErrMalformedResponse,
		},
		{
			name: "empty candidate list",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"links":[]}`))
			},
			wantErr: errs.ErrNoCandidateFound,
		},
		{
			name: "candidates without urls",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"links":[{"t":"HD Original"},{"s":"1080p"}]}`))
			},
			wantErr: errs.ErrNoCandidateFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.Resolve(t.Context(), testLink)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		name         string
		cands        []candidate
		wantURL      string
		wantDegraded bool
		wantErr      error
	}{
		{
			name: "hd tag wins over earlier candidates",
			cands: []candidate{
				{URL: "https://cdn.example.com/sd.mp4", QualityTag: "Watermarked"},
				{URL: "https://cdn.example.com/hd.mp4", QualityTag: "HD Original MP4"},
			},
			wantURL: "https://cdn.example.com/hd.mp4",
		},
		{
			name: "1080 size hint wins",
			cands: []candidate{
				{URL: "https://cdn.example.com/sd.mp4", SizeHint: "720p / 4 MB"},
				{URL: "https://cdn.example.com/fhd.mp4", SizeHint: "1080p / 9 MB"},
			},
			wantURL: "https://cdn.example.com/fhd.mp4",
		},
		{
			name: "first usable fallback is degraded",
			cands: []candidate{
				{QualityTag: "HD Original"}, // no url, unusable
				{URL: "https://cdn.example.com/sd.mp4", QualityTag: "Watermarked"},
				{URL: "https://cdn.example.com/sd2.mp4", QualityTag: "Watermarked"},
			},
			wantURL:      "https://cdn.example.com/sd.mp4",
			wantDegraded: true,
		},
		{
			name:    "empty list",
			cands:   nil,
			wantErr: errs.ErrNoCandidateFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := pick(tt.cands)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("pick failed: %v", err)
			}
			if res.MediaURL != tt.wantURL {
				t.Errorf("expected %q, got %q", tt.wantURL, res.MediaURL)
			}
			if res.Degraded != tt.wantDegraded {
				t.Errorf("expected degraded=%v, got %v", tt.wantDegraded, res.Degraded)
			}
		})
	}
}
