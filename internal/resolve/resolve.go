// Package resolve turns a video post URL into a concrete downloadable media
// URL via a third-party resolution service.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tokvault/internal/config"
	"tokvault/internal/errs"
)

const (
	headerRequestedWith = "X-Requested-With"
	valueXMLHTTPRequest = "XMLHttpRequest"

	hdTagMarker      = "HD Original"
	fullHDSizeMarker = "1080"
)

// Resolution is the deterministic pick from the service's candidate list.
// Degraded is set when no HD candidate existed and the first usable one was
// taken instead; it is a notice, never a failure.
type Resolution struct {
	MediaURL string
	Degraded bool
}

// Resolver resolves one post URL per call. Failures are scoped to that call;
// there is no automatic retry.
type Resolver interface {
	Resolve(ctx context.Context, link string) (Resolution, error)
}

// Client talks to a lovetik-style resolution API: a form POST with the post
// URL as query and a header marking the call as script-originated.
type Client struct {
	log      *slog.Logger
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

var _ Resolver = (*Client)(nil)

// New creates a resolution client. The HTTP client is shared; per-call state
// lives in the request.
func New(log *slog.Logger, cfg config.Resolve, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{}
	}

	return &Client{
		log:      log.With(slog.String("package", "resolve")),
		client:   client,
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
	}
}

// candidate is one media descriptor returned by the service. Fields the
// upstream omits stay empty; a candidate without a URL is skipped rather
// than failing the whole response.
type candidate struct {
	URL        string `json:"a"`
	QualityTag string `json:"t"`
	SizeHint   string `json:"s"`
}

type searchResponse struct {
	Links []candidate `json:"links"`
}

// Resolve queries the service for link and picks one candidate. Network and
// timeout failures surface as ErrTransport, unparseable payloads as
// ErrMalformedResponse, an empty candidate list as ErrNoCandidateFound.
func (c *Client) Resolve(ctx context.Context, link string) (Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"query": {link}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Resolution{}, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(headerRequestedWith, valueXMLHTTPRequest)

	resp, err := c.client.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Resolution{}, fmt.Errorf("%w: unexpected status %d", errs.ErrTransport, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", errs.ErrMalformedResponse, err)
	}

	res, err := pick(body.Links)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %q: %w", link, err)
	}

	c.log.DebugContext(ctx, "link resolved",
		slog.String("link", link),
		slog.Bool("degraded", res.Degraded))

	return res, nil
}

// pick applies the quality-preference policy: any HD/Original or >=1080p
// candidate wins; otherwise the first usable candidate is taken as a
// degraded best effort; an empty list fails.
func pick(cands []candidate) (Resolution, error) {
	var fallback string

	for _, cand := range cands {
		if cand.URL == "" {
			continue
		}

		if strings.Contains(cand.QualityTag, hdTagMarker) || strings.Contains(cand.SizeHint, fullHDSizeMarker) {
			return Resolution{MediaURL: cand.URL}, nil
		}

		if fallback == "" {
			fallback = cand.URL
		}
	}

	if fallback != "" {
		return Resolution{MediaURL: fallback, Degraded: true}, nil
	}

	return Resolution{}, errs.ErrNoCandidateFound
}
