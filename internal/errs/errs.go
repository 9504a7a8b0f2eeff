// Package errs defines common error variables used across the application.
package errs

import "errors"

var (
	// ErrServiceClosed indicates that the service is shutting down and cannot accept new jobs.
	ErrServiceClosed = errors.New("service is closed")
	// ErrInvalidRequestBody indicates that the request body is invalid or cannot be parsed.
	ErrInvalidRequestBody = errors.New("invalid request body")
)

// Request validation errors.
var (
	// ErrMissingTarget indicates that neither a username nor explicit URLs were supplied.
	ErrMissingTarget = errors.New("either username or urls must be set")
	// ErrInvalidCount indicates that the requested count is negative.
	ErrInvalidCount = errors.New("count must be non-negative")
	// ErrInvalidURL indicates that one of the supplied URLs is invalid.
	ErrInvalidURL = errors.New("invalid url")
)

// Job and storage errors.
var (
	// ErrNoJobs indicates that there are no jobs in storage.
	ErrNoJobs = errors.New("no jobs")
	// ErrJobNotFound indicates that no job exists for the given session.
	ErrJobNotFound = errors.New("job not found")
	// ErrSessionEmpty indicates that the session identifier is empty.
	ErrSessionEmpty = errors.New("session id is empty")
)

// Discovery errors. A discovery failure is fatal to its job; the job ends
// with zero successes and a single terminal notice.
var (
	// ErrDiscoveryFailed indicates that the profile page could not be rendered.
	ErrDiscoveryFailed = errors.New("discovery failed")
)

// Resolution errors. All are scoped to a single link; the per-link loop
// records the failure and continues.
var (
	// ErrNoCandidateFound indicates that the resolution service returned no usable candidate.
	ErrNoCandidateFound = errors.New("no candidate found")
	// ErrTransport indicates a network or timeout failure talking to the resolution service.
	ErrTransport = errors.New("transport error")
	// ErrMalformedResponse indicates that the resolution service returned an unparseable payload.
	ErrMalformedResponse = errors.New("malformed response")
)

// Fetch and upload errors, scoped to a single link.
var (
	// ErrDownloadFailed indicates that the media payload could not be downloaded.
	ErrDownloadFailed = errors.New("download failed")
	// ErrUploadFailed indicates that the storage backend rejected the upload.
	ErrUploadFailed = errors.New("upload failed")
)

// Proxy errors.
var (
	// ErrNoProxiesAvailable indicates that no healthy proxies are available.
	ErrNoProxiesAvailable = errors.New("no proxies available")
)
