// Package entity defines the core entities used in the application.
package entity

import (
	"log/slog"
	"time"
)

// JobStatus represents the status of an archiving job.
type JobStatus string

const (
	// JobStatusStarting indicates that the job is accepted and is about to start.
	JobStatusStarting JobStatus = "starting"
	// JobStatusDiscovering indicates that the profile page is being rendered.
	JobStatusDiscovering JobStatus = "discovering"
	// JobStatusProcessing indicates that discovered links are being processed.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusFinished indicates that the job has finished. Individual links
	// may still have failed; see the per-link outcomes.
	JobStatusFinished JobStatus = "finished"
	// JobStatusError indicates that the job failed before any link could be
	// processed, e.g. the profile page could not be rendered.
	JobStatusError JobStatus = "error"
)

// Job represents one archive run: discover a user's video posts, resolve
// each to a downloadable media URL, fetch it and upload it to the storage
// backend. A job lives for the duration of the run plus a record TTL.
type Job struct {
	SessionID string        `json:"sessionId"`
	Username  string        `json:"username,omitempty"`
	URLs      []string      `json:"urls,omitempty"`
	Count     int           `json:"count"`
	Status    JobStatus     `json:"status"`
	Outcomes  []LinkOutcome `json:"outcomes,omitempty"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (j Job) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("session_id", j.SessionID),
		slog.String("username", j.Username),
		slog.Int("count", j.Count),
		slog.String("status", string(j.Status)),
		slog.Int("succeeded", j.Succeeded),
		slog.Int("failed", j.Failed),
	)
}

// LinkOutcome is the recorded result for a single discovered link. A job
// never aborts on a failed link; it accumulates one outcome per link and
// degrades to partial success.
type LinkOutcome struct {
	Position int    `json:"position"` // 1-indexed within the job
	URL      string `json:"url"`
	RemoteID string `json:"remoteId,omitempty"`
	Reason   string `json:"reason,omitempty"`
	OK       bool   `json:"ok"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (o LinkOutcome) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("position", o.Position),
		slog.String("url", o.URL),
		slog.String("remote_id", o.RemoteID),
		slog.String("reason", o.Reason),
		slog.Bool("ok", o.OK),
	)
}

// ProgressEvent is one message published by a running pipeline. Ownership
// transfers to the bus at publish time; a subscriber only observes events
// published while it was attached.
type ProgressEvent struct {
	Session  string `json:"session"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
}
