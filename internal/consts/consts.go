// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultHandlerTimeout is the default timeout for HTTP handlers.
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultJobTimeout is the default wall-clock budget for one pipeline run.
	DefaultJobTimeout = 30 * time.Minute
	// DefaultLinkCount is the number of links processed when the caller does
	// not request a specific count.
	DefaultLinkCount = 10
	// DefaultResolveTimeout is the default timeout for one resolution call.
	DefaultResolveTimeout = 15 * time.Second
	// DefaultIdleTimeout is how long a progress subscriber waits without a
	// matching event before its stream is closed.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultJobTTL is the default time-to-live for finished job records.
	DefaultJobTTL = 24 * time.Hour
)

// Progress messages. The progress stream is the primary failure-reporting
// channel, so these are written for humans.
const (
	// MsgDone is the terminal sentinel; it is published exactly once per job
	// and tells subscribers to stop waiting.
	MsgDone = "Done!"
	// MsgFoundLinks reports the number of discovered links (count).
	MsgFoundLinks = "Found %d video links"
	// MsgProcessing reports the start of one link (position, total, link).
	MsgProcessing = "Processing video %d/%d: %s"
	// MsgUploaded reports a successful upload (filename, remote id).
	MsgUploaded = "Uploaded %s (%s)"
	// MsgLinkFailed reports a per-link failure (position, reason).
	MsgLinkFailed = "Failed on video %d: %s"
	// MsgDegraded reports a non-fatal quality fallback (position).
	MsgDegraded = "No HD candidate for video %d, using best available"
	// MsgDiscoveryFailed reports a fatal discovery failure (reason).
	MsgDiscoveryFailed = "Discovery failed: %s"
)

// HTTP response messages.
const (
	// RespInvalidRequestBody is returned when the request body is invalid.
	RespInvalidRequestBody = "invalid request body"
	// RespUnprocessableEntity is returned when the request cannot be processed.
	RespUnprocessableEntity = "unprocessable entity"
	// RespQueryParamMissing is returned when a required path or query parameter is missing.
	RespQueryParamMissing = "query param missing or invalid"
	// RespJobStarted is returned when a job is successfully started.
	RespJobStarted = "job started"
	// RespJobStartFail is returned when a job cannot be started.
	RespJobStartFail = "job start failed"
	// RespJobRetrieved is returned when a job is successfully retrieved.
	RespJobRetrieved = "job retrieved"
	// RespJobsRetrieved is returned when jobs are successfully retrieved.
	RespJobsRetrieved = "jobs retrieved"
	// RespJobNotFound is returned when a job is not found.
	RespJobNotFound = "job not found"
	// RespNoJobs is returned when there are no jobs available.
	RespNoJobs = "no jobs"
	// RespGetJobsFail is returned when fetching all jobs fails.
	RespGetJobsFail = "get all jobs failed"
	// RespStreamUnsupported is returned when the connection cannot stream events.
	RespStreamUnsupported = "streaming unsupported"
)
