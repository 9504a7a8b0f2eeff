// Package uploader provides the cloud storage capability: persist a media
// payload under a name, optionally inside a configured destination
// collection, and return the remote identifier.
package uploader

import (
	"context"
	"io"
)

// Uploader stores one payload per call. Implementations hold no cross-call
// mutable state, so a single instance is shared by all concurrent jobs.
type Uploader interface {
	Store(ctx context.Context, r io.Reader, name string) (string, error)
}
