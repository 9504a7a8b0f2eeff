// Package gen provides utility functions for generating values.
package gen

import (
	"fmt"

	"github.com/google/uuid"
)

// SessionID generates an opaque session token for one pipeline run.
func SessionID() string {
	return uuid.NewString()
}

// FileName builds the upload name for the idx-th video of an owner.
// idx is 1-indexed. An empty owner falls back to "video".
func FileName(owner string, idx int) string {
	if owner == "" {
		owner = "video"
	}

	return fmt.Sprintf("%s_%d.mp4", owner, idx)
}
