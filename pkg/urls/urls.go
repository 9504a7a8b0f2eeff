// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// Canonicalize resolves a possibly-relative reference against the canonical
// origin, so two extractions of the same post always normalize identically.
// It returns an empty string when either part does not parse.
func Canonicalize(origin, ref string) string {
	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		return ""
	}

	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ""
	}

	return base.ResolveReference(r).String()
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}
