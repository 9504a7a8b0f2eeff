// Package extract turns rendered profile content into a deduplicated,
// order-preserving, length-capped sequence of canonical video post URLs.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"tokvault/pkg/urls"
)

const (
	videoPathMarker = "/video/"
	userPostListKey = "user-post"
)

// Extractor scans rendered profile content for video post links. It is a
// pure function over its input; two calls with the same content and count
// yield identical sequences.
type Extractor struct {
	origin        string
	stateScriptID string
}

// New creates an extractor normalizing links against origin and preferring
// the embedded-state script tag with the given DOM id.
func New(origin, stateScriptID string) *Extractor {
	return &Extractor{
		origin:        origin,
		stateScriptID: stateScriptID,
	}
}

// Links extracts up to maxCount canonical video post URLs from content.
// The embedded-state payload is preferred when present and parseable, since
// anchor scraping is layout-fragile; anchors are the fallback. Zero links is
// not an error here; the caller decides how to react. maxCount <= 0 yields
// an empty sequence.
func (e *Extractor) Links(content string, maxCount int) []string {
	if maxCount <= 0 {
		return nil
	}

	links := e.fromEmbeddedState(content)
	if len(links) == 0 {
		links = e.fromAnchors(content)
	}

	return dedupe(links, maxCount)
}

// embeddedState is the subset of the profile page's state payload needed to
// synthesize post links. Missing keys leave their fields zero-valued; the
// absence policy is to skip the affected post, never to fail extraction.
type embeddedState struct {
	ItemList map[string]struct {
		List []string `json:"list"`
	} `json:"ItemList"`
	ItemModule map[string]struct {
		ID     string `json:"id"`
		Author string `json:"author"`
	} `json:"ItemModule"`
}

func (e *Extractor) fromEmbeddedState(content string) []string {
	payload := scriptPayload(content, e.stateScriptID)
	if payload == "" {
		return nil
	}

	var state embeddedState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil
	}

	ids := state.ItemList[userPostListKey].List

	links := make([]string, 0, len(ids))

	for _, id := range ids {
		mod, ok := state.ItemModule[id]
		if !ok || mod.Author == "" {
			continue
		}

		links = append(links, fmt.Sprintf("%s/@%s%s%s", e.origin, mod.Author, videoPathMarker, id))
	}

	return links
}

// scriptPayload returns the text of the script tag with the given DOM id.
func scriptPayload(content, scriptID string) string {
	z := html.NewTokenizer(strings.NewReader(content))

	inTarget := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			tok := z.Token()
			inTarget = tok.DataAtom == atom.Script && attr(tok, "id") == scriptID
		case html.TextToken:
			if inTarget {
				return z.Token().Data
			}
		case html.EndTagToken:
			inTarget = false
		}
	}
}

func (e *Extractor) fromAnchors(content string) []string {
	z := html.NewTokenizer(strings.NewReader(content))

	var links []string

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return links
		}

		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}

		tok := z.Token()
		if tok.DataAtom != atom.A {
			continue
		}

		href := attr(tok, "href")
		if !strings.Contains(href, videoPathMarker) {
			continue
		}

		if link := urls.Canonicalize(e.origin, href); link != "" {
			links = append(links, link)
		}
	}
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Key == name {
			return a.Val
		}
	}

	return ""
}

// dedupe keeps the first occurrence of each link, preserves relative order
// and truncates to maxCount.
func dedupe(links []string, maxCount int) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, min(len(links), maxCount))

	for _, link := range links {
		if _, ok := seen[link]; ok {
			continue
		}

		seen[link] = struct{}{}

		out = append(out, link)
		if len(out) == maxCount {
			break
		}
	}

	return out
}
