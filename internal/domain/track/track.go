// Package track provides the Track domain entity.
package track

import "fmt"

// DefaultSource is the provenance label used when the service omits one.
const DefaultSource = "from MetaTune"

// Track represents a generated audio clip.
// Tracks are immutable once created.
type Track struct {
	URL    string // Audio resource location
	Title  string // Display name
	Source string // Provenance label (e.g. "from Suno")
}

// New creates a track for the given playlist position (1-based).
// Empty title and source fall back to the session defaults.
func New(url, title, source string, position int) Track {
	if title == "" {
		title = DefaultTitle(position)
	}
	if source == "" {
		source = DefaultSource
	}
	return Track{
		URL:    url,
		Title:  title,
		Source: source,
	}
}

// DefaultTitle returns the ordinal title for the given 1-based position.
func DefaultTitle(position int) string {
	return fmt.Sprintf("Generated Song #%d", position)
}

// IsZero reports whether the track carries no audio location.
func (t Track) IsZero() bool {
	return t.URL == ""
}
