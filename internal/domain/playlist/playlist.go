// Package playlist provides the Playlist domain aggregate.
package playlist

import "github.com/osa030/metatune/internal/domain/track"

// Playlist is an append-only sequence of tracks together with the cursor
// pointing at the entry being played.
//
// Playlist is a value type: every mutation returns a new Playlist and leaves
// the receiver untouched. The cursor is a valid index whenever the playlist is
// non-empty and zero otherwise.
type Playlist struct {
	tracks []track.Track
	index  int
}

// New creates a playlist from the given tracks with the cursor on the first entry.
func New(tracks ...track.Track) Playlist {
	cp := make([]track.Track, len(tracks))
	copy(cp, tracks)
	return Playlist{tracks: cp}
}

// Len returns the number of tracks.
func (p Playlist) Len() int {
	return len(p.tracks)
}

// IsEmpty reports whether the playlist has no tracks.
func (p Playlist) IsEmpty() bool {
	return len(p.tracks) == 0
}

// Index returns the cursor position.
func (p Playlist) Index() int {
	return p.index
}

// Tracks returns a copy of all tracks in insertion order.
func (p Playlist) Tracks() []track.Track {
	out := make([]track.Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

// Current returns the track under the cursor.
func (p Playlist) Current() (track.Track, bool) {
	if p.IsEmpty() {
		return track.Track{}, false
	}
	return p.tracks[p.index], true
}

// NextPosition returns the 1-based position the next appended track will occupy.
func (p Playlist) NextPosition() int {
	return len(p.tracks) + 1
}

// Append adds a track at the end and moves the cursor onto it.
func (p Playlist) Append(t track.Track) Playlist {
	tracks := make([]track.Track, len(p.tracks), len(p.tracks)+1)
	copy(tracks, p.tracks)
	tracks = append(tracks, t)
	return Playlist{
		tracks: tracks,
		index:  len(tracks) - 1,
	}
}

// Next advances the cursor, wrapping from the last entry to the first.
func (p Playlist) Next() Playlist {
	return p.Move(1)
}

// Prev moves the cursor back, wrapping from the first entry to the last.
func (p Playlist) Prev() Playlist {
	return p.Move(-1)
}

// Move shifts the cursor by delta positions with circular wrap-around.
// Moving an empty playlist is a no-op.
func (p Playlist) Move(delta int) Playlist {
	n := len(p.tracks)
	if n == 0 {
		return p
	}
	idx := ((p.index+delta)%n + n) % n
	return Playlist{tracks: p.tracks, index: idx}
}
