package state

import (
	"github.com/osa030/metatune/internal/domain/playlist"
	"github.com/osa030/metatune/internal/domain/prompt"
	"github.com/osa030/metatune/internal/domain/track"
)

// State is a snapshot of the whole session.
// States are values; the reducer never mutates its input.
type State struct {
	Mode     Mode
	Text     string        // Free-form input
	Fields   prompt.Fields // Structured input
	Phase    Phase
	TaskID   string // Deferred task being polled
	Prompt   string // Last submitted prompt
	Error    string // Message of the last failure
	Playlist playlist.Playlist
}

// Initial returns the state of a fresh session.
func Initial() State {
	return State{
		Mode:     ModePrompt,
		Fields:   prompt.NewFields(),
		Phase:    PhaseIdle,
		Playlist: playlist.New(),
	}
}

// InFlight reports whether a generation attempt is running.
func (s State) InFlight() bool {
	return s.Phase.InFlight()
}

// CurrentTrack returns the track under the playlist cursor.
func (s State) CurrentTrack() (track.Track, bool) {
	return s.Playlist.Current()
}
