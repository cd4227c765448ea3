package state

import "github.com/osa030/metatune/internal/domain/track"

// Reduce applies a to s and returns the next state.
// The boolean is false when the action does not apply to s (for example a
// second SubmitStarted while an attempt is in flight); s is returned as is.
func Reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case ModeChanged:
		s.Mode = a.Mode
	case TextChanged:
		s.Text = a.Text
	case FieldChanged:
		switch a.Field {
		case FieldGenre:
			s.Fields.Genre = a.Value
		case FieldMood:
			s.Fields.Mood = a.Value
		case FieldLyrics:
			s.Fields.Lyrics = a.Value
		case FieldOther:
			s.Fields.Other = a.Value
		default:
			return s, false
		}
	case InstrumentChanged:
		if a.Index < 0 || a.Index >= len(s.Fields.Instruments) {
			return s, false
		}
		s.Fields = s.Fields.WithInstrument(a.Index, a.Value)
	case InstrumentAdded:
		s.Fields = s.Fields.WithNewInstrument()

	case SubmitStarted:
		if s.InFlight() {
			return s, false
		}
		s.Phase = PhaseSubmitting
		s.Prompt = a.Prompt
		s.TaskID = ""
		s.Error = ""
	case TaskAccepted:
		if s.Phase != PhaseSubmitting {
			return s, false
		}
		s.Phase = PhasePolling
		s.TaskID = a.TaskID
	case TrackGenerated:
		if !s.InFlight() {
			return s, false
		}
		t := track.New(a.URL, a.Title, a.Source, s.Playlist.NextPosition())
		s.Playlist = s.Playlist.Append(t)
		s.Phase = PhaseSettled
		s.TaskID = ""
	case SubmitFailed:
		if !s.InFlight() {
			return s, false
		}
		s.Phase = PhaseFailed
		s.TaskID = ""
		s.Error = a.Message

	case Navigated:
		if s.Playlist.IsEmpty() {
			return s, false
		}
		s.Playlist = s.Playlist.Move(a.Delta)
	default:
		return s, false
	}
	return s, true
}
