// Package state provides the session state model: immutable State values,
// the actions that change them, a pure reducer, and a store that serializes
// dispatches and notifies subscribers.
package state

// Phase represents the progress of a single generation attempt.
type Phase int

const (
	PhaseIdle       Phase = iota // No submission yet
	PhaseSubmitting              // Generate request in flight
	PhasePolling                 // Waiting for a deferred task
	PhaseSettled                 // Last attempt produced a track
	PhaseFailed                  // Last attempt failed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhasePolling:
		return "polling"
	case PhaseSettled:
		return "settled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether a generation attempt is running.
func (p Phase) InFlight() bool {
	return p == PhaseSubmitting || p == PhasePolling
}

// Mode represents the input mode.
type Mode int

const (
	ModePrompt Mode = iota // Free-form mood description
	ModeDetail             // Structured fields
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModePrompt:
		return "prompt"
	case ModeDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "prompt":
		return ModePrompt, true
	case "detail":
		return ModeDetail, true
	default:
		return ModePrompt, false
	}
}

// Field identifies a single-valued structured prompt field.
type Field int

const (
	FieldGenre Field = iota
	FieldMood
	FieldLyrics
	FieldOther
)

// String returns the string representation of the field.
func (f Field) String() string {
	switch f {
	case FieldGenre:
		return "genre"
	case FieldMood:
		return "mood"
	case FieldLyrics:
		return "lyrics"
	case FieldOther:
		return "other"
	default:
		return "unknown"
	}
}

// ParseField parses a field name.
func ParseField(s string) (Field, bool) {
	switch s {
	case "genre":
		return FieldGenre, true
	case "mood":
		return FieldMood, true
	case "lyrics":
		return FieldLyrics, true
	case "other":
		return FieldOther, true
	default:
		return FieldGenre, false
	}
}
