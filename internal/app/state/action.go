package state

// Action describes a state change.
type Action interface {
	Name() string
}

// ModeChanged switches between free-form and structured input.
type ModeChanged struct{ Mode Mode }

// TextChanged replaces the free-form input.
type TextChanged struct{ Text string }

// FieldChanged replaces a single-valued structured field.
type FieldChanged struct {
	Field Field
	Value string
}

// InstrumentChanged replaces the instrument slot at Index.
type InstrumentChanged struct {
	Index int
	Value string
}

// InstrumentAdded appends an empty instrument slot.
type InstrumentAdded struct{}

// SubmitStarted begins a generation attempt for Prompt.
type SubmitStarted struct{ Prompt string }

// TaskAccepted records that the service deferred the attempt.
type TaskAccepted struct{ TaskID string }

// TrackGenerated completes the attempt with a new track.
// Empty Title and Source are replaced by the playlist defaults.
type TrackGenerated struct {
	URL    string
	Title  string
	Source string
}

// SubmitFailed ends the attempt with a user-visible message.
type SubmitFailed struct{ Message string }

// Navigated moves the playlist cursor by Delta with wrap-around.
type Navigated struct{ Delta int }

func (ModeChanged) Name() string       { return "mode_changed" }
func (TextChanged) Name() string       { return "text_changed" }
func (FieldChanged) Name() string      { return "field_changed" }
func (InstrumentChanged) Name() string { return "instrument_changed" }
func (InstrumentAdded) Name() string   { return "instrument_added" }
func (SubmitStarted) Name() string     { return "submit_started" }
func (TaskAccepted) Name() string      { return "task_accepted" }
func (TrackGenerated) Name() string    { return "track_generated" }
func (SubmitFailed) Name() string      { return "submit_failed" }
func (Navigated) Name() string         { return "navigated" }
