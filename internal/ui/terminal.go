// Package ui renders session state and alerts to a terminal and runs the
// interactive session shell.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/track"
	"github.com/osa030/metatune/internal/infra/config"
)

// Options configures a Terminal.
type Options struct {
	Out      io.Writer // defaults to os.Stdout
	Err      io.Writer // defaults to os.Stderr
	NoColor  bool
	Messages config.MessagesConfig
}

// Terminal writes human-readable output.
type Terminal struct {
	out         io.Writer
	err         io.Writer
	messages    config.MessagesConfig
	interactive bool

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	gray   *color.Color
	bold   *color.Color
}

// NewTerminal creates a terminal renderer. Colors are disabled when
// requested or when Out is not a terminal.
func NewTerminal(opts Options) *Terminal {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	t := &Terminal{
		out:         opts.Out,
		err:         opts.Err,
		messages:    opts.Messages,
		interactive: isTerminal(opts.Out),
		green:       color.New(color.FgGreen),
		yellow:      color.New(color.FgYellow),
		red:         color.New(color.FgRed),
		gray:        color.New(color.FgHiBlack),
		bold:        color.New(color.Bold),
	}
	if opts.NoColor || !t.interactive {
		for _, c := range []*color.Color{t.green, t.yellow, t.red, t.gray, t.bold} {
			c.DisableColor()
		}
	}
	return t
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether output goes to a terminal.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Alert shows a message on the error stream.
func (t *Terminal) Alert(message string) {
	fmt.Fprintln(t.err, t.red.Sprint("! "+message))
}

// Println writes a plain line.
func (t *Terminal) Println(a ...any) {
	fmt.Fprintln(t.out, a...)
}

// Info writes a dimmed line.
func (t *Terminal) Info(msg string) {
	fmt.Fprintln(t.out, t.gray.Sprint(msg))
}

// StatusLine returns the progress message for s, or "" when there is none.
func (t *Terminal) StatusLine(s state.State) string {
	switch s.Phase {
	case state.PhaseSubmitting:
		return t.messages.Generating
	case state.PhasePolling:
		return fmt.Sprintf("%s (task %s)", t.messages.Generating, s.TaskID)
	case state.PhaseSettled:
		return t.messages.Completed
	default:
		return ""
	}
}

// OnChange renders state transitions as they happen. It is meant to be
// registered as a store listener.
func (t *Terminal) OnChange(s state.State, a state.Action) {
	switch a.(type) {
	case state.SubmitStarted:
		fmt.Fprintln(t.out, t.gray.Sprint("prompt: "+s.Prompt))
		fmt.Fprintln(t.out, t.yellow.Sprint(t.StatusLine(s)))
	case state.TaskAccepted:
		fmt.Fprintln(t.out, t.yellow.Sprint(t.StatusLine(s)))
	case state.TrackGenerated:
		fmt.Fprintln(t.out, t.green.Sprint(t.StatusLine(s)))
		t.NowPlaying(s)
	case state.Navigated:
		t.NowPlaying(s)
	}
}

// NowPlaying renders the track under the cursor.
func (t *Terminal) NowPlaying(s state.State) {
	cur, ok := s.CurrentTrack()
	if !ok {
		t.Info("playlist is empty")
		return
	}
	t.renderTrack(cur, s.Playlist.Index(), s.Playlist.Len())
}

func (t *Terminal) renderTrack(tr track.Track, index, total int) {
	fmt.Fprintf(t.out, "%s %s\n", t.gray.Sprintf("[%d/%d]", index+1, total), t.bold.Sprint(tr.Title))
	fmt.Fprintf(t.out, "      %s\n", t.gray.Sprint(tr.Source))
	fmt.Fprintf(t.out, "      %s\n", tr.URL)
}

// Playlist renders every track, marking the one under the cursor.
func (t *Terminal) Playlist(s state.State) {
	if s.Playlist.IsEmpty() {
		t.Info("playlist is empty")
		return
	}
	for i, tr := range s.Playlist.Tracks() {
		marker := "  "
		title := tr.Title
		if i == s.Playlist.Index() {
			marker = t.green.Sprint("▶ ")
			title = t.bold.Sprint(title)
		}
		fmt.Fprintf(t.out, "%s%2d. %s %s\n", marker, i+1, title, t.gray.Sprint("("+tr.Source+")"))
	}
}

// Inputs renders the input of the current mode.
func (t *Terminal) Inputs(s state.State) {
	fmt.Fprintf(t.out, "mode: %s\n", t.bold.Sprint(s.Mode))
	if s.Mode == state.ModePrompt {
		fmt.Fprintf(t.out, "  text: %s\n", s.Text)
		return
	}
	fmt.Fprintf(t.out, "  genre:  %s\n", s.Fields.Genre)
	fmt.Fprintf(t.out, "  mood:   %s\n", s.Fields.Mood)
	for i, inst := range s.Fields.Instruments {
		fmt.Fprintf(t.out, "  instrument %d: %s\n", i+1, inst)
	}
	fmt.Fprintf(t.out, "  lyrics: %s\n", s.Fields.Lyrics)
	fmt.Fprintf(t.out, "  other:  %s\n", s.Fields.Other)
}
