package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/track"
)

// Session is the subset of the session manager driven by the shell.
type Session interface {
	State() state.State
	SetMode(mode state.Mode)
	SetText(text string)
	SetField(f state.Field, value string)
	SetInstrument(i int, value string) error
	AddInstrument() int
	Compose() (string, error)
	Submit(ctx context.Context) (track.Track, error)
	Next() (track.Track, bool)
	Prev() (track.Track, bool)
}

const shellHelp = `commands:
  mode prompt|detail        switch input mode
  text <words>              set the free-form description (prompt mode)
  genre|mood|lyrics|other <value>
                            set a structured field (detail mode)
  instrument <n> <value>    set instrument slot n
  add-instrument            add an instrument slot
  compose                   show the prompt built from the fields
  submit                    generate music from the current mode's input
  next | prev               move through the playlist
  list                      show the playlist
  now                       show the current track
  show                      show the current input
  help                      show this help
  quit                      leave the session`

// Shell runs an interactive, line-oriented session.
type Shell struct {
	session Session
	term    *Terminal
}

// NewShell creates a new shell.
func NewShell(session Session, term *Terminal) *Shell {
	return &Shell{session: session, term: term}
}

// Run reads commands from in until quit, EOF or ctx is done.
// Lines are read on a separate goroutine so that cancellation is observed
// while waiting for input.
func (sh *Shell) Run(ctx context.Context, in io.Reader) error {
	sh.term.Info(`type "help" for commands`)

	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	for {
		if sh.term.Interactive() {
			fmt.Fprint(sh.term.out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			zlog.Debug().Msg("shell stopped by context")
			return nil
		case l, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					return errors.Wrap(err, "failed to read input")
				}
				return nil
			}
			line = l
		}

		quit, err := sh.Exec(ctx, line)
		if err != nil {
			sh.term.Alert(err.Error())
		}
		if quit {
			return nil
		}
	}
}

// readLines scans in until EOF or done is closed. The scan error, if any,
// is sent on the second channel before lines is closed.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()
	return lines, readErr
}

// Exec runs a single command line. Failures already alerted by the session
// are not returned; only usage errors are.
func (sh *Shell) Exec(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	zlog.Debug().Msgf("shell command: %s", cmd)

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "help":
		sh.term.Println(shellHelp)
	case "mode":
		mode, ok := state.ParseMode(arg)
		if !ok {
			return false, errors.Newf("unknown mode %q (use prompt or detail)", arg)
		}
		sh.session.SetMode(mode)
		sh.term.Inputs(sh.session.State())
	case "text":
		sh.session.SetText(arg)
	case "genre", "mood", "lyrics", "other":
		f, _ := state.ParseField(cmd)
		sh.session.SetField(f, arg)
	case "instrument":
		idx, value, ok := strings.Cut(arg, " ")
		n, convErr := strconv.Atoi(idx)
		if !ok || convErr != nil || n < 1 {
			return false, errors.New("usage: instrument <n> <value>")
		}
		if err := sh.session.SetInstrument(n-1, strings.TrimSpace(value)); err != nil {
			return false, err
		}
	case "add-instrument":
		n := sh.session.AddInstrument()
		sh.term.Info(fmt.Sprintf("instrument slot %d added", n+1))
	case "compose":
		p, err := sh.session.Compose()
		if err != nil {
			return false, err
		}
		sh.term.Println(p)
	case "submit":
		// The session alerts on failure and the store listener renders success.
		_, _ = sh.session.Submit(ctx)
	case "next":
		if _, ok := sh.session.Next(); !ok {
			sh.term.Info("playlist is empty")
		}
	case "prev":
		if _, ok := sh.session.Prev(); !ok {
			sh.term.Info("playlist is empty")
		}
	case "list":
		sh.term.Playlist(sh.session.State())
	case "now":
		sh.term.NowPlaying(sh.session.State())
	case "show":
		sh.term.Inputs(sh.session.State())
	default:
		return false, errors.Newf("unknown command %q", cmd)
	}
	return false, nil
}
