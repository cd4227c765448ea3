// Package main provides the MetaTune client entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/metatune/internal/app/session"
	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/prompt"
	"github.com/osa030/metatune/internal/infra/config"
	"github.com/osa030/metatune/internal/infra/logger"
	"github.com/osa030/metatune/internal/infra/metatune"
	"github.com/osa030/metatune/internal/ui"
)

var (
	app        = kingpin.New("metatune", "MetaTune music generation client")
	configPath = app.Flag("config", "Path to config file").Default("config/metatune.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
	noColor    = app.Flag("no-color", "Disable colored output").Bool()

	// session command (default)
	sessionCmd = app.Command("session", "Start an interactive session (default)").Default()

	// prompt command
	promptCmd  = app.Command("prompt", "Generate music from a free-form description")
	promptText = promptCmd.Arg("text", "Mood or scene description").Required().Strings()

	// detail command
	detailCmd         = app.Command("detail", "Generate music from structured fields")
	detailGenre       = detailCmd.Flag("genre", "Genre").String()
	detailMood        = detailCmd.Flag("mood", "Mood").String()
	detailInstruments = detailCmd.Flag("instrument", "Instrument (repeatable)").Strings()
	detailLyrics      = detailCmd.Flag("lyrics", "Lyrics").String()
	detailOther       = detailCmd.Flag("other", "Other details").String()

	// compose command
	composeCmd         = app.Command("compose", "Print the prompt built from structured fields")
	composeGenre       = composeCmd.Flag("genre", "Genre").String()
	composeMood        = composeCmd.Flag("mood", "Mood").String()
	composeInstruments = composeCmd.Flag("instrument", "Instrument (repeatable)").Strings()
	composeLyrics      = composeCmd.Flag("lyrics", "Lyrics").String()
	composeOther       = composeCmd.Flag("other", "Other details").String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Command-line flags override the config file
	logCfg := logger.Config{Level: cfg.Log.Level, File: cfg.Log.File}
	if *verbose {
		logCfg.Level = "debug"
	}
	if *logfile != "" {
		logCfg.File = *logfile
	}
	closer, err := logger.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	zlog.Debug().Msgf("config: base_url=%s generator=%s", cfg.API.BaseURL, cfg.Generation.Generator)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// After the first signal, restore the default behavior so a second one kills the process.
	context.AfterFunc(ctx, stop)

	if err := run(ctx, cfg, command); err != nil {
		zlog.Debug().Msgf("%s failed: %+v", command, err)
		stop()
		closer.Close()
		os.Exit(1)
	}
}

// run executes the selected command. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(ctx context.Context, cfg *config.Config, command string) error {
	term := ui.NewTerminal(ui.Options{
		NoColor:  *noColor,
		Messages: cfg.Messages,
	})

	if command == composeCmd.FullCommand() {
		p, err := prompt.Compose(fieldsFromFlags(*composeGenre, *composeMood, *composeInstruments, *composeLyrics, *composeOther))
		if err != nil {
			term.Alert(cfg.Messages.EmptyFields)
			return err
		}
		term.Println(p)
		return nil
	}

	client, err := metatune.New(metatune.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.Timeout(),
	})
	if err != nil {
		term.Alert(err.Error())
		return errors.Wrap(err, "failed to create metatune client")
	}

	mgr := session.NewManager(cfg, client, term)
	mgr.Subscribe(term.OnChange)

	switch command {
	case promptCmd.FullCommand():
		mgr.SetText(strings.Join(*promptText, " "))
		_, err = mgr.SubmitText(ctx)
		return err
	case detailCmd.FullCommand():
		mgr.SetMode(state.ModeDetail)
		mgr.SetFields(fieldsFromFlags(*detailGenre, *detailMood, *detailInstruments, *detailLyrics, *detailOther))
		_, err = mgr.SubmitFields(ctx)
		return err
	case sessionCmd.FullCommand():
		zlog.Info().Msgf("Session started: id=%s", mgr.ID())
		return ui.NewShell(mgr, term).Run(ctx, os.Stdin)
	}
	return errors.Newf("unknown command %q", command)
}

func fieldsFromFlags(genre, mood string, instruments []string, lyrics, other string) prompt.Fields {
	f := prompt.NewFields()
	f.Genre = genre
	f.Mood = mood
	if len(instruments) > 0 {
		f.Instruments = instruments
	}
	f.Lyrics = lyrics
	f.Other = other
	return f
}
