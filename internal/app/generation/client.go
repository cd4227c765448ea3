// Package generation submits prompts to the music generation service and
// appends the results to the session playlist.
package generation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/track"
	"github.com/osa030/metatune/internal/infra/metatune"
)

// API is the subset of the MetaTune client used for generation.
type API interface {
	GenerateMusic(ctx context.Context, prompt, generator string) (*metatune.GenerateResult, error)
	TaskStatus(ctx context.Context, taskID string) (*metatune.TaskStatus, error)
}

// Store receives the state transitions of each attempt.
type Store interface {
	Dispatch(a state.Action) bool
	State() state.State
}

// Config holds generation client configuration.
type Config struct {
	Generator       string        // Generator selector sent with every request
	PollInterval    time.Duration // Delay before each task status poll
	MaxPollAttempts int           // Polls before giving up with ErrPollTimeout
	// Describe renders a failure for SubmitFailed; defaults to err.Error().
	Describe func(err error) string
}

// Client submits prompts one at a time.
type Client struct {
	api      API
	store    Store
	config   Config
	inFlight atomic.Bool
}

// New creates a new generation client.
func New(api API, store Store, config Config) *Client {
	if config.Generator == "" {
		config.Generator = "suno"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.MaxPollAttempts <= 0 {
		config.MaxPollAttempts = 60
	}
	if config.Describe == nil {
		config.Describe = func(err error) string { return err.Error() }
	}
	return &Client{
		api:    api,
		store:  store,
		config: config,
	}
}

// InFlight reports whether a submission is running.
func (c *Client) InFlight() bool {
	return c.inFlight.Load()
}

// Submit generates a track for prompt and appends it to the playlist.
// Only one submission runs at a time; a concurrent call fails with
// ErrInFlight without contacting the service.
func (c *Client) Submit(ctx context.Context, prompt string) (track.Track, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return track.Track{}, ErrInFlight
	}
	defer c.inFlight.Store(false)

	if !c.store.Dispatch(state.SubmitStarted{Prompt: prompt}) {
		return track.Track{}, ErrInFlight
	}

	zlog.Info().Msgf("submitting prompt: generator=%s prompt=%q", c.config.Generator, prompt)

	t, err := c.run(ctx, prompt)
	if err != nil {
		zlog.Error().Msgf("music generation failed: %v", err)
		c.store.Dispatch(state.SubmitFailed{Message: c.config.Describe(err)})
		return track.Track{}, err
	}

	zlog.Info().Msgf("track generated: title=%q source=%q url=%s", t.Title, t.Source, t.URL)
	return t, nil
}

func (c *Client) run(ctx context.Context, prompt string) (track.Track, error) {
	res, err := c.api.GenerateMusic(ctx, prompt, c.config.Generator)
	if err != nil {
		return track.Track{}, classify(err)
	}

	clip := res.Clip
	if res.Deferred() {
		zlog.Info().Msgf("generation deferred: task_id=%s", res.TaskID)
		c.store.Dispatch(state.TaskAccepted{TaskID: res.TaskID})

		clip, err = c.poll(ctx, res.TaskID)
		if err != nil {
			return track.Track{}, err
		}
	}
	if clip == nil || clip.URL == "" {
		return track.Track{}, ErrInvalidResponse
	}

	return c.complete(clip)
}

// poll waits for the deferred task to finish.
func (c *Client) poll(ctx context.Context, taskID string) (*metatune.Clip, error) {
	for attempt := 1; attempt <= c.config.MaxPollAttempts; attempt++ {
		timer := time.NewTimer(c.config.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		st, err := c.api.TaskStatus(ctx, taskID)
		if err != nil {
			return nil, classify(err)
		}

		switch st.State {
		case metatune.TaskPending:
			zlog.Debug().Msgf("task pending: task_id=%s attempt=%d/%d", taskID, attempt, c.config.MaxPollAttempts)
		case metatune.TaskDone:
			return st.Clip, nil
		case metatune.TaskFailed:
			return nil, &FailedError{Detail: st.Detail}
		default:
			return nil, errors.Wrapf(ErrInvalidResponse, "task state %s", st.State)
		}
	}
	return nil, errors.Wrapf(ErrPollTimeout, "task %s after %d attempts", taskID, c.config.MaxPollAttempts)
}

// complete appends the clip and returns the resulting track.
func (c *Client) complete(clip *metatune.Clip) (track.Track, error) {
	if !c.store.Dispatch(state.TrackGenerated{
		URL:    clip.URL,
		Title:  clip.Title,
		Source: clip.Source,
	}) {
		return track.Track{}, errors.New("generation attempt is no longer active")
	}

	// Appends only happen here and submissions are serialized, so the last
	// track is the one just added.
	tracks := c.store.State().Playlist.Tracks()
	return tracks[len(tracks)-1], nil
}
