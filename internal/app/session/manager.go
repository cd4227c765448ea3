// Package session provides the user-facing session: input editing,
// submission, playlist navigation and alerting.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/metatune/internal/app/composer"
	"github.com/osa030/metatune/internal/app/generation"
	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/prompt"
	"github.com/osa030/metatune/internal/domain/track"
	"github.com/osa030/metatune/internal/infra/config"
)

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// API is the remote service used by a session.
type API interface {
	composer.Transformer
	generation.API
}

// Manager manages a single user session.
type Manager struct {
	id        string
	store     *state.Store
	composer  *composer.Composer
	generator *generation.Client
	alerter   Alerter
	messages  config.MessagesConfig

	// Held from composing the prompt until generation settles.
	submitting atomic.Bool
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, api API, alerter Alerter) *Manager {
	m := &Manager{
		id:       uuid.New().String(),
		store:    state.NewStore(state.Initial()),
		composer: composer.New(api, cfg.Messages.TransformFailed),
		alerter:  alerter,
		messages: cfg.Messages,
	}
	m.generator = generation.New(api, m.store, generation.Config{
		Generator:       cfg.Generation.Generator,
		PollInterval:    cfg.PollInterval(),
		MaxPollAttempts: cfg.Generation.MaxPollAttempts,
		Describe:        m.Describe,
	})

	zlog.Debug().Msgf("session created: id=%s generator=%s", m.id, cfg.Generation.Generator)
	return m
}

// ID returns the session ID.
func (m *Manager) ID() string {
	return m.id
}

// State returns the current session state.
func (m *Manager) State() state.State {
	return m.store.State()
}

// Subscribe registers a listener for state changes.
func (m *Manager) Subscribe(l state.Listener) string {
	return m.store.Subscribe(l)
}

// Unsubscribe removes a state listener.
func (m *Manager) Unsubscribe(id string) {
	m.store.Unsubscribe(id)
}

// SetMode switches the input mode.
func (m *Manager) SetMode(mode state.Mode) {
	m.store.Dispatch(state.ModeChanged{Mode: mode})
}

// SetText replaces the free-form input.
func (m *Manager) SetText(text string) {
	m.store.Dispatch(state.TextChanged{Text: text})
}

// SetField replaces a structured field.
func (m *Manager) SetField(f state.Field, value string) {
	m.store.Dispatch(state.FieldChanged{Field: f, Value: value})
}

// SetInstrument replaces the instrument slot at index i.
func (m *Manager) SetInstrument(i int, value string) error {
	if !m.store.Dispatch(state.InstrumentChanged{Index: i, Value: value}) {
		return errors.Newf("no instrument slot %d", i+1)
	}
	return nil
}

// AddInstrument appends an empty instrument slot and returns its index.
func (m *Manager) AddInstrument() int {
	m.store.Dispatch(state.InstrumentAdded{})
	return len(m.store.State().Fields.Instruments) - 1
}

// SetFields replaces all structured fields at once.
func (m *Manager) SetFields(f prompt.Fields) {
	m.SetField(state.FieldGenre, f.Genre)
	m.SetField(state.FieldMood, f.Mood)
	m.SetField(state.FieldLyrics, f.Lyrics)
	m.SetField(state.FieldOther, f.Other)
	for i, inst := range f.Instruments {
		if i >= len(m.store.State().Fields.Instruments) {
			m.AddInstrument()
		}
		_ = m.SetInstrument(i, inst)
	}
}

// Submit submits the input of the current mode.
func (m *Manager) Submit(ctx context.Context) (track.Track, error) {
	if m.store.State().Mode == state.ModeDetail {
		return m.SubmitFields(ctx)
	}
	return m.SubmitText(ctx)
}

// SubmitText transforms the free-form input into a prompt and generates a track.
func (m *Manager) SubmitText(ctx context.Context) (track.Track, error) {
	release, err := m.begin()
	if err != nil {
		return track.Track{}, err
	}
	defer release()

	p, err := m.composer.FromText(ctx, m.store.State().Text)
	if err != nil {
		return track.Track{}, m.fail(err)
	}
	return m.generate(ctx, p)
}

// SubmitFields composes the structured fields into a prompt and generates a track.
func (m *Manager) SubmitFields(ctx context.Context) (track.Track, error) {
	release, err := m.begin()
	if err != nil {
		return track.Track{}, err
	}
	defer release()

	p, err := m.composer.FromFields(m.store.State().Fields)
	if err != nil {
		return track.Track{}, m.fail(err)
	}
	return m.generate(ctx, p)
}

// Compose returns the prompt the structured fields would produce.
func (m *Manager) Compose() (string, error) {
	return m.composer.FromFields(m.store.State().Fields)
}

// Next moves to the next track, wrapping to the first.
func (m *Manager) Next() (track.Track, bool) {
	m.store.Dispatch(state.Navigated{Delta: 1})
	return m.Current()
}

// Prev moves to the previous track, wrapping to the last.
func (m *Manager) Prev() (track.Track, bool) {
	m.store.Dispatch(state.Navigated{Delta: -1})
	return m.Current()
}

// Current returns the track under the playlist cursor.
func (m *Manager) Current() (track.Track, bool) {
	return m.store.State().CurrentTrack()
}

// begin claims the session for one submission, covering the transform call
// as well as generation. The returned func releases the claim.
func (m *Manager) begin() (func(), error) {
	if !m.submitting.CompareAndSwap(false, true) {
		return nil, m.fail(generation.ErrInFlight)
	}
	if m.generator.InFlight() || m.store.State().InFlight() {
		m.submitting.Store(false)
		return nil, m.fail(generation.ErrInFlight)
	}
	return func() { m.submitting.Store(false) }, nil
}

func (m *Manager) generate(ctx context.Context, p string) (track.Track, error) {
	t, err := m.generator.Submit(ctx, p)
	if err != nil {
		return track.Track{}, m.fail(err)
	}
	return t, nil
}

// fail alerts the user and returns err.
func (m *Manager) fail(err error) error {
	if m.alerter != nil {
		m.alerter.Alert(m.Describe(err))
	}
	return err
}

// Describe renders err as a user-facing message.
func (m *Manager) Describe(err error) string {
	switch {
	case errors.Is(err, composer.ErrEmptyInput):
		return m.messages.EmptyText
	case errors.Is(err, prompt.ErrEmptyFields):
		return m.messages.EmptyFields
	case errors.Is(err, generation.ErrInFlight):
		return m.messages.InFlight
	}

	var (
		detail string
		failed *generation.FailedError
	)
	switch {
	case errors.As(err, &failed):
		detail = failed.Detail
		if detail == "" {
			detail = m.messages.GenerationFailed
		}
	case errors.Is(err, generation.ErrInvalidResponse):
		detail = m.messages.InvalidResponse
	case errors.Is(err, generation.ErrPollTimeout):
		detail = m.messages.PollTimeout
	default:
		detail = err.Error()
	}
	return formatMessage(m.messages.GenerationError, detail)
}

// formatMessage fills the single %s verb of format, or appends detail when
// the configured format has none.
func formatMessage(format, detail string) string {
	if strings.Count(format, "%s") == 1 && strings.Count(format, "%") == 1 {
		return fmt.Sprintf(format, detail)
	}
	if format == "" {
		return detail
	}
	return format + ": " + detail
}
