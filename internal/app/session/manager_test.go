package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/metatune/internal/app/composer"
	"github.com/osa030/metatune/internal/app/generation"
	"github.com/osa030/metatune/internal/app/state"
	"github.com/osa030/metatune/internal/domain/prompt"
	"github.com/osa030/metatune/internal/domain/track"
	"github.com/osa030/metatune/internal/infra/config"
	"github.com/osa030/metatune/internal/infra/metatune"
)

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, message)
}

// fakeService is an in-memory MetaTune backend.
type fakeService struct {
	mu        sync.Mutex
	hits      map[string]int
	generates []map[string]string
	transform func(w http.ResponseWriter, input string)
	generate  func(w http.ResponseWriter, prompt string)
	status    func(w http.ResponseWriter, taskID string)
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.hits[r.URL.Path]++
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/transform_prompt":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.transform(w, body["user_input"])
	case r.URL.Path == "/api/generate-music":
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.generates = append(f.generates, body)
		f.mu.Unlock()
		f.generate(w, body["prompt"])
	default:
		f.status(w, r.URL.Path[len("/api/task-status/"):])
	}
}

func (f *fakeService) totalHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.hits {
		n += v
	}
	return n
}

func (f *fakeService) hitsFor(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func write(w http.ResponseWriter, status int, body string) {
	w.WriteHeader(status)
	fmt.Fprint(w, body)
}

func newFakeService() *fakeService {
	return &fakeService{
		hits: make(map[string]int),
		transform: func(w http.ResponseWriter, input string) {
			write(w, http.StatusOK, `{"transformed_prompt": "calm, piano"}`)
		},
		generate: func(w http.ResponseWriter, prompt string) {
			write(w, http.StatusOK, `{"url": "a.mp3", "title": "T", "source": "S"}`)
		},
		status: func(w http.ResponseWriter, taskID string) {
			write(w, http.StatusAccepted, ``)
		},
	}
}

func newTestManager(t *testing.T, svc *fakeService) (*Manager, *recordingAlerter) {
	t.Helper()
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.API.BaseURL = server.URL
	cfg.Generation.PollIntervalMs = 1
	cfg.Generation.MaxPollAttempts = 3

	api, err := metatune.New(metatune.Config{BaseURL: server.URL})
	require.NoError(t, err)

	alerter := &recordingAlerter{}
	return NewManager(cfg, api, alerter), alerter
}

func TestManager_SubmitText(t *testing.T) {
	svc := newFakeService()
	m, alerter := newTestManager(t, svc)

	m.SetText("I feel sleepy")
	got, err := m.SubmitText(context.Background())
	require.NoError(t, err)

	assert.Equal(t, track.Track{URL: "a.mp3", Title: "T", Source: "S"}, got)
	assert.Empty(t, alerter.alerts)
	require.Len(t, svc.generates, 1)
	assert.Equal(t, "calm, piano", svc.generates[0]["prompt"])
	assert.Equal(t, "suno", svc.generates[0]["generator"])

	s := m.State()
	assert.Equal(t, state.PhaseSettled, s.Phase)
	assert.Equal(t, "calm, piano", s.Prompt)
	assert.Equal(t, 1, s.Playlist.Len())
	assert.Equal(t, 0, s.Playlist.Index())
}

func TestManager_SubmitText_Fallback(t *testing.T) {
	svc := newFakeService()
	svc.transform = func(w http.ResponseWriter, input string) {
		write(w, http.StatusServiceUnavailable, `{"detail": "LLM down"}`)
	}
	m, alerter := newTestManager(t, svc)

	m.SetText("hello")
	_, err := m.SubmitText(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerter.alerts)
	assert.Equal(t, composer.DefaultFallback, svc.generates[0]["prompt"])
}

func TestManager_SubmitText_Empty(t *testing.T) {
	svc := newFakeService()
	m, alerter := newTestManager(t, svc)

	_, err := m.SubmitText(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, composer.ErrEmptyInput))
	assert.Equal(t, []string{"Please enter a prompt."}, alerter.alerts)
	assert.Equal(t, 0, svc.totalHits())
	assert.Equal(t, state.PhaseIdle, m.State().Phase)
}

func TestManager_SubmitText_SingleFlightCoversTransform(t *testing.T) {
	var once sync.Once
	entered := make(chan struct{})
	release := make(chan struct{})

	svc := newFakeService()
	svc.transform = func(w http.ResponseWriter, input string) {
		once.Do(func() { close(entered) })
		<-release
		write(w, http.StatusOK, `{"transformed_prompt": "calm, piano"}`)
	}
	m, alerter := newTestManager(t, svc)
	m.SetText("I feel sleepy")

	done := make(chan error, 1)
	go func() {
		_, err := m.SubmitText(context.Background())
		done <- err
	}()
	<-entered

	_, err := m.SubmitText(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, generation.ErrInFlight))
	assert.Equal(t, 1, svc.hitsFor("/api/transform_prompt"))

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1, svc.hitsFor("/api/transform_prompt"))
	assert.Equal(t, 1, svc.hitsFor("/api/generate-music"))
	assert.Equal(t, []string{"Music generation is already in progress"}, alerter.alerts)

	// The claim is released once the attempt settles.
	_, err = m.SubmitText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, svc.hitsFor("/api/transform_prompt"))
}

func TestManager_SubmitFields(t *testing.T) {
	svc := newFakeService()
	m, alerter := newTestManager(t, svc)

	m.SetMode(state.ModeDetail)
	m.SetField(state.FieldGenre, "jazz")
	require.NoError(t, m.SetInstrument(0, "piano"))
	idx := m.AddInstrument()
	require.NoError(t, m.SetInstrument(idx, "drums"))
	m.SetField(state.FieldOther, "Night")

	composed, err := m.Compose()
	require.NoError(t, err)
	assert.Equal(t, "Genre: jazz. Instruments: piano, drums. Other details: Night", composed)

	_, err = m.Submit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerter.alerts)
	assert.Equal(t, 0, svc.hits["/api/transform_prompt"])
	assert.Equal(t, composed, svc.generates[0]["prompt"])
}

func TestManager_SubmitFields_Empty(t *testing.T) {
	svc := newFakeService()
	m, alerter := newTestManager(t, svc)

	m.AddInstrument()
	_, err := m.SubmitFields(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, prompt.ErrEmptyFields))
	assert.Equal(t, []string{"Please fill in at least one field."}, alerter.alerts)
	assert.Equal(t, 0, svc.totalHits())
}

func TestManager_SetInstrumentOutOfRange(t *testing.T) {
	m, _ := newTestManager(t, newFakeService())
	assert.Error(t, m.SetInstrument(5, "harp"))
}

func TestManager_SetFields(t *testing.T) {
	m, _ := newTestManager(t, newFakeService())

	m.SetFields(prompt.Fields{
		Genre:       "lofi",
		Mood:        "calm",
		Instruments: []string{"piano", "", "rain"},
		Lyrics:      "none",
	})

	f := m.State().Fields
	assert.Equal(t, "lofi", f.Genre)
	assert.Equal(t, "calm", f.Mood)
	assert.Equal(t, []string{"piano", "", "rain"}, f.Instruments)
	assert.Equal(t, "none", f.Lyrics)
}

func TestManager_GenerationAlerts(t *testing.T) {
	tests := []struct {
		name     string
		generate func(w http.ResponseWriter, prompt string)
		status   func(w http.ResponseWriter, taskID string)
		expected string
	}{
		{
			name: "error with detail",
			generate: func(w http.ResponseWriter, prompt string) {
				write(w, http.StatusInternalServerError, `{"detail": "X"}`)
			},
			expected: "Error during music generation: X",
		},
		{
			name: "error without detail",
			generate: func(w http.ResponseWriter, prompt string) {
				write(w, http.StatusInternalServerError, `{}`)
			},
			expected: "Error during music generation: Music generation failed",
		},
		{
			name: "invalid shape",
			generate: func(w http.ResponseWriter, prompt string) {
				write(w, http.StatusAccepted, `{"title": "calm", "message": "generating"}`)
			},
			expected: "Error during music generation: Invalid response from the server",
		},
		{
			name: "poll timeout",
			generate: func(w http.ResponseWriter, prompt string) {
				write(w, http.StatusAccepted, `{"task_id": "t-1"}`)
			},
			expected: "Error during music generation: Music generation timed out",
		},
		{
			name: "task failed",
			generate: func(w http.ResponseWriter, prompt string) {
				write(w, http.StatusAccepted, `{"task_id": "t-1"}`)
			},
			status: func(w http.ResponseWriter, taskID string) {
				write(w, http.StatusOK, `{"status": "failed", "detail": "quota exceeded"}`)
			},
			expected: "Error during music generation: quota exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			svc.generate = tt.generate
			if tt.status != nil {
				svc.status = tt.status
			}
			m, alerter := newTestManager(t, svc)

			m.SetText("hello")
			_, err := m.SubmitText(context.Background())
			require.Error(t, err)

			assert.Equal(t, []string{tt.expected}, alerter.alerts)
			s := m.State()
			assert.Equal(t, state.PhaseFailed, s.Phase)
			assert.Equal(t, tt.expected, s.Error)
			assert.Equal(t, 0, s.Playlist.Len())
		})
	}
}

func TestManager_DeferredGeneration(t *testing.T) {
	svc := newFakeService()
	svc.generate = func(w http.ResponseWriter, prompt string) {
		write(w, http.StatusAccepted, `{"task_id": "t-9"}`)
	}
	polls := 0
	svc.status = func(w http.ResponseWriter, taskID string) {
		assert.Equal(t, "t-9", taskID)
		polls++
		if polls < 2 {
			write(w, http.StatusOK, `{"status": "processing"}`)
			return
		}
		write(w, http.StatusOK, `{"status": "complete", "url": "b.wav"}`)
	}
	m, alerter := newTestManager(t, svc)

	m.SetText("hello")
	got, err := m.SubmitText(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerter.alerts)
	assert.Equal(t, track.Track{URL: "b.wav", Title: "Generated Song #1", Source: "from MetaTune"}, got)
}

func TestManager_Navigation(t *testing.T) {
	svc := newFakeService()
	n := 0
	svc.generate = func(w http.ResponseWriter, prompt string) {
		n++
		write(w, http.StatusOK, fmt.Sprintf(`{"url": "%d.mp3"}`, n))
	}
	m, _ := newTestManager(t, svc)

	_, ok := m.Next()
	assert.False(t, ok)

	m.SetText("x")
	for i := 0; i < 3; i++ {
		_, err := m.SubmitText(context.Background())
		require.NoError(t, err)
	}

	cur, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "3.mp3", cur.URL)

	next, _ := m.Next()
	assert.Equal(t, "1.mp3", next.URL)

	prev, _ := m.Prev()
	assert.Equal(t, "3.mp3", prev.URL)
	prev, _ = m.Prev()
	assert.Equal(t, "2.mp3", prev.URL)
}

func TestManager_Describe(t *testing.T) {
	m, _ := newTestManager(t, newFakeService())

	assert.Equal(t, "Music generation is already in progress", m.Describe(generation.ErrInFlight))
	assert.Equal(t, "Error during music generation: boom", m.Describe(errors.New("boom")))
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "failed: x", formatMessage("failed: %s", "x"))
	assert.Equal(t, "failed: x", formatMessage("failed", "x"))
	assert.Equal(t, "x", formatMessage("", "x"))
	assert.Equal(t, "100% failed: x", formatMessage("100% failed", "x"))
}
