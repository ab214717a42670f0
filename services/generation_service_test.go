package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortgen/models"
)

func newTestCoordinator(t *testing.T, endpoint string) *GenerationCoordinator {
	t.Helper()
	c, err := NewGenerationCoordinator(CoordinatorOptions{
		WebhookEndpoint: endpoint,
		Schedule:        shortSchedule(),
		Logger:          zerolog.Nop(),
	})
	require.NoError(t, err)
	return c
}

func jsonWebhook(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmitRejectsEmptyPrompt(t *testing.T) {
	c := newTestCoordinator(t, "")

	for _, prompt := range []string{"", "   ", "\t\n"} {
		err := c.Submit(prompt)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}

	state := c.State()
	assert.Equal(t, models.StageIdle, state.Stage, "a rejected prompt must not change the stage")
	assert.Empty(t, state.Videos)
}

func TestSubmitEntersLoadingSynchronously(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit(CanonicalDemoPrompt))
	assert.Equal(t, models.StageLoading, c.State().Stage, "loading must be visible before any async work resolves")
}

func TestWebhookSuccessBypassesSimulation(t *testing.T) {
	srv := jsonWebhook(t, http.StatusOK, `{"videoUrl":"https://cdn/x.mp4","narration":"hi"}`)
	c := newTestCoordinator(t, srv.URL)

	require.NoError(t, c.Submit("demo"))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageSuccess
	}, 2*time.Second, 5*time.Millisecond)

	state := c.State()
	require.Len(t, state.Videos, 1)
	video := state.Videos[0]
	assert.Equal(t, "https://cdn/x.mp4", video.URL)
	assert.Equal(t, "hi", video.Narration)
	assert.Equal(t, "demo", video.Prompt)
	assert.False(t, video.Simulated)
	assert.NotEmpty(t, video.ID)
	assert.Equal(t, 2, state.TimelineStage)
	assert.Empty(t, state.Prompt, "a successful attempt clears the input")
	assert.Empty(t, state.ErrorMessage)
}

func TestMissingVideoURLTriggersSimulation(t *testing.T) {
	srv := jsonWebhook(t, http.StatusOK, `{"status":"ok"}`)
	c := newTestCoordinator(t, srv.URL)

	// Casing and whitespace variations still count as the demo phrase.
	require.NoError(t, c.Submit("  create a short VIDEO on how to type fast  "))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageSuccess
	}, 2*time.Second, 5*time.Millisecond)

	state := c.State()
	require.Len(t, state.Videos, 1)
	video := state.Videos[0]
	assert.True(t, video.Simulated)
	assert.Equal(t, CanonicalDemoPrompt, video.Prompt, "the stored prompt is the canonical phrase, not the user's literal input")
	assert.Equal(t, DefaultSampleVideoPath, video.URL)
	assert.Equal(t, 100, state.Progress)
	assert.Equal(t, 2, state.TimelineStage)
	assert.Empty(t, state.StatusMessage)
	assert.Empty(t, state.Prompt)
}

func TestFailedWebhookWithOtherPromptShowsFixedError(t *testing.T) {
	srv := jsonWebhook(t, http.StatusInternalServerError, `boom`)
	c := newTestCoordinator(t, srv.URL)

	require.NoError(t, c.Submit("make me a cooking video"))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageError
	}, 2*time.Second, 5*time.Millisecond)

	state := c.State()
	assert.Equal(t, GenerationLimitMessage, state.ErrorMessage)
	assert.Empty(t, state.Videos, "a failed attempt must not create a video")
}

func TestUnconfiguredWebhookWithOtherPrompt(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit("another idea"))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageError
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, GenerationLimitMessage, c.State().ErrorMessage)
}

func TestUnconfiguredWebhookWithCanonicalPromptSimulates(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit(CanonicalDemoPrompt))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageSuccess
	}, 2*time.Second, 5*time.Millisecond)

	state := c.State()
	require.Len(t, state.Videos, 1)
	assert.True(t, state.Videos[0].Simulated)
}

func TestEditPromptResetsTerminalStage(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit("no fallback for this"))
	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageError
	}, 2*time.Second, 5*time.Millisecond)

	c.EditPrompt("a fresh idea")

	state := c.State()
	assert.Equal(t, models.StageIdle, state.Stage)
	assert.Empty(t, state.ErrorMessage)
	assert.Equal(t, 0, state.TimelineStage)
	assert.Equal(t, "a fresh idea", state.Prompt)
}

func TestEditPromptWhileLoadingOnlyStoresText(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit(CanonicalDemoPrompt))
	c.EditPrompt("tweaked mid-flight")

	state := c.State()
	assert.Equal(t, models.StageLoading, state.Stage)
	assert.Equal(t, "tweaked mid-flight", state.Prompt)
}

func TestResubmitCancelsPriorRun(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit(CanonicalDemoPrompt))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, c.Submit(CanonicalDemoPrompt))

	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageSuccess
	}, 2*time.Second, 5*time.Millisecond)

	// Long enough for any leaked timer from the first run to have fired.
	time.Sleep(250 * time.Millisecond)

	state := c.State()
	assert.Len(t, state.Videos, 1, "only the surviving run may finalize")
	assert.Equal(t, 100, state.Progress)
}

func TestProgressIsMonotonicInState(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit(CanonicalDemoPrompt))

	prev := 0
	wentBackward := false
	require.Eventually(t, func() bool {
		state := c.State()
		if state.Progress < prev {
			wentBackward = true
		}
		prev = state.Progress
		return state.Stage == models.StageSuccess
	}, 2*time.Second, 2*time.Millisecond)

	assert.False(t, wentBackward, "progress must never move backward")
	assert.Equal(t, 100, prev)
}

func TestSlowWebhookDoesNotKillNewerSimulation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Topic string `json:"topic"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		if req.Topic == "slowone" {
			// Still in flight when the canonical resubmission lands.
			time.Sleep(60 * time.Millisecond)
			_, _ = w.Write([]byte(`{"videoUrl":"https://cdn/slow.mp4"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(srv.Close)

	c := newTestCoordinator(t, srv.URL)

	require.NoError(t, c.Submit("slowone"))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Submit(CanonicalDemoPrompt))

	// The superseded attempt's late reply must neither cancel the live
	// run nor record its own result.
	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageSuccess
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(250 * time.Millisecond)

	state := c.State()
	require.Len(t, state.Videos, 1)
	assert.True(t, state.Videos[0].Simulated)
	assert.Equal(t, DefaultSampleVideoPath, state.Videos[0].URL)
	assert.Equal(t, models.StageSuccess, state.Stage)
	assert.Equal(t, 100, state.Progress)
}

func TestStaleSimulationEventsAreDropped(t *testing.T) {
	c := newTestCoordinator(t, "")

	require.NoError(t, c.Submit("not the demo phrase"))
	require.Eventually(t, func() bool {
		return c.State().Stage == models.StageError
	}, 2*time.Second, 5*time.Millisecond)

	// A run that raced past the supersession check carries an outdated
	// seq; the reducer must drop every one of its events.
	c.engine.Start(func(ev SimEvent) { c.applySimEvent(0, ev) })

	time.Sleep(250 * time.Millisecond) // past the short schedule's total

	state := c.State()
	assert.Equal(t, models.StageError, state.Stage)
	assert.Equal(t, GenerationLimitMessage, state.ErrorMessage)
	assert.Empty(t, state.Videos)
	assert.Equal(t, 0, state.Progress)
}

func TestIsCanonicalPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   bool
	}{
		{CanonicalDemoPrompt, true},
		{"create a short video on how to type fast", true},
		{"  CREATE A SHORT VIDEO ON HOW TO TYPE FAST  ", true},
		{"Create a Short video on how to type fast!", false},
		{"something else entirely", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCanonicalPrompt(tt.prompt), "prompt %q", tt.prompt)
	}
}
