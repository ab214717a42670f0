package services

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shortgen/models"
)

// CanonicalDemoPrompt is the one prompt the simulated fallback recognizes.
// Matching is trimmed and case-insensitive.
const CanonicalDemoPrompt = "Create a Short video on how to type fast"

// GenerationLimitMessage is the only error copy the UI ever shows for a
// failed attempt, regardless of the underlying cause.
const GenerationLimitMessage = "You have reached the video generation limit. Please try again in a few minutes."

// DefaultSampleVideoPath locates the bundled demo clip under /static.
const DefaultSampleVideoPath = "/static/How%20To%20Type%20Fast.mp4"

// CoordinatorOptions configures a GenerationCoordinator. The zero value of
// every field has a usable default; an empty WebhookEndpoint means the
// webhook path is skipped entirely.
type CoordinatorOptions struct {
	WebhookEndpoint string
	SampleVideoPath string
	Schedule        SimSchedule
	HTTPClient      *http.Client
	Logger          zerolog.Logger
}

// GenerationCoordinator owns the generation attempt end to end: it
// validates the prompt, drives the webhook call, and routes between a real
// result, the simulated fallback, and the fixed error. It is the only
// writer of the stage, the progress view and the video list.
type GenerationCoordinator struct {
	webhook         *WebhookClient
	engine          *SimulationEngine
	sampleVideoPath string
	log             zerolog.Logger

	mu      sync.RWMutex
	state   models.GenerationState
	attempt uint64
}

// NewGenerationCoordinator creates a new coordinator
func NewGenerationCoordinator(opts CoordinatorOptions) (*GenerationCoordinator, error) {
	if opts.SampleVideoPath == "" {
		opts.SampleVideoPath = DefaultSampleVideoPath
	}
	if opts.Schedule.Total == 0 {
		opts.Schedule = DefaultSimSchedule()
	}

	engine, err := NewSimulationEngine(opts.Schedule, opts.Logger)
	if err != nil {
		return nil, err
	}

	var webhook *WebhookClient
	if opts.WebhookEndpoint != "" {
		webhook = NewWebhookClient(opts.WebhookEndpoint, opts.HTTPClient, opts.Logger)
	}

	return &GenerationCoordinator{
		webhook:         webhook,
		engine:          engine,
		sampleVideoPath: opts.SampleVideoPath,
		log:             opts.Logger.With().Str("component", "coordinator").Logger(),
		state: models.GenerationState{
			Stage:  models.StageIdle,
			Videos: []models.GeneratedVideo{},
		},
	}, nil
}

// Submit starts one generation attempt. It rejects whitespace-only prompts
// with ErrEmptyPrompt and no state change; otherwise the stage is loading
// by the time it returns and the webhook attempt continues in the
// background.
func (c *GenerationCoordinator) Submit(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return ErrEmptyPrompt
	}

	// Stale timers from an earlier run must never outlive a new attempt.
	// Cancelling happens outside c.mu: an in-flight timer callback may be
	// blocked on it.
	c.engine.Cancel()

	c.mu.Lock()
	c.attempt++
	seq := c.attempt
	c.state.Prompt = prompt
	c.state.Stage = models.StageLoading
	c.state.ErrorMessage = ""
	c.state.Progress = 0
	c.state.TimelineStage = 0
	c.state.StatusMessage = ""
	c.mu.Unlock()

	go c.runAttempt(prompt, seq)
	return nil
}

// EditPrompt always stores the new text. Leaving a terminal stage also
// resets the attempt view and cancels any residual simulation run.
func (c *GenerationCoordinator) EditPrompt(text string) {
	c.mu.Lock()
	c.state.Prompt = text
	stage := c.state.Stage
	if stage == models.StageError || stage == models.StageSuccess {
		c.state.Stage = models.StageIdle
		c.state.ErrorMessage = ""
		c.state.Progress = 0
		c.state.TimelineStage = 0
		c.state.StatusMessage = ""
	}
	c.mu.Unlock()

	if stage == models.StageError || stage == models.StageSuccess {
		c.engine.Cancel()
	}
}

// State returns a consistent snapshot for the API layer.
func (c *GenerationCoordinator) State() models.GenerationState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := c.state
	snap.Videos = append([]models.GeneratedVideo(nil), c.state.Videos...)
	return snap
}

// Videos returns the result list, newest first.
func (c *GenerationCoordinator) Videos() []models.GeneratedVideo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.GeneratedVideo(nil), c.state.Videos...)
}

// IsCanonicalPrompt reports whether the prompt matches the demo phrase
// after trimming, ignoring case.
func IsCanonicalPrompt(prompt string) bool {
	return strings.EqualFold(strings.TrimSpace(prompt), CanonicalDemoPrompt)
}

// runAttempt is the background half of Submit: one webhook attempt, then
// exactly one of three outcomes. The seq guard keeps a slow webhook
// continuation from touching state that a newer attempt already owns.
func (c *GenerationCoordinator) runAttempt(prompt string, seq uint64) {
	result, err := c.attemptWebhook(prompt)
	if err == nil {
		c.completeFromWebhook(prompt, result, seq)
		return
	}

	// Each cause stays distinct in the log; the user sees a single
	// outcome either way.
	c.log.Info().Err(err).Msg("webhook path failed, checking fallback")

	if IsCanonicalPrompt(prompt) {
		if c.superseded(seq) {
			return
		}
		// The sink carries this attempt's seq so the reducer can drop
		// events from a run that a newer attempt has since superseded.
		c.engine.Start(func(ev SimEvent) { c.applySimEvent(seq, ev) })
		return
	}

	c.mu.Lock()
	if c.attempt == seq {
		c.state.Stage = models.StageError
		c.state.ErrorMessage = GenerationLimitMessage
	}
	c.mu.Unlock()
}

func (c *GenerationCoordinator) superseded(seq uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attempt != seq
}

func (c *GenerationCoordinator) attemptWebhook(prompt string) (*WebhookResult, error) {
	if c.webhook == nil {
		return nil, ErrWebhookNotConfigured
	}
	return c.webhook.RequestGeneration(context.Background(), prompt)
}

// completeFromWebhook records a real result: the timeline jumps to its
// final stage and the simulation is bypassed entirely.
func (c *GenerationCoordinator) completeFromWebhook(prompt string, result *WebhookResult, seq uint64) {
	if c.superseded(seq) {
		// A newer attempt owns the engine and the state now; a stale
		// continuation must not cancel a run it never started.
		return
	}

	c.engine.Cancel() // nothing should be running for this attempt; clearing is defensive

	video := models.GeneratedVideo{
		ID:           uuid.NewString(),
		Prompt:       prompt,
		URL:          result.PlayableURL(),
		CreatedAt:    time.Now(),
		ThumbnailURL: result.Thumbnail(),
		Narration:    result.Narration,
		AudioURL:     result.AudioURL,
		Scenes:       result.Scenes,
	}

	c.mu.Lock()
	if c.attempt != seq {
		c.mu.Unlock()
		return
	}
	c.state.Stage = models.StageSuccess
	c.state.ErrorMessage = ""
	c.state.TimelineStage = 2
	c.state.StatusMessage = ""
	c.state.Videos = append([]models.GeneratedVideo{video}, c.state.Videos...)
	c.state.Prompt = ""
	c.mu.Unlock()

	c.log.Info().Str("video_id", video.ID).Str("url", video.URL).Msg("webhook generation completed")
}

// applySimEvent is the single reducer for simulation events. Progress only
// ever moves up; the finalize event performs the whole terminal transition
// at once. Events whose seq is no longer the current attempt are dropped
// whole: a run started by a stale continuation can never touch newer state.
func (c *GenerationCoordinator) applySimEvent(seq uint64, ev SimEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != seq {
		return
	}

	switch ev.Kind {
	case SimProgress:
		if ev.Progress > c.state.Progress {
			c.state.Progress = ev.Progress
		}
	case SimStageAdvance:
		c.state.TimelineStage = ev.Stage
		c.state.StatusMessage = ev.Message
	case SimFinalize:
		video := models.GeneratedVideo{
			ID:        uuid.NewString(),
			Prompt:    CanonicalDemoPrompt,
			URL:       c.sampleVideoPath,
			CreatedAt: time.Now(),
			Simulated: true,
		}
		c.state.Stage = models.StageSuccess
		c.state.ErrorMessage = ""
		c.state.Progress = 100
		c.state.TimelineStage = 2
		c.state.StatusMessage = ""
		c.state.Videos = append([]models.GeneratedVideo{video}, c.state.Videos...)
		c.state.Prompt = ""
	}
}
