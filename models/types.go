package models

import "time"

// GenerationStage is the coarse lifecycle of the current generation attempt.
type GenerationStage string

const (
	StageIdle    GenerationStage = "idle"
	StageLoading GenerationStage = "loading"
	StageSuccess GenerationStage = "success"
	StageError   GenerationStage = "error"
)

// Scene is optional per-scene metadata from the webhook. It is passed
// through verbatim; the backend never validates or mutates it.
type Scene struct {
	SceneNumber int      `json:"sceneNumber"`
	Duration    float64  `json:"duration"`
	Narration   string   `json:"narration"`
	Keywords    []string `json:"keywords"`
	Visual      string   `json:"visual"`
}

// GeneratedVideo is one completed result, real or simulated. Items are
// never mutated after creation; new results are prepended to the list.
type GeneratedVideo struct {
	ID           string    `json:"id"`
	Prompt       string    `json:"prompt"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"created_at"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Narration    string    `json:"narration,omitempty"`
	AudioURL     string    `json:"audio_url,omitempty"`
	Scenes       []Scene   `json:"scenes,omitempty"`
	Simulated    bool      `json:"simulated,omitempty"`
}

// GenerationState is the full snapshot the UI polls.
type GenerationState struct {
	Stage         GenerationStage  `json:"stage"`
	Prompt        string           `json:"prompt"`
	ErrorMessage  string           `json:"error,omitempty"`
	Progress      int              `json:"progress"`
	TimelineStage int              `json:"timeline_stage"`
	StatusMessage string           `json:"status_message,omitempty"`
	Videos        []GeneratedVideo `json:"videos"`
}

// GenerateRequest represents the input from frontend
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// PromptRequest carries a prompt edit. Empty text is allowed here; only
// submission requires a non-empty prompt.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse acknowledges an accepted generation attempt.
type GenerateResponse struct {
	Status string `json:"status"`
}
