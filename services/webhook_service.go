package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"shortgen/models"
	"shortgen/utils"
)

// WebhookClient calls the external video-generation webhook
type WebhookClient struct {
	endpoint   string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewWebhookClient creates a new webhook client
func NewWebhookClient(endpoint string, httpClient *http.Client, logger zerolog.Logger) *WebhookClient {
	if httpClient == nil {
		// No client-side timeout: the webhook owns its own latency budget
		// and the caller reacts whenever the transport resolves.
		httpClient = &http.Client{}
	}
	return &WebhookClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		log:        logger.With().Str("component", "webhook").Logger(),
	}
}

// WebhookResult is the webhook's response payload. Everything beyond the
// video URL is optional metadata carried through verbatim.
type WebhookResult struct {
	VideoURL     string         `json:"videoUrl"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	PosterURL    string         `json:"posterUrl"`
	Narration    string         `json:"narration"`
	AudioURL     string         `json:"audioUrl"`
	Scenes       []models.Scene `json:"scenes"`
}

// PlayableURL returns the video location, accepting "url" as a fallback
// field name.
func (r *WebhookResult) PlayableURL() string {
	if r.VideoURL != "" {
		return r.VideoURL
	}
	return r.URL
}

// Thumbnail returns the poster image, accepting "posterUrl" as a fallback
// field name.
func (r *WebhookResult) Thumbnail() string {
	if r.ThumbnailURL != "" {
		return r.ThumbnailURL
	}
	return r.PosterURL
}

// RequestGeneration posts {"topic": topic} to the webhook and interprets
// the response. Every failure maps onto one of the sentinel error kinds;
// a nil error guarantees a non-empty PlayableURL.
func (w *WebhookClient) RequestGeneration(ctx context.Context, topic string) (*WebhookResult, error) {
	payload, err := json.Marshal(map[string]string{"topic": topic})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrWebhookUnreachable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Body is read for diagnostics only; no retry.
		w.log.Warn().
			Int("status", resp.StatusCode).
			Str("body", truncate(string(body), 200)).
			Msg("webhook returned failure status")
		return nil, fmt.Errorf("%w: status %d", ErrWebhookUnreachable, resp.StatusCode)
	}

	result, err := interpretBody(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	if result.PlayableURL() == "" {
		return nil, ErrNoVideoURL
	}
	return result, nil
}

// interpretBody decodes a 2xx response. JSON responses must parse; plain
// text is salvaged when it is itself JSON or a single absolute video URL.
func interpretBody(contentType string, body []byte) (*WebhookResult, error) {
	var result WebhookResult

	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return &result, nil
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil, ErrEmptyResponse
	}
	if err := json.Unmarshal([]byte(text), &result); err == nil {
		return &result, nil
	}
	if utils.IsAbsoluteHTTPURL(text) {
		return &WebhookResult{VideoURL: text}, nil
	}
	return nil, fmt.Errorf("%w: body is neither JSON nor a video URL", ErrMalformedResponse)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
