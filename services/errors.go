package services

import "errors"

// Failure kinds on the webhook path. The coordinator folds every one of
// them into the same user-facing outcome; the distinction only matters for
// logs and tests.
var (
	// ErrEmptyPrompt rejects whitespace-only input before any state change.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrWebhookNotConfigured means no endpoint was supplied at startup.
	ErrWebhookNotConfigured = errors.New("webhook endpoint not configured")

	// ErrWebhookUnreachable covers transport failures and non-2xx statuses.
	ErrWebhookUnreachable = errors.New("webhook unreachable or failed")

	// ErrMalformedResponse means the body was neither JSON nor a bare URL.
	ErrMalformedResponse = errors.New("webhook response could not be parsed")

	// ErrEmptyResponse means a 2xx response carried an empty body.
	ErrEmptyResponse = errors.New("webhook response body is empty")

	// ErrNoVideoURL means the response parsed but named no playable video.
	ErrNoVideoURL = errors.New("webhook response has no video url")
)
