package handlers

import "shortgen/services"

// Static copy rendered by the front-end. Served from here so the client
// stays a thin shell over the API.

// PromptIdeas are the preset prompt suggestions shown under the input box.
var PromptIdeas = []string{
	services.CanonicalDemoPrompt,
	"Explain how rainbows form in 30 seconds",
	"Top 3 tips for remembering names",
	"A quick tour of the solar system",
	"Why cats always land on their feet",
}

// TimelineLabels name the three coarse phases of a generation attempt.
var TimelineLabels = []string{
	"Request received",
	"Processing",
	"Delivered",
}

// FeatureHighlights is the copy for the landing section.
var FeatureHighlights = []string{
	"Script, narration and footage in one pass",
	"Short-form output sized for every platform",
	"No editing skills required",
}
