package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"shortgen/models"
	"shortgen/services"
)

// GenerationHandler exposes the generation coordinator over the JSON API
type GenerationHandler struct {
	coordinator *services.GenerationCoordinator
	log         zerolog.Logger
}

// NewGenerationHandler creates a new generation handler
func NewGenerationHandler(coordinator *services.GenerationCoordinator, logger zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		coordinator: coordinator,
		log:         logger.With().Str("component", "api").Logger(),
	}
}

// Generate handles POST /api/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
		return
	}

	if err := h.coordinator.Submit(req.Prompt); err != nil {
		if errors.Is(err, services.ErrEmptyPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, models.GenerateResponse{
		Status: string(models.StageLoading),
	})
}

// EditPrompt handles POST /api/prompt
func (h *GenerationHandler) EditPrompt(c *gin.Context) {
	var req models.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	h.coordinator.EditPrompt(req.Prompt)
	c.JSON(http.StatusOK, h.coordinator.State())
}

// GetState handles GET /api/state
func (h *GenerationHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.coordinator.State())
}

// ListVideos handles GET /api/videos
func (h *GenerationHandler) ListVideos(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"videos": h.coordinator.Videos()})
}

// GetContent handles GET /api/content
func (h *GenerationHandler) GetContent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ideas":    PromptIdeas,
		"timeline": TimelineLabels,
		"features": FeatureHighlights,
	})
}
