package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyteller-server/internal/models"
	"storyteller-server/internal/session"
)

// StoryHandler exposes the story sessions over HTTP.
type StoryHandler struct {
	sessions *session.Manager
	logger   *zap.Logger
}

// NewStoryHandler creates the handler.
func NewStoryHandler(sessions *session.Manager, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		sessions: sessions,
		logger:   logger.Named("StoryHandler"),
	}
}

// RegisterRoutes attaches all story endpoints to the router.
func (h *StoryHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		stories := api.Group("/stories")
		{
			stories.POST("", h.createStory)
			stories.GET("/:id", h.getStory)
			stories.POST("/:id/choice", h.makeChoice)
			stories.GET("/:id/transcript", h.getTranscript)
			stories.GET("/:id/image", h.getImage)
			stories.POST("/:id/narration", h.createNarration)
			stories.GET("/:id/narration", h.getNarration)
			stories.GET("/:id/export", h.exportStory)
			stories.PUT("/:id/providers", h.updateProviders)
			stories.GET("/:id/ws", h.serveWS)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// createStory starts a new story session and returns its opening scene.
func (h *StoryHandler) createStory(c *gin.Context) {
	var req CreateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %s", err.Error())})
		return
	}

	s, err := h.sessions.Create(c.Request.Context(), req.Config, req.Providers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.storyResponse(s))
}

// getStory returns the current session state.
func (h *StoryHandler) getStory(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.storyResponse(s))
}

// makeChoice resolves a choice and returns the resulting state. Out-of-range
// indices and finished stories return the unchanged state.
func (h *StoryHandler) makeChoice(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %s", err.Error())})
		return
	}

	if _, err := s.Advance(c.Request.Context(), *req.ChoiceIndex); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.storyResponse(s))
}

// getTranscript returns the full transcript as plain text.
func (h *StoryHandler) getTranscript(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, s.Transcript())
}

// getImage returns the current scene's illustration as PNG.
func (h *StoryHandler) getImage(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	data, err := s.Illustrate(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

// createNarration renders the current scene's narration audio into the
// session's export directory.
func (h *StoryHandler) createNarration(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	path, err := s.Narrate(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, NarrationResponse{
		SceneNumber: s.State().SceneNumber,
		Path:        path,
	})
}

// getNarration serves the current scene's narration file, if one has been
// rendered.
func (h *StoryHandler) getNarration(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	path, err := s.NarrationPath()
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.File(path)
}

// exportStory streams a zip archive with the transcript and all generated
// media.
func (h *StoryHandler) exportStory(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=story_%s.zip", s.ID.String()))
	if err := s.ExportZip(c.Writer); err != nil {
		// Headers are already out, the best we can do is log.
		h.logger.Error("Export failed mid-stream", zap.String("sessionID", s.ID.String()), zap.Error(err))
	}
}

// updateProviders swaps the session's provider bindings mid-story.
func (h *StoryHandler) updateProviders(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var overrides models.ProviderBindings
	if err := c.ShouldBindJSON(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %s", err.Error())})
		return
	}

	if err := s.Rebind(overrides); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.storyResponse(s))
}

// session parses the :id parameter and resolves the session, writing the
// error response itself on failure.
func (h *StoryHandler) session(c *gin.Context) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session ID format"})
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		h.handleServiceError(c, err)
		return nil, false
	}
	return s, true
}

func (h *StoryHandler) storyResponse(s *session.Session) StoryResponse {
	return StoryResponse{
		SessionID: s.ID.String(),
		Config:    s.Config(),
		Providers: s.Bindings(),
		State:     s.State(),
	}
}

// handleServiceError maps service errors onto HTTP statuses.
func (h *StoryHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "story session not found"})
	case errors.Is(err, models.ErrStoryNotStarted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "story has not been started"})
	case errors.Is(err, models.ErrUnknownProviderKind):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "generation provider is unavailable"})
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
