package handler

import "storyteller-server/internal/models"

// CreateStoryRequest starts a new story. Config is required; Providers
// overrides the environment defaults per capability and may be omitted.
type CreateStoryRequest struct {
	Config    models.StoryConfig      `json:"config" binding:"required"`
	Providers models.ProviderBindings `json:"providers"`
}

// ChoiceRequest selects one of the current scene's choices by zero-based
// index.
type ChoiceRequest struct {
	ChoiceIndex *int `json:"choice_index" binding:"required"`
}

// StoryResponse is the session view returned by every state-changing
// endpoint.
type StoryResponse struct {
	SessionID string                  `json:"session_id"`
	Config    models.StoryConfig      `json:"config"`
	Providers models.ProviderBindings `json:"providers"`
	State     models.StoryState       `json:"state"`
}

// NarrationResponse points at the generated narration file.
type NarrationResponse struct {
	SceneNumber int    `json:"scene_number"`
	Path        string `json:"path"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
