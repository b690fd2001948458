package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyteller-server/internal/engine"
	"storyteller-server/internal/export"
	"storyteller-server/internal/illustration"
	"storyteller-server/internal/models"
	"storyteller-server/internal/narration"
)

// Session binds one story engine to its capability providers and export
// directory. The mutex serializes Advance, Rebind, media generation and
// export, so the engine never sees interleaved calls. The narrative state
// and the provider bindings are deliberately separable: Rebind swaps the
// bindings while the engine's state stays untouched.
type Session struct {
	ID uuid.UUID

	mu          sync.Mutex
	manager     *Manager
	engine      *engine.Engine
	illustrator illustration.Generator
	narrator    narration.Narrator
	bindings    models.ProviderBindings
	exportDir   string
	logger      *zap.Logger

	subMu       sync.Mutex
	subscribers map[chan []byte]struct{}

	// imageCache holds one rendered illustration per scene number, so the
	// UI can re-fetch the current image without a second generation call.
	imageCache map[int][]byte

	// narrationPaths remembers the audio file written for each scene.
	narrationPaths map[int]string
}

// sceneUpdate is the JSON payload pushed to websocket subscribers after
// every state change.
type sceneUpdate struct {
	Type      string            `json:"type"`
	SessionID string            `json:"session_id"`
	State     models.StoryState `json:"state"`
}

// State returns a copy of the current story state.
func (s *Session) State() models.StoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

// Config returns the immutable story configuration.
func (s *Session) Config() models.StoryConfig {
	return s.engine.Config()
}

// Bindings returns the currently effective provider bindings.
func (s *Session) Bindings() models.ProviderBindings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bindings
}

// IsFinished reports whether the story reached its terminal state.
func (s *Session) IsFinished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.IsFinished()
}

// Advance resolves the reader's choice and returns the resulting state.
// Invalid indices and advances past the end are no-ops that return the
// unchanged state.
func (s *Session) Advance(ctx context.Context, choiceIndex int) (models.StoryState, error) {
	s.mu.Lock()
	err := s.engine.Advance(ctx, choiceIndex)
	state := s.engine.State()
	s.mu.Unlock()

	if err != nil {
		return state, err
	}
	s.broadcast(state)
	return state, nil
}

// Rebind swaps the provider bindings while preserving narrative state.
// Empty override fields keep their current values.
func (s *Session) Rebind(overrides models.ProviderBindings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := s.bindings
	if overrides.Text != "" {
		merged.Text = overrides.Text
	}
	if overrides.TextModel != "" {
		merged.TextModel = overrides.TextModel
	}
	if overrides.Image != "" {
		merged.Image = overrides.Image
	}
	if overrides.ImageModel != "" {
		merged.ImageModel = overrides.ImageModel
	}
	if overrides.TTS != "" {
		merged.TTS = overrides.TTS
	}
	if overrides.TTSModel != "" {
		merged.TTSModel = overrides.TTSModel
	}
	if overrides.TTSVoice != "" {
		merged.TTSVoice = overrides.TTSVoice
	}

	provider, illustrator, narrator, err := s.manager.buildProviders(merged)
	if err != nil {
		return err
	}

	s.engine.Rebind(provider)
	s.illustrator = illustrator
	s.narrator = narrator
	s.bindings = merged

	s.logger.Info("Provider bindings swapped",
		zap.String("textProvider", merged.Text),
		zap.String("imageProvider", merged.Image),
		zap.String("ttsProvider", merged.TTS),
	)
	return nil
}

// Illustrate renders the current scene's illustration. The image is cached
// per scene number (the generation seed) and persisted into the export
// directory so it ends up in the archive.
func (s *Session) Illustrate(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state.SceneNumber == 0 {
		return nil, models.ErrStoryNotStarted
	}
	if cached, ok := s.imageCache[state.SceneNumber]; ok {
		return cached, nil
	}

	data, err := s.illustrator.Generate(ctx, state.ImagePrompt, state.SceneNumber)
	if err != nil {
		return nil, err
	}
	s.imageCache[state.SceneNumber] = data

	if err := os.MkdirAll(s.exportDir, 0o755); err == nil {
		path := filepath.Join(s.exportDir, fmt.Sprintf("scene_%02d.png", state.SceneNumber))
		if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
			s.logger.Warn("Failed to persist illustration", zap.String("path", path), zap.Error(writeErr))
		}
	}
	return data, nil
}

// Narrate writes the narration audio for the current scene into the export
// directory and returns the file path.
func (s *Session) Narrate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	if state.SceneNumber == 0 {
		return "", models.ErrStoryNotStarted
	}
	path, err := s.narrator.Narrate(ctx, state.SceneText, state.SceneNumber, s.exportDir)
	if err != nil {
		return "", err
	}
	s.narrationPaths[state.SceneNumber] = path
	return path, nil
}

// NarrationPath returns the narration file for the current scene, or
// models.ErrNotFound when no narration has been rendered for it yet.
func (s *Session) NarrationPath() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.engine.State()
	path, ok := s.narrationPaths[state.SceneNumber]
	if !ok {
		return "", models.ErrNotFound
	}
	return path, nil
}

// Transcript returns the full ordered transcript.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.FullTranscript()
}

// ExportZip writes story.txt plus all generated media as a zip archive
// to w, using archive-relative paths.
func (s *Session) ExportZip(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := export.WriteTranscript(s.exportDir, s.engine.FullTranscript()); err != nil {
		return err
	}
	return export.ZipDirectory(s.exportDir, w)
}

// Subscribe registers a websocket subscriber channel. The returned cancel
// function unregisters it.
func (s *Session) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, 8)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
}

// broadcast pushes the new state to all subscribers. Slow subscribers drop
// updates instead of blocking the advance path.
func (s *Session) broadcast(state models.StoryState) {
	payload, err := json.Marshal(sceneUpdate{
		Type:      "scene_update",
		SessionID: s.ID.String(),
		State:     state,
	})
	if err != nil {
		s.logger.Error("Failed to marshal scene update", zap.Error(err))
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- payload:
		default:
			s.logger.Warn("Dropping scene update for slow subscriber")
		}
	}
}
