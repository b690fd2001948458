package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storyteller-server/internal/config"
	"storyteller-server/internal/engine"
	"storyteller-server/internal/illustration"
	"storyteller-server/internal/models"
	"storyteller-server/internal/narration"
	"storyteller-server/internal/scene"
)

// Manager owns all live story sessions. The map is guarded with an RWMutex;
// each Session serializes its own operations with a per-session mutex, so
// concurrent web requests against one story never interleave.
type Manager struct {
	cfg    *config.Config
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session manager.
func NewManager(cfg *config.Config, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		logger:   logger.Named("SessionManager"),
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create builds providers for the merged bindings, starts the story and
// registers the session.
func (m *Manager) Create(ctx context.Context, storyCfg models.StoryConfig, overrides models.ProviderBindings) (*Session, error) {
	bindings := m.mergeBindings(overrides)

	provider, illustrator, narrator, err := m.buildProviders(bindings)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	sessionLogger := m.logger.With(zap.String("sessionID", id.String()))

	eng := engine.New(storyCfg, provider, sessionLogger)
	if err := eng.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting story: %w", err)
	}

	s := &Session{
		ID:             id,
		manager:        m,
		engine:         eng,
		illustrator:    illustrator,
		narrator:       narrator,
		bindings:       bindings,
		exportDir:      filepath.Join(m.cfg.ExportDir, id.String()),
		logger:         sessionLogger,
		subscribers:    make(map[chan []byte]struct{}),
		imageCache:     make(map[int][]byte),
		narrationPaths: make(map[int]string),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("Session created",
		zap.String("sessionID", id.String()),
		zap.String("textProvider", bindings.Text),
		zap.String("imageProvider", bindings.Image),
		zap.String("ttsProvider", bindings.TTS),
	)
	return s, nil
}

// Get returns the session or models.ErrNotFound.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}

// Delete removes a session from the registry.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// mergeBindings fills empty override fields with the environment defaults.
func (m *Manager) mergeBindings(overrides models.ProviderBindings) models.ProviderBindings {
	merged := models.ProviderBindings{
		Text:       m.cfg.AIClientType,
		TextModel:  m.cfg.AIModel,
		Image:      m.cfg.ImageClientType,
		ImageModel: m.cfg.ImageModel,
		TTS:        m.cfg.TTSClientType,
		TTSModel:   m.cfg.TTSModel,
		TTSVoice:   m.cfg.TTSVoice,
	}
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
	return merged
}

// buildProviders constructs the three capability providers for a set of
// bindings. Each capability downgrades independently when the remote side
// is not configured.
func (m *Manager) buildProviders(b models.ProviderBindings) (scene.Provider, illustration.Generator, narration.Narrator, error) {
	provider, err := scene.NewProvider(scene.Options{
		Kind:        b.Text,
		BaseURL:     m.cfg.AIBaseURL,
		APIKey:      m.cfg.AIAPIKey,
		Model:       b.TextModel,
		Temperature: m.cfg.AITemperature,
		Timeout:     m.cfg.AITimeout,
	}, m.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building scene provider: %w", err)
	}

	illustrator, err := illustration.NewGenerator(illustration.Options{
		Kind:    b.Image,
		BaseURL: m.cfg.AIBaseURL,
		APIKey:  m.cfg.AIAPIKey,
		Model:   b.ImageModel,
		Timeout: m.cfg.AITimeout,
	}, m.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building illustration generator: %w", err)
	}

	narrator, err := narration.NewNarrator(narration.Options{
		Kind:    b.TTS,
		BaseURL: m.cfg.AIBaseURL,
		APIKey:  m.cfg.AIAPIKey,
		Model:   b.TTSModel,
		Voice:   b.TTSVoice,
		Timeout: m.cfg.AITimeout,
	}, m.logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building narrator: %w", err)
	}

	return provider, illustrator, narrator, nil
}
