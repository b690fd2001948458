package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storyteller-server/internal/models"
	"storyteller-server/internal/scene"
)

// Status is the lifecycle state of a story.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Engine drives one story from NotStarted through InProgress to Finished.
// It owns the StoryState exclusively; the state is mutated only through
// Start and Advance. The engine performs no internal locking: callers that
// expose it to concurrent requests must serialize access per story.
type Engine struct {
	config   models.StoryConfig
	provider scene.Provider
	logger   *zap.Logger

	status Status
	state  models.StoryState
}

// New creates an engine for the given immutable story configuration.
func New(cfg models.StoryConfig, provider scene.Provider, logger *zap.Logger) *Engine {
	return &Engine{
		config:   cfg,
		provider: provider,
		logger:   logger.Named("StoryEngine"),
		status:   StatusNotStarted,
	}
}

// Start generates the opening scene. Valid only from NotStarted.
func (e *Engine) Start(ctx context.Context) error {
	if e.status != StatusNotStarted {
		return models.ErrStoryAlreadyStarted
	}

	content, err := e.provider.GenerateScene(ctx, models.SceneRequest{
		Opening:     true,
		SceneNumber: 1,
		Config:      e.config,
	})
	if err != nil {
		return fmt.Errorf("generating opening scene: %w", err)
	}

	e.state.SceneNumber = 1
	e.applyScene(content)
	e.status = StatusInProgress
	if content.Finished {
		// Not expected on an opener, but the content decides.
		e.status = StatusFinished
	}

	e.logger.Info("Story started",
		zap.Int("sceneNumber", e.state.SceneNumber),
		zap.Int("choices", len(e.state.Choices)),
		zap.Bool("finished", e.state.Finished),
	)
	return nil
}

// Advance resolves the choice at choiceIndex and generates the next scene.
// An out-of-range index, or a call while the story is not InProgress, is a
// silent no-op. A provider failure leaves the state untouched and propagates
// to the caller.
func (e *Engine) Advance(ctx context.Context, choiceIndex int) error {
	if e.status != StatusInProgress {
		return nil
	}
	if choiceIndex < 0 || choiceIndex >= len(e.state.Choices) {
		e.logger.Debug("Ignoring out-of-range choice index", zap.Int("choiceIndex", choiceIndex))
		return nil
	}

	chosen := e.state.Choices[choiceIndex]
	nextNumber := e.state.SceneNumber + 1

	content, err := e.provider.GenerateScene(ctx, models.SceneRequest{
		ChoiceSummary: chosen.Summary,
		SceneNumber:   nextNumber,
		Config:        e.config,
		RecentHistory: e.recentHistory(),
	})
	if err != nil {
		return fmt.Errorf("generating scene %d: %w", nextNumber, err)
	}

	e.state.History = append(e.state.History, e.state.SceneText)
	e.state.SceneNumber = nextNumber
	e.applyScene(content)
	if content.Finished {
		e.status = StatusFinished
	}

	e.logger.Info("Story advanced",
		zap.Int("sceneNumber", e.state.SceneNumber),
		zap.String("choiceSummary", chosen.Summary),
		zap.Bool("finished", e.state.Finished),
	)
	return nil
}

// applyScene replaces the current scene fields from generated content.
// A finished scene carries no choices.
func (e *Engine) applyScene(content *models.SceneContent) {
	e.state.SceneText = content.Text
	e.state.ImagePrompt = content.ImagePrompt
	e.state.Finished = content.Finished
	if content.Finished {
		e.state.Choices = nil
	} else {
		e.state.Choices = append([]models.Choice(nil), content.Choices...)
	}
}

// recentHistory returns at most the last 3 history entries, the bounded
// context window for the next generation. The currently displayed scene is
// not part of history until it is superseded.
func (e *Engine) recentHistory() []string {
	h := e.state.History
	if len(h) > 3 {
		h = h[len(h)-3:]
	}
	return append([]string(nil), h...)
}

// FullTranscript returns history plus the current scene in narrative order,
// joined by a blank line. Callable in any state.
func (e *Engine) FullTranscript() string {
	parts := append(append([]string(nil), e.state.History...), e.state.SceneText)
	return strings.Join(parts, "\n\n")
}

// IsFinished reports whether the story reached its terminal state.
func (e *Engine) IsFinished() bool {
	return e.status == StatusFinished
}

// Status returns the lifecycle state.
func (e *Engine) Status() Status {
	return e.status
}

// State returns a copy of the current story state.
func (e *Engine) State() models.StoryState {
	return e.state.Clone()
}

// Config returns the immutable story configuration.
func (e *Engine) Config() models.StoryConfig {
	return e.config
}

// Rebind swaps the scene provider while preserving the narrative state.
// Provider bindings are stateless, so a story in progress continues where
// it left off with the new provider.
func (e *Engine) Rebind(provider scene.Provider) {
	e.provider = provider
}
