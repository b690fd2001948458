package session

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyteller-server/internal/config"
	"storyteller-server/internal/export"
	"storyteller-server/internal/models"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	cfg := &config.Config{
		AIClientType:    "mock",
		AIModel:         "mock-model",
		ImageClientType: "placeholder",
		TTSClientType:   "placeholder",
		TTSVoice:        "alloy",
		ExportDir:       t.TempDir(),
	}
	return NewManager(cfg, zap.NewNop())
}

func storyConfig() models.StoryConfig {
	return models.StoryConfig{
		Genre:         "Fantasy",
		TargetAge:     "8-10",
		Tone:          "whimsical",
		ReadingLevel:  2,
		MainCharacter: "Asha the fox",
		Setting:       "a moonlit forest",
	}
}

func TestManager_CreateStartsStory(t *testing.T) {
	m := testManager(t)

	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	state := s.State()
	assert.Equal(t, 1, state.SceneNumber)
	assert.False(t, state.Finished)
	assert.NotEmpty(t, state.Choices)

	bindings := s.Bindings()
	assert.Equal(t, "mock", bindings.Text)
	assert.Equal(t, "placeholder", bindings.Image)
	assert.Equal(t, "placeholder", bindings.TTS)
}

func TestManager_CreateWithOverrides(t *testing.T) {
	m := testManager(t)

	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{
		TTSVoice: "coral",
	})
	require.NoError(t, err)

	bindings := s.Bindings()
	assert.Equal(t, "coral", bindings.TTSVoice)
	assert.Equal(t, "mock", bindings.Text) // untouched default
}

func TestManager_CreateRejectsUnknownProvider(t *testing.T) {
	m := testManager(t)

	_, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{Text: "semaphore"})
	assert.ErrorIs(t, err, models.ErrUnknownProviderKind)
}

func TestManager_GetAndDelete(t *testing.T) {
	m := testManager(t)

	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get(uuid.New())
	assert.ErrorIs(t, err, models.ErrNotFound)

	m.Delete(s.ID)
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSession_AdvanceToTheEnd(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	var state models.StoryState
	for i := 0; i < 4; i++ {
		state, err = s.Advance(context.Background(), 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 5, state.SceneNumber)
	assert.True(t, state.Finished)
	assert.Empty(t, state.Choices)
	assert.True(t, s.IsFinished())

	// A further advance leaves the state unchanged.
	after, err := s.Advance(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, state, after)
}

func TestSession_IllustrateCachesPerScene(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	first, err := s.Illustrate(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := s.Illustrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSession_NarratePathTracking(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	_, err = s.NarrationPath()
	assert.ErrorIs(t, err, models.ErrNotFound)

	path, err := s.Narrate(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, path)

	tracked, err := s.NarrationPath()
	require.NoError(t, err)
	assert.Equal(t, path, tracked)

	// Advancing moves to a scene without narration yet.
	_, err = s.Advance(context.Background(), 0)
	require.NoError(t, err)
	_, err = s.NarrationPath()
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSession_ExportZipContainsTranscriptAndMedia(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	_, err = s.Advance(context.Background(), 0)
	require.NoError(t, err)
	_, err = s.Illustrate(context.Background())
	require.NoError(t, err)
	_, err = s.Narrate(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.ExportZip(&buf))

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, export.TranscriptFilename)
	assert.Contains(t, names, "scene_02.png")
	assert.Contains(t, names, "scene_02.wav")
}

func TestSession_RebindKeepsNarrativeState(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	_, err = s.Advance(context.Background(), 0)
	require.NoError(t, err)
	before := s.State()

	require.NoError(t, s.Rebind(models.ProviderBindings{TTSVoice: "coral"}))

	assert.Equal(t, before, s.State())
	assert.Equal(t, "coral", s.Bindings().TTSVoice)
	assert.Equal(t, "mock", s.Bindings().Text)

	err = s.Rebind(models.ProviderBindings{Text: "telegraph"})
	assert.ErrorIs(t, err, models.ErrUnknownProviderKind)
	// The failed rebind left the previous bindings in place.
	assert.Equal(t, "coral", s.Bindings().TTSVoice)
}

func TestSession_SubscribeReceivesSceneUpdates(t *testing.T) {
	m := testManager(t)
	s, err := m.Create(context.Background(), storyConfig(), models.ProviderBindings{})
	require.NoError(t, err)

	updates, cancel := s.Subscribe()
	defer cancel()

	_, err = s.Advance(context.Background(), 0)
	require.NoError(t, err)

	select {
	case payload := <-updates:
		assert.Contains(t, string(payload), `"type":"scene_update"`)
		assert.Contains(t, string(payload), s.ID.String())
		assert.Contains(t, string(payload), `"scene_number":2`)
	default:
		t.Fatal("expected a scene update on the subscriber channel")
	}
}
