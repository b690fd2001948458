package scene

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storyteller-server/internal/models"
)

func TestMockProvider_OpeningScene(t *testing.T) {
	provider := NewMockProvider(zap.NewNop())

	content, err := provider.GenerateScene(context.Background(), models.SceneRequest{
		Opening:     true,
		SceneNumber: 1,
		Config:      testConfig(),
	})
	require.NoError(t, err)

	assert.Contains(t, content.Text, "Asha the fox")
	assert.Contains(t, content.Text, "a moonlit forest")
	assert.False(t, content.Finished)
	require.Len(t, content.Choices, 3)
	assert.Equal(t, "inspect_map", content.Choices[0].Summary)
	assert.Equal(t, "venture_out", content.Choices[1].Summary)
	assert.Equal(t, "seek_friend", content.Choices[2].Summary)
	assert.NotEmpty(t, content.ImagePrompt)
}

func TestMockProvider_ContinuationEchoesChoice(t *testing.T) {
	provider := NewMockProvider(zap.NewNop())

	content, err := provider.GenerateScene(context.Background(), models.SceneRequest{
		ChoiceSummary: "inspect_map",
		SceneNumber:   2,
		Config:        testConfig(),
	})
	require.NoError(t, err)

	assert.Contains(t, content.Text, "inspect map")
	assert.False(t, content.Finished)
	require.Len(t, content.Choices, 2)
}

func TestMockProvider_FinishesAtFinalScene(t *testing.T) {
	provider := NewMockProvider(zap.NewNop())

	content, err := provider.GenerateScene(context.Background(), models.SceneRequest{
		ChoiceSummary: "follow_glow",
		SceneNumber:   5,
		Config:        testConfig(),
	})
	require.NoError(t, err)

	assert.True(t, content.Finished)
	assert.Empty(t, content.Choices)
}

func TestMockProvider_Deterministic(t *testing.T) {
	provider := NewMockProvider(zap.NewNop())
	req := models.SceneRequest{
		ChoiceSummary: "venture_out",
		SceneNumber:   3,
		Config:        testConfig(),
	}

	first, err := provider.GenerateScene(context.Background(), req)
	require.NoError(t, err)
	second, err := provider.GenerateScene(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNewProvider_UnknownKind(t *testing.T) {
	_, err := NewProvider(Options{Kind: "carrier-pigeon"}, zap.NewNop())
	assert.ErrorIs(t, err, models.ErrUnknownProviderKind)
}

func TestNewProvider_OpenAIWithoutKeyDowngradesToMock(t *testing.T) {
	provider, err := NewProvider(Options{Kind: "openai"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &mockProvider{}, provider)
}
