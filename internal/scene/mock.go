package scene

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"storyteller-server/internal/models"
)

// mockSeedBase is added to the scene number to seed the mock generator, so
// repeated runs produce the same flavor for the same scene.
const mockSeedBase = 42

// finalSceneNumber is the scene at which the mock story always ends,
// regardless of which choices were picked along the way.
const finalSceneNumber = 5

var mockAmbience = []string{
	"The night smelled of salt and possibility.",
	"Rain tapped a patient rhythm on the rooftops.",
	"Far off, a bell rang twice and fell silent.",
	"The wind carried a thread of unfamiliar music.",
}

// mockProvider is a deterministic, no-external-dependency stand-in for a
// remote generative capability.
type mockProvider struct {
	logger *zap.Logger
}

// NewMockProvider creates the mock scene provider.
func NewMockProvider(logger *zap.Logger) Provider {
	return &mockProvider{logger: logger.Named("MockSceneProvider")}
}

func (p *mockProvider) GenerateScene(_ context.Context, req models.SceneRequest) (*models.SceneContent, error) {
	sceneRequestsTotal.WithLabelValues("mock", "success").Inc()

	rnd := rand.New(rand.NewSource(int64(mockSeedBase + req.SceneNumber)))
	cfg := req.Config

	if req.Opening {
		theme := cfg.Theme
		if theme == "" {
			theme = "destiny"
		}
		text := fmt.Sprintf(
			"%s lived in %s, dreaming of %s adventures. "+
				"One stormy evening, a %s whisper slipped through the window, carrying a map inked with moonlight. "+
				"Following the map would mean trading comfort for mystery - and perhaps discovering a truth about %s."+
				"\n\nWhat will %s do next?",
			cfg.MainCharacter, cfg.Setting, strings.ToLower(cfg.Genre),
			strings.ToLower(cfg.Tone), theme, cfg.MainCharacter,
		)
		return &models.SceneContent{
			Text:        text,
			ImagePrompt: fmt.Sprintf("%s holding a glowing map in %s, stylized, cinematic lighting", cfg.MainCharacter, cfg.Setting),
			Choices: []models.Choice{
				{Label: "Study the map closely", Summary: "inspect_map"},
				{Label: "Sneak out into the rain", Summary: "venture_out"},
				{Label: "Ask a friend for help", Summary: "seek_friend"},
			},
			Finished: false,
		}, nil
	}

	summary := strings.ReplaceAll(req.ChoiceSummary, "_", " ")
	text := fmt.Sprintf(
		"Choosing to %s, %s stepped forward. %s "+
			"A stray cat traced circles around their ankles as lanterns flickered awake across the harbor. "+
			"Somewhere, a door creaked - the map responded with a pulse of cool light.",
		summary, cfg.MainCharacter, mockAmbience[rnd.Intn(len(mockAmbience))],
	)
	imagePrompt := fmt.Sprintf("%s in the rain near the harbor; lanterns and reflections; moody; %s", cfg.MainCharacter, req.ChoiceSummary)

	if req.SceneNumber >= finalSceneNumber {
		text += "\n\nAt last, the journey's first chapter closed - with courage awakened."
		return &models.SceneContent{
			Text:        text,
			ImagePrompt: imagePrompt,
			Choices:     nil,
			Finished:    true,
		}, nil
	}

	return &models.SceneContent{
		Text:        text,
		ImagePrompt: imagePrompt,
		Choices: []models.Choice{
			{Label: "Follow the pulsing glow", Summary: "follow_glow"},
			{Label: "Enter the creaking door", Summary: "enter_door"},
		},
		Finished: false,
	}, nil
}
