package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storyteller-server/internal/models"
)

func TestBuildSystemPrompt_EmbedsConfigAndFormat(t *testing.T) {
	prompt := buildSystemPrompt(testConfig())

	assert.Contains(t, prompt, "Genre: Fantasy.")
	assert.Contains(t, prompt, "Asha the fox")
	assert.Contains(t, prompt, "Theme: courage.")
	assert.Contains(t, prompt, "<SCENE>")
	assert.Contains(t, prompt, "<FINISHED>true|false</FINISHED>")
}

func TestBuildSystemPrompt_NoThemeLine(t *testing.T) {
	cfg := testConfig()
	cfg.Theme = ""
	assert.NotContains(t, buildSystemPrompt(cfg), "Theme:")
}

func TestBuildUserPrompt_Opening(t *testing.T) {
	prompt := buildUserPrompt(models.SceneRequest{Opening: true, SceneNumber: 1})
	assert.Contains(t, prompt, "Opening scene.")
}

func TestBuildUserPrompt_ContinuationBoundsHistory(t *testing.T) {
	prompt := buildUserPrompt(models.SceneRequest{
		ChoiceSummary: "inspect_map",
		SceneNumber:   6,
		RecentHistory: []string{"one", "two", "three", "four", "five"},
	})

	assert.Contains(t, prompt, "Continue based on choice: inspect_map.")
	assert.NotContains(t, prompt, "one")
	assert.NotContains(t, prompt, "two")
	assert.Contains(t, prompt, "three")
	assert.Contains(t, prompt, "four")
	assert.Contains(t, prompt, "five")
}
