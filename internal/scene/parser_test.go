package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller-server/internal/models"
)

func testConfig() models.StoryConfig {
	return models.StoryConfig{
		Genre:         "Fantasy",
		TargetAge:     "8-10",
		Tone:          "whimsical",
		ReadingLevel:  2,
		MainCharacter: "Asha the fox",
		Setting:       "a moonlit forest",
		Theme:         "courage",
	}
}

func TestParseSceneOutput_WellFormed(t *testing.T) {
	raw := `<SCENE>
Asha crept between the silver trees.
</SCENE>
<IMAGE_PROMPT>
A fox under silver trees, moonlight, storybook style
</IMAGE_PROMPT>
<CHOICES>
1) Climb the tallest tree — climb_tree
2) Follow the firefly trail — follow_fireflies
</CHOICES>
<FINISHED>
false
</FINISHED>`

	content := ParseSceneOutput(raw, testConfig())

	assert.Equal(t, "Asha crept between the silver trees.", content.Text)
	assert.Equal(t, "A fox under silver trees, moonlight, storybook style", content.ImagePrompt)
	assert.False(t, content.Finished)
	require.Len(t, content.Choices, 2)
	assert.Equal(t, models.Choice{Label: "Climb the tallest tree", Summary: "climb_tree"}, content.Choices[0])
	assert.Equal(t, models.Choice{Label: "Follow the firefly trail", Summary: "follow_fireflies"}, content.Choices[1])
}

func TestParseSceneOutput_NoTagsFallsBackEverywhere(t *testing.T) {
	raw := "  The model ignored the format and wrote prose.  "

	content := ParseSceneOutput(raw, testConfig())

	assert.Equal(t, "The model ignored the format and wrote prose.", content.Text)
	assert.Equal(t, "Illustration of Asha the fox in a moonlit forest.", content.ImagePrompt)
	assert.False(t, content.Finished)
	require.Len(t, content.Choices, 2)
	assert.Equal(t, models.Choice{Label: "Go left", Summary: "left_path"}, content.Choices[0])
	assert.Equal(t, models.Choice{Label: "Go right", Summary: "right_path"}, content.Choices[1])
}

func TestParseSceneOutput_MalformedChoiceLinesAreSkipped(t *testing.T) {
	raw := `<SCENE>Text.</SCENE>
<CHOICES>
1) Good line — good_summary
this line has no marker
2) missing separator
3) Another good one — another_one
</CHOICES>`

	content := ParseSceneOutput(raw, testConfig())

	require.Len(t, content.Choices, 2)
	assert.Equal(t, "good_summary", content.Choices[0].Summary)
	assert.Equal(t, "another_one", content.Choices[1].Summary)
}

func TestParseSceneOutput_FinishedSuppressesDefaultChoices(t *testing.T) {
	raw := `<SCENE>The end.</SCENE>
<FINISHED>True</FINISHED>`

	content := ParseSceneOutput(raw, testConfig())

	assert.True(t, content.Finished)
	assert.Empty(t, content.Choices)
}

func TestParseSceneOutput_FinishedNotTrue(t *testing.T) {
	raw := `<SCENE>More to come.</SCENE>
<FINISHED>nope</FINISHED>`

	content := ParseSceneOutput(raw, testConfig())

	assert.False(t, content.Finished)
}

func TestExtractTag_InvertedTagsYieldEmpty(t *testing.T) {
	raw := "</SCENE>backwards<SCENE>"
	assert.Equal(t, "", extractTag(raw, "SCENE"))
}

func TestExtractTag_FirstOccurrenceWins(t *testing.T) {
	raw := "<SCENE>first</SCENE><SCENE>second</SCENE>"
	assert.Equal(t, "first", extractTag(raw, "SCENE"))
}
