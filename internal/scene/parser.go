package scene

import (
	"fmt"
	"strings"

	"storyteller-server/internal/models"
)

// Delimiter tags of the model output contract. The system prompt instructs
// the model to wrap each field in these tags; ParseSceneOutput extracts them
// back out.
const (
	tagScene       = "SCENE"
	tagImagePrompt = "IMAGE_PROMPT"
	tagChoices     = "CHOICES"
	tagFinished    = "FINISHED"
)

// choiceSeparator splits a choice line into label and summary.
const choiceSeparator = "—"

// ParseSceneOutput extracts structured scene content from a raw model reply.
// A missing or malformed field is never an error: every field degrades to a
// documented fallback so the pipeline cannot abort on unparseable output.
func ParseSceneOutput(raw string, cfg models.StoryConfig) *models.SceneContent {
	sceneText := extractTag(raw, tagScene)
	if sceneText == "" {
		sceneText = strings.TrimSpace(raw)
	}

	imagePrompt := extractTag(raw, tagImagePrompt)
	if imagePrompt == "" {
		imagePrompt = fmt.Sprintf("Illustration of %s in %s.", cfg.MainCharacter, cfg.Setting)
	}

	finished := strings.Contains(strings.ToLower(extractTag(raw, tagFinished)), "true")

	choices := parseChoiceLines(extractTag(raw, tagChoices))
	if len(choices) == 0 && !finished {
		choices = []models.Choice{
			{Label: "Go left", Summary: "left_path"},
			{Label: "Go right", Summary: "right_path"},
		}
	}

	return &models.SceneContent{
		Text:        sceneText,
		ImagePrompt: imagePrompt,
		Choices:     choices,
		Finished:    finished,
	}
}

// extractTag returns the trimmed content between the first <TAG> and the
// first </TAG>. Absent or inverted tags yield an empty string.
func extractTag(text, tag string) string {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(text, open)
	end := strings.Index(text, closing)
	if start == -1 || end == -1 {
		return ""
	}
	start += len(open)
	if end < start {
		return ""
	}
	return strings.TrimSpace(text[start:end])
}

// parseChoiceLines parses the CHOICES block. Each non-empty line is expected
// as `<number>) <label> — <summary>`; a line missing the `") "` marker or the
// em-dash separator is silently dropped.
func parseChoiceLines(block string) []models.Choice {
	if block == "" {
		return nil
	}

	var choices []models.Choice
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.Contains(line, ") ") || !strings.Contains(line, choiceSeparator) {
			continue
		}
		_, afterNum, found := strings.Cut(line, ") ")
		if !found {
			continue
		}
		label, summary, found := strings.Cut(afterNum, choiceSeparator)
		if !found {
			continue
		}
		choices = append(choices, models.Choice{
			Label:   strings.TrimSpace(label),
			Summary: strings.TrimSpace(summary),
		})
	}
	return choices
}
