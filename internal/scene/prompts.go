package scene

import (
	"fmt"
	"strings"

	"storyteller-server/internal/models"
)

// maxHistoryEntries bounds how many past scene texts are sent back to the
// model. Older history is dropped.
const maxHistoryEntries = 3

// buildSystemPrompt embeds the story configuration and the fixed output
// format contract into the system instruction.
func buildSystemPrompt(cfg models.StoryConfig) string {
	var sb strings.Builder

	sb.WriteString("You are a master interactive storyteller. ")
	sb.WriteString(fmt.Sprintf("Genre: %s. Tone: %s. ", cfg.Genre, cfg.Tone))
	sb.WriteString(fmt.Sprintf("Target age: %s. Reading level %d/5.", cfg.TargetAge, cfg.ReadingLevel))
	sb.WriteString(fmt.Sprintf(" The main character is %s in %s.", cfg.MainCharacter, cfg.Setting))
	if cfg.Theme != "" {
		sb.WriteString(fmt.Sprintf(" Theme: %s.", cfg.Theme))
	}
	sb.WriteString(" Write vivid, concise scenes (120-220 words). ")
	sb.WriteString("End each scene with 2-3 numbered choices the reader can pick. ")
	sb.WriteString("Return output in this format:\n")
	sb.WriteString("<SCENE>\n...text...\n</SCENE>\n")
	sb.WriteString("<IMAGE_PROMPT>...one-line visual prompt...</IMAGE_PROMPT>\n")
	sb.WriteString("<CHOICES>\n1) label — summary\n2) label — summary\n</CHOICES>\n")
	sb.WriteString("<FINISHED>true|false</FINISHED>")

	return sb.String()
}

// buildUserPrompt embeds whether this is an opener, the chosen summary and
// the bounded recent history into the user instruction.
func buildUserPrompt(req models.SceneRequest) string {
	prefix := "Opening scene."
	if !req.Opening {
		prefix = fmt.Sprintf("Continue based on choice: %s.", req.ChoiceSummary)
	}

	history := req.RecentHistory
	if len(history) > maxHistoryEntries {
		history = history[len(history)-maxHistoryEntries:]
	}

	return fmt.Sprintf("%s\n\nRecent scenes:\n%s\n", prefix, strings.Join(history, "\n"))
}
