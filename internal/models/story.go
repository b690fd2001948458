package models

// StoryConfig describes the immutable parameters of one story.
// It is set once when the story starts and never changes afterwards.
type StoryConfig struct {
	Genre         string `json:"genre"`
	TargetAge     string `json:"target_age"`
	Tone          string `json:"tone"`
	ReadingLevel  int    `json:"reading_level"` // 1 (simpler) .. 5 (complex)
	MainCharacter string `json:"main_character"`
	Setting       string `json:"setting"`
	Theme         string `json:"theme,omitempty"`
}

// Choice is one reader-facing option at the end of a scene.
// Label is shown to the reader; Summary is the machine-facing token that
// conditions the next generation step.
type Choice struct {
	Label   string `json:"label"`
	Summary string `json:"summary"`
}

// SceneContent is the result of one generation step. It is transient and
// consumed immediately by the engine to update StoryState.
type SceneContent struct {
	Text        string   `json:"text"`
	ImagePrompt string   `json:"image_prompt"`
	Choices     []Choice `json:"choices"`
	Finished    bool     `json:"finished"`
}

// SceneRequest carries the generation context for a single scene.
// SceneNumber is the number the generated scene will be displayed under.
// RecentHistory holds at most the last 3 previous scene texts; older history
// is dropped to keep the context window bounded.
type SceneRequest struct {
	Opening       bool
	ChoiceSummary string
	SceneNumber   int
	Config        StoryConfig
	RecentHistory []string
}

// StoryState is the mutable narrative state of one story. It is owned
// exclusively by the engine and mutated only through Start/Advance.
type StoryState struct {
	SceneNumber int      `json:"scene_number"`
	History     []string `json:"history"`
	SceneText   string   `json:"scene_text"`
	ImagePrompt string   `json:"image_prompt"`
	Choices     []Choice `json:"choices"`
	Finished    bool     `json:"finished"`
}

// Clone returns a deep copy of the state, safe to hand out past the
// engine's lock.
func (s StoryState) Clone() StoryState {
	out := s
	out.History = append([]string(nil), s.History...)
	out.Choices = append([]Choice(nil), s.Choices...)
	return out
}

// ProviderBindings names the provider variant and model for each capability
// of a session. Bindings are stateless and can be swapped mid-story while
// the narrative state is preserved.
type ProviderBindings struct {
	Text       string `json:"text,omitempty"`        // mock | openai | ollama
	TextModel  string `json:"text_model,omitempty"`  //
	Image      string `json:"image,omitempty"`       // placeholder | openai
	ImageModel string `json:"image_model,omitempty"` //
	TTS        string `json:"tts,omitempty"`         // placeholder | openai
	TTSModel   string `json:"tts_model,omitempty"`   //
	TTSVoice   string `json:"tts_voice,omitempty"`   //
}
