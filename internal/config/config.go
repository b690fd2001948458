package config

import (
	"fmt"
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the storyteller server. All recognized
// options are enumerated here; components receive the struct explicitly
// instead of doing ambient environment lookups.
type Config struct {
	// Server settings
	Port               string   `envconfig:"PORT" default:"8080"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding        string   `envconfig:"LOG_ENCODING" default:"json"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Text generation settings
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"mock"` // mock | openai | ollama
	AIBaseURL     string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AIModel       string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AITemperature float32       `envconfig:"AI_TEMPERATURE" default:"0.9"`
	AIAPIKey      string        `envconfig:"AI_API_KEY"`

	// Illustration settings
	ImageClientType string `envconfig:"IMAGE_CLIENT_TYPE" default:"placeholder"` // placeholder | openai
	ImageModel      string `envconfig:"IMAGE_MODEL" default:"gpt-image-1"`

	// Narration settings
	TTSClientType string `envconfig:"TTS_CLIENT_TYPE" default:"placeholder"` // placeholder | openai
	TTSModel      string `envconfig:"TTS_MODEL" default:"gpt-4o-mini-tts"`
	TTSVoice      string `envconfig:"TTS_VOICE" default:"alloy"`

	// Export settings
	ExportDir string `envconfig:"EXPORT_DIR" default:"exports"`
}

// LoadConfig loads the configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log the effective non-secret values.
	log.Printf("Configuration loaded:")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  Log Level: %s", cfg.LogLevel)
	log.Printf("  AI Client Type: %s", cfg.AIClientType)
	log.Printf("  AI Base URL: %s", cfg.AIBaseURL)
	log.Printf("  AI Model: %s", cfg.AIModel)
	log.Printf("  AI Timeout: %v", cfg.AITimeout)
	log.Printf("  AI Temperature: %.2f", cfg.AITemperature)
	log.Printf("  Image Client Type: %s", cfg.ImageClientType)
	log.Printf("  Image Model: %s", cfg.ImageModel)
	log.Printf("  TTS Client Type: %s", cfg.TTSClientType)
	log.Printf("  TTS Model: %s", cfg.TTSModel)
	log.Printf("  TTS Voice: %s", cfg.TTSVoice)
	log.Printf("  Export Dir: %s", cfg.ExportDir)
	if cfg.AIAPIKey != "" {
		log.Println("  AI API Key: [SET]")
	} else {
		log.Println("  AI API Key: [NOT SET]")
	}

	return &cfg, nil
}
