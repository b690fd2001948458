package narration

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storyteller-server/internal/models"
)

// Silent placeholder parameters: 8000 samples at 8000 Hz, one second of
// silence, 16-bit mono.
const (
	placeholderSamples    = 8000
	placeholderSampleRate = 8000
	placeholderBitDepth   = 16
)

// Narrator turns scene text into an audio file under outDir and returns the
// written path. Every variant always writes a file when invoked: remote
// failures downgrade to the silent placeholder so narration never aborts
// scene rendering.
type Narrator interface {
	Narrate(ctx context.Context, text string, sceneNumber int, outDir string) (string, error)
}

// Options configures a narrator.
type Options struct {
	Kind    string // placeholder | openai
	BaseURL string
	APIKey  string
	Model   string
	Voice   string
	Timeout time.Duration
}

// NewNarrator selects the narrator variant by Options.Kind. An openai kind
// without an API key downgrades to the placeholder.
func NewNarrator(opts Options, logger *zap.Logger) (Narrator, error) {
	switch strings.ToLower(opts.Kind) {
	case "placeholder", "mock", "":
		return &placeholderNarrator{logger: logger.Named("PlaceholderNarrator")}, nil
	case "openai":
		if opts.APIKey == "" {
			logger.Info("No AI API key configured, downgrading narrator to placeholder")
			return &placeholderNarrator{logger: logger.Named("PlaceholderNarrator")}, nil
		}
		clientConfig := openaigo.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			clientConfig.BaseURL = opts.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
		return &openAINarrator{
			client:      openaigo.NewClientWithConfig(clientConfig),
			model:       opts.Model,
			voice:       opts.Voice,
			placeholder: placeholderNarrator{logger: logger.Named("PlaceholderNarrator")},
			logger:      logger.Named("OpenAINarrator"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", models.ErrUnknownProviderKind, opts.Kind)
	}
}

// --- Placeholder implementation ---

type placeholderNarrator struct {
	logger *zap.Logger
}

func (n *placeholderNarrator) Narrate(_ context.Context, _ string, sceneNumber int, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create narration dir: %w", err)
	}
	path := filepath.Join(outDir, fmt.Sprintf("scene_%02d.wav", sceneNumber))
	if err := writeSilentWav(path); err != nil {
		return "", err
	}
	n.logger.Debug("Silent narration placeholder written", zap.String("path", path))
	return path, nil
}

// writeSilentWav writes the fixed-length silent placeholder file.
func writeSilentWav(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create narration file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, placeholderSampleRate, placeholderBitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: placeholderSampleRate},
		Data:           make([]int, placeholderSamples),
		SourceBitDepth: placeholderBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return nil
}

// --- OpenAI implementation ---

type openAINarrator struct {
	client      *openaigo.Client
	model       string
	voice       string
	placeholder placeholderNarrator
	logger      *zap.Logger
}

func (n *openAINarrator) Narrate(ctx context.Context, text string, sceneNumber int, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create narration dir: %w", err)
	}

	start := time.Now()
	speech, err := n.client.CreateSpeech(ctx, openaigo.CreateSpeechRequest{
		Model:          openaigo.SpeechModel(n.model),
		Voice:          openaigo.SpeechVoice(n.voice),
		Input:          text,
		ResponseFormat: openaigo.SpeechResponseFormatMp3,
	})
	if err != nil {
		// Narration failure never aborts rendering: downgrade to silence.
		n.logger.Warn("Speech API call failed, writing silent placeholder",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return n.placeholder.Narrate(ctx, text, sceneNumber, outDir)
	}
	defer speech.Close()

	path := filepath.Join(outDir, fmt.Sprintf("scene_%02d.mp3", sceneNumber))
	f, err := os.Create(path)
	if err != nil {
		n.logger.Warn("Failed to create narration file, writing silent placeholder", zap.Error(err))
		return n.placeholder.Narrate(ctx, text, sceneNumber, outDir)
	}
	defer f.Close()

	if _, err := io.Copy(f, speech); err != nil {
		n.logger.Warn("Failed to write narration audio, writing silent placeholder", zap.Error(err))
		return n.placeholder.Narrate(ctx, text, sceneNumber, outDir)
	}

	n.logger.Info("Scene narrated",
		zap.Int("sceneNumber", sceneNumber),
		zap.String("path", path),
		zap.Duration("duration", time.Since(start)),
	)
	return path, nil
}
