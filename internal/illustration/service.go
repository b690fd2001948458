package illustration

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storyteller-server/internal/models"
)

// Generator produces one illustration per scene. Every variant must return
// some visual artifact: the placeholder renders a local PNG even with no
// remote capability configured.
type Generator interface {
	Generate(ctx context.Context, prompt string, seed int) ([]byte, error)
}

// Options configures an illustration generator.
type Options struct {
	Kind    string // placeholder | openai
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGenerator selects the generator variant by Options.Kind. An openai kind
// without an API key downgrades to the placeholder.
func NewGenerator(opts Options, logger *zap.Logger) (Generator, error) {
	switch strings.ToLower(opts.Kind) {
	case "placeholder", "mock", "":
		return &placeholderGenerator{logger: logger.Named("PlaceholderIllustrator")}, nil
	case "openai":
		if opts.APIKey == "" {
			logger.Info("No AI API key configured, downgrading illustration generator to placeholder")
			return &placeholderGenerator{logger: logger.Named("PlaceholderIllustrator")}, nil
		}
		clientConfig := openaigo.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			clientConfig.BaseURL = opts.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
		return &openAIGenerator{
			client: openaigo.NewClientWithConfig(clientConfig),
			model:  opts.Model,
			logger: logger.Named("OpenAIIllustrator"),
		}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", models.ErrUnknownProviderKind, opts.Kind)
	}
}

// --- OpenAI implementation ---

type openAIGenerator struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	start := time.Now()
	resp, err := g.client.CreateImage(ctx, openaigo.ImageRequest{
		Model:          g.model,
		Prompt:         prompt,
		N:              1,
		Size:           openaigo.CreateImageSize1024x1024,
		ResponseFormat: openaigo.CreateImageResponseFormatB64JSON,
	})
	duration := time.Since(start)

	if err != nil {
		g.logger.Error("Image API call failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		g.logger.Error("Image API returned empty data", zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: empty image data", models.ErrProviderUnavailable)
	}

	imageData, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	g.logger.Info("Illustration generated",
		zap.Duration("duration", duration),
		zap.Int("size_bytes", len(imageData)),
		zap.Int("seed", seed),
	)
	return imageData, nil
}
