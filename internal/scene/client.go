package scene

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storyteller-server/internal/models"
)

// Provider generates one scene per call. Implementations: mock (deterministic
// templates), openai (chat completions), ollama (local models).
type Provider interface {
	GenerateScene(ctx context.Context, req models.SceneRequest) (*models.SceneContent, error)
}

// Options configures a remote scene provider. A single generation call is
// made per scene: no retries, no streaming, bounded by Timeout.
type Options struct {
	Kind        string // mock | openai | ollama
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// NewProvider selects the provider variant by Options.Kind. An openai kind
// without an API key silently downgrades to the mock provider; capability
// absence is not an error.
func NewProvider(opts Options, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(opts.Kind) {
	case "mock", "":
		return NewMockProvider(logger), nil
	case "openai":
		if opts.APIKey == "" {
			logger.Info("No AI API key configured, downgrading scene provider to mock")
			return NewMockProvider(logger), nil
		}
		clientConfig := openaigo.DefaultConfig(opts.APIKey)
		if opts.BaseURL != "" {
			clientConfig.BaseURL = opts.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: opts.Timeout}
		logger.Info("OpenAI scene provider created",
			zap.String("baseURL", clientConfig.BaseURL),
			zap.String("model", opts.Model),
			zap.Duration("timeout", opts.Timeout),
		)
		return &openAIProvider{
			client:      openaigo.NewClientWithConfig(clientConfig),
			model:       opts.Model,
			temperature: opts.Temperature,
			logger:      logger.Named("OpenAISceneProvider"),
		}, nil
	case "ollama":
		return newOllamaProvider(opts, logger)
	default:
		return nil, fmt.Errorf("%w: '%s'", models.ErrUnknownProviderKind, opts.Kind)
	}
}

// --- OpenAI implementation ---

type openAIProvider struct {
	client      *openaigo.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

func (p *openAIProvider) GenerateScene(ctx context.Context, req models.SceneRequest) (*models.SceneContent, error) {
	systemPrompt := buildSystemPrompt(req.Config)
	userPrompt := buildUserPrompt(req)

	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: p.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openaigo.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: p.temperature,
	})
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("OpenAI API call failed", zap.Duration("duration", duration), zap.Error(err))
		sceneRequestsTotal.With(prometheus.Labels{"provider": "openai", "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		p.logger.Error("OpenAI API returned an empty response", zap.Duration("duration", duration))
		sceneRequestsTotal.With(prometheus.Labels{"provider": "openai", "status": "error_empty_response"}).Inc()
		return nil, fmt.Errorf("%w: empty response", models.ErrProviderUnavailable)
	}

	sceneRequestsTotal.With(prometheus.Labels{"provider": "openai", "status": "success"}).Inc()
	sceneRequestDuration.With(prometheus.Labels{"provider": "openai"}).Observe(duration.Seconds())

	raw := resp.Choices[0].Message.Content
	p.logger.Debug("OpenAI response received",
		zap.Duration("duration", duration),
		zap.Int("length", len(raw)),
	)

	promptTokens := resp.Usage.PromptTokens
	completionTokens := resp.Usage.CompletionTokens
	if resp.Usage.TotalTokens == 0 {
		// Some OpenAI-compatible backends omit usage; estimate with tiktoken.
		promptTokens, completionTokens = estimateTokens(p.model, systemPrompt+userPrompt, raw)
	}
	observeUsage("openai", promptTokens, completionTokens)

	return ParseSceneOutput(raw, req.Config), nil
}

// estimateTokens approximates prompt/completion token counts when the API
// response carries no usage block.
func estimateTokens(model, prompt, completion string) (int, int) {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return 0, 0
	}
	return len(tke.Encode(prompt, nil, nil)), len(tke.Encode(completion, nil, nil))
}

// --- Ollama implementation ---

type ollamaProvider struct {
	client      *ollamaapi.Client
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

func newOllamaProvider(opts Options, logger *zap.Logger) (Provider, error) {
	// The ollama client wants the base URL without the /v1 suffix.
	baseURL := strings.TrimSuffix(opts.BaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base URL '%s': %w", baseURL, err)
	}

	logger.Info("Ollama scene provider created",
		zap.String("baseURL", baseURL),
		zap.String("model", opts.Model),
		zap.Duration("timeout", opts.Timeout),
	)

	return &ollamaProvider{
		client:      ollamaapi.NewClient(parsedURL, &http.Client{Timeout: opts.Timeout}),
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
		logger:      logger.Named("OllamaSceneProvider"),
	}, nil
}

func (p *ollamaProvider) GenerateScene(ctx context.Context, req models.SceneRequest) (*models.SceneContent, error) {
	systemPrompt := buildSystemPrompt(req.Config)
	userPrompt := buildUserPrompt(req)

	chatReq := &ollamaapi.ChatRequest{
		Model: p.model,
		Messages: []ollamaapi.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: func(b bool) *bool { return &b }(false),
		Options: map[string]interface{}{
			"temperature": p.temperature,
		},
	}

	requestCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var resp ollamaapi.ChatResponse
	err := p.client.Chat(requestCtx, chatReq, func(r ollamaapi.ChatResponse) error {
		resp = r
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		p.logger.Error("Ollama API call failed", zap.Duration("duration", duration), zap.Error(err))
		sceneRequestsTotal.With(prometheus.Labels{"provider": "ollama", "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if resp.Message.Content == "" {
		p.logger.Error("Ollama API returned an empty response", zap.Duration("duration", duration))
		sceneRequestsTotal.With(prometheus.Labels{"provider": "ollama", "status": "error_empty_response"}).Inc()
		return nil, fmt.Errorf("%w: empty response", models.ErrProviderUnavailable)
	}

	sceneRequestsTotal.With(prometheus.Labels{"provider": "ollama", "status": "success"}).Inc()
	sceneRequestDuration.With(prometheus.Labels{"provider": "ollama"}).Observe(duration.Seconds())
	observeUsage("ollama", resp.PromptEvalCount, resp.EvalCount)

	return ParseSceneOutput(resp.Message.Content, req.Config), nil
}
