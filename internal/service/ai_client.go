package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"storypals-server/internal/config"
)

// Метрики AI клиента.
var (
	aiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storypals_ai_requests_total",
		Help: "Total number of AI text generation requests.",
	}, []string{"provider", "outcome"})

	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storypals_ai_request_duration_seconds",
		Help:    "Duration of AI text generation requests.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"provider"})

	aiPromptTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storypals_ai_prompt_tokens_total",
		Help: "Estimated prompt tokens sent to the AI provider.",
	}, []string{"provider"})
)

// GenerationParams - параметры одного запроса генерации текста.
// nil означает "значение по умолчанию провайдера".
type GenerationParams struct {
	Temperature *float64
	MaxTokens   *int
}

// AIClient - общий интерфейс текстовой генерации: OpenAI-совместимый
// endpoint или локальная Ollama, выбирается конфигурацией.
type AIClient interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error)
}

// NewAIClient выбирает реализацию по AI_PROVIDER.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch cfg.AIProvider {
	case "ollama":
		return newOllamaAIClient(cfg, logger)
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %q", cfg.AIProvider)
	}
}

// estimatePromptTokens оценивает размер промпта в токенах для метрик.
// Оценка, не биллинг: ошибки энкодера просто игнорируются.
func estimatePromptTokens(provider, systemPrompt, userPrompt string) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return
	}
	total := len(enc.Encode(systemPrompt, nil, nil)) + len(enc.Encode(userPrompt, nil, nil))
	aiPromptTokens.WithLabelValues(provider).Add(float64(total))
}

// Compile-time check to ensure openAIClient implements AIClient
var _ AIClient = (*openAIClient)(nil)

// openAIClient - реализация поверх OpenAI-совместимого API.
type openAIClient struct {
	logger *zap.Logger
	client *openai.Client
	model  string
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) *openAIClient {
	clientConfig := openai.DefaultConfig(cfg.AIAPIKey)
	clientConfig.BaseURL = cfg.AIBaseURL
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	return &openAIClient{
		logger: logger.Named("OpenAIClient"),
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.AIModel,
	}
}

func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error) {
	estimatePromptTokens("openai", systemPrompt, userPrompt)

	request := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if params.Temperature != nil {
		request.Temperature = float32(*params.Temperature)
	}
	if params.MaxTokens != nil {
		request.MaxTokens = *params.MaxTokens
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiRequestDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues("openai", "error").Inc()
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues("openai", "error").Inc()
		return "", fmt.Errorf("received empty response from API")
	}

	aiRequestsTotal.WithLabelValues("openai", "success").Inc()
	c.logger.Debug("Chat completion done",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Compile-time check to ensure ollamaAIClient implements AIClient
var _ AIClient = (*ollamaAIClient)(nil)

// ollamaAIClient - реализация поверх локальной Ollama.
type ollamaAIClient struct {
	logger *zap.Logger
	client *api.Client
	model  string
}

func newOllamaAIClient(cfg *config.Config, logger *zap.Logger) (*ollamaAIClient, error) {
	hostURL, err := url.Parse(cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", cfg.OllamaHost, err)
	}
	return &ollamaAIClient{
		logger: logger.Named("OllamaAIClient"),
		client: api.NewClient(hostURL, &http.Client{Timeout: cfg.AITimeout}),
		model:  cfg.OllamaModel,
	}, nil
}

func (c *ollamaAIClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, error) {
	estimatePromptTokens("ollama", systemPrompt, userPrompt)

	options := map[string]any{}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}

	stream := false
	request := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream:  &stream,
		Options: options,
	}

	var content string
	start := time.Now()
	err := c.client.Chat(ctx, request, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	aiRequestDuration.WithLabelValues("ollama").Observe(time.Since(start).Seconds())
	if err != nil {
		aiRequestsTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	if content == "" {
		aiRequestsTotal.WithLabelValues("ollama", "error").Inc()
		return "", fmt.Errorf("received empty response from API")
	}

	aiRequestsTotal.WithLabelValues("ollama", "success").Inc()
	return content, nil
}
