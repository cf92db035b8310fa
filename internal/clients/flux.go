package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
)

// ErrImageGenerationFailed - ошибка при генерации изображения fal.ai.
var ErrImageGenerationFailed = errors.New("image generation failed")

// Compile-time check to ensure fluxClient implements ImageGenerator
var _ interfaces.ImageGenerator = (*fluxClient)(nil)

// fluxClient - клиент синхронного REST API fal.ai (модель flux/dev).
type fluxClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
	steps      int
	guidance   float64
}

// NewFluxClient создает клиент генерации изображений fal.ai.
func NewFluxClient(cfg *config.Config, logger *zap.Logger) interfaces.ImageGenerator {
	return &fluxClient{
		logger:     logger.Named("FluxClient"),
		httpClient: &http.Client{Timeout: cfg.FalTimeout},
		baseURL:    cfg.FalBaseURL,
		model:      cfg.FalImageModel,
		apiKey:     cfg.FalAPIKey,
		steps:      cfg.InferenceSteps,
		guidance:   cfg.GuidanceScale,
	}
}

// textToImageRequest - тело запроса text-to-image.
type textToImageRequest struct {
	Prompt            string  `json:"prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	Seed              int     `json:"seed,omitempty"`
}

// imageToImageRequest - тело запроса image-to-image.
type imageToImageRequest struct {
	ImageURL          string  `json:"image_url"`
	Prompt            string  `json:"prompt"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Strength          float64 `json:"strength"`
}

// imageResponse - нормализуемый ответ fal.ai.
type imageResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

// TextToImage renders an image from a text prompt.
func (c *fluxClient) TextToImage(ctx context.Context, prompt string, width, height, seed int) (string, error) {
	payload := textToImageRequest{
		Prompt:            prompt,
		NumInferenceSteps: c.steps,
		GuidanceScale:     c.guidance,
		Width:             width,
		Height:            height,
		Seed:              seed,
	}
	endpoint := fmt.Sprintf("%s/%s/text-to-image", c.baseURL, c.model)
	return c.callImageAPI(ctx, endpoint, payload)
}

// ImageToImage transforms the source image guided by the prompt.
func (c *fluxClient) ImageToImage(ctx context.Context, sourceImageURL, prompt string, strength float64) (string, error) {
	payload := imageToImageRequest{
		ImageURL:          sourceImageURL,
		Prompt:            prompt,
		NumInferenceSteps: c.steps,
		GuidanceScale:     c.guidance,
		Strength:          strength,
	}
	endpoint := fmt.Sprintf("%s/%s/image-to-image", c.baseURL, c.model)
	return c.callImageAPI(ctx, endpoint, payload)
}

// callImageAPI выполняет запрос и нормализует ответ в URL изображения.
// Неожиданная форма ответа - ошибка на границе, undefined дальше не
// распространяется.
func (c *fluxClient) callImageAPI(ctx context.Context, endpoint string, payload any) (string, error) {
	log := c.logger.With(zap.String("endpoint", endpoint))

	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.apiKey)

	log.Debug("Sending image generation request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Image API request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrImageGenerationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Image API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return "", fmt.Errorf("%w: API returned status %d: %s", ErrImageGenerationFailed, resp.StatusCode, string(bodyBytes))
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrImageGenerationFailed, readErr)
	}

	var parsed imageResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		log.Error("Failed to parse image API response", zap.Error(err))
		return "", fmt.Errorf("%w: unexpected response shape: %v", ErrImageGenerationFailed, err)
	}
	if len(parsed.Images) == 0 || parsed.Images[0].URL == "" {
		log.Error("Image API response contains no image URL", zap.ByteString("response_body", bodyBytes))
		return "", fmt.Errorf("%w: response contains no image URL", ErrImageGenerationFailed)
	}

	log.Debug("Image generated", zap.String("image_url", parsed.Images[0].URL))
	return parsed.Images[0].URL, nil
}
