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

// ErrVideoGenerationFailed - ошибка при генерации видео fal.ai.
var ErrVideoGenerationFailed = errors.New("video generation failed")

// Compile-time check to ensure wanClient implements VideoGenerator
var _ interfaces.VideoGenerator = (*wanClient)(nil)

// wanClient - клиент image-to-video API fal.ai (модель wan-i2v).
type wanClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewWanClient создает клиент генерации видео fal.ai.
func NewWanClient(cfg *config.Config, logger *zap.Logger) interfaces.VideoGenerator {
	return &wanClient{
		logger:     logger.Named("WanClient"),
		httpClient: &http.Client{Timeout: cfg.FalTimeout},
		baseURL:    cfg.FalBaseURL,
		model:      cfg.FalVideoModel,
		apiKey:     cfg.FalAPIKey,
	}
}

// imageToVideoRequest - тело запроса image-to-video.
type imageToVideoRequest struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt"`
}

// videoResponse - нормализуемый ответ fal.ai.
type videoResponse struct {
	Video struct {
		URL string `json:"url"`
	} `json:"video"`
}

// ImageToVideo animates a still image into a short clip.
func (c *wanClient) ImageToVideo(ctx context.Context, sourceImageURL, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	log := c.logger.With(zap.String("endpoint", endpoint))

	payload := imageToVideoRequest{
		ImageURL: sourceImageURL,
		Prompt:   prompt,
	}
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

	log.Debug("Sending video generation request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Video API request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrVideoGenerationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Video API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return "", fmt.Errorf("%w: API returned status %d: %s", ErrVideoGenerationFailed, resp.StatusCode, string(bodyBytes))
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrVideoGenerationFailed, readErr)
	}

	var parsed videoResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		log.Error("Failed to parse video API response", zap.Error(err))
		return "", fmt.Errorf("%w: unexpected response shape: %v", ErrVideoGenerationFailed, err)
	}
	if parsed.Video.URL == "" {
		log.Error("Video API response contains no video URL", zap.ByteString("response_body", bodyBytes))
		return "", fmt.Errorf("%w: response contains no video URL", ErrVideoGenerationFailed)
	}

	log.Debug("Video generated", zap.String("video_url", parsed.Video.URL))
	return parsed.Video.URL, nil
}
