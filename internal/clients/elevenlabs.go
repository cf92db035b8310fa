package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// ErrSpeechAPIFailed - ошибка при обращении к ElevenLabs API.
var ErrSpeechAPIFailed = errors.New("speech API request failed")

// premadeVoiceLimit - сколько встроенных голосов показываем пользователю.
const premadeVoiceLimit = 4

// Compile-time check to ensure elevenLabsClient implements SpeechSynthesizer
var _ interfaces.SpeechSynthesizer = (*elevenLabsClient)(nil)

// elevenLabsClient - клиент ElevenLabs: озвучка текста и каталог голосов.
type elevenLabsClient struct {
	logger         *zap.Logger
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	defaultVoiceID string
}

// NewElevenLabsClient создает клиент синтеза речи ElevenLabs.
func NewElevenLabsClient(cfg *config.Config, logger *zap.Logger) interfaces.SpeechSynthesizer {
	return &elevenLabsClient{
		logger:         logger.Named("ElevenLabsClient"),
		httpClient:     &http.Client{Timeout: cfg.ElevenLabsTimeout},
		baseURL:        cfg.ElevenLabsBaseURL,
		apiKey:         cfg.ElevenLabsAPIKey,
		defaultVoiceID: cfg.DefaultVoiceID,
	}
}

// ttsRequest - тело запроса text-to-speech.
type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// voicesResponse - ответ каталога голосов.
type voicesResponse struct {
	Voices []struct {
		VoiceID  string `json:"voice_id"`
		Name     string `json:"name"`
		Category string `json:"category"`
	} `json:"voices"`
}

// addVoiceResponse - ответ на клонирование голоса.
type addVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

// Synthesize converts text to speech audio with the given voice.
func (c *elevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		voiceID = c.defaultVoiceID
	}
	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	log := c.logger.With(zap.String("voice_id", voiceID))

	payload := ttsRequest{
		Text:    text,
		ModelID: "eleven_monolingual_v1",
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	log.Debug("Sending text-to-speech request", zap.Int("text_length", len(text)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Text-to-speech request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSpeechAPIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Error("Text-to-speech API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrSpeechAPIFailed, resp.StatusCode, string(bodyBytes))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read audio body: %v", ErrSpeechAPIFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio response", ErrSpeechAPIFailed)
	}

	log.Debug("Speech synthesized", zap.Int("audio_bytes", len(audio)))
	return audio, nil
}

// ListVoices returns the first premade voices of the provider catalog plus all
// of the user's cloned voices.
func (c *elevenLabsClient) ListVoices(ctx context.Context) ([]models.Voice, error) {
	endpoint := fmt.Sprintf("%s/v1/voices", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Voice list request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSpeechAPIFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Voice list API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrSpeechAPIFailed, resp.StatusCode, string(bodyBytes))
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrSpeechAPIFailed, readErr)
	}

	var parsed voicesResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		c.logger.Error("Failed to parse voice list response", zap.Error(err))
		return nil, fmt.Errorf("%w: unexpected response shape: %v", ErrSpeechAPIFailed, err)
	}

	voices := make([]models.Voice, 0, premadeVoiceLimit)
	premadeSeen := 0
	for _, v := range parsed.Voices {
		category := models.VoiceCategory(v.Category)
		switch category {
		case models.VoiceCategoryPremade:
			if premadeSeen >= premadeVoiceLimit {
				continue
			}
			premadeSeen++
		case models.VoiceCategoryCloned:
			// cloned voices are always included
		default:
			continue
		}
		voices = append(voices, models.Voice{
			ID:       v.VoiceID,
			Name:     v.Name,
			Category: category,
		})
	}

	c.logger.Debug("Voice list fetched", zap.Int("voice_count", len(voices)))
	return voices, nil
}

// AddVoice clones a voice from an audio sample and returns the new voice ID.
func (c *elevenLabsClient) AddVoice(ctx context.Context, name string, sample []byte, sampleFilename string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1/voices/add", c.baseURL)
	log := c.logger.With(zap.String("voice_name", name))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("name", name); err != nil {
		return "", fmt.Errorf("failed to write multipart field: %w", err)
	}
	part, err := writer.CreateFormFile("files", sampleFilename)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart file part: %w", err)
	}
	if _, err := part.Write(sample); err != nil {
		return "", fmt.Errorf("failed to write audio sample: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	log.Debug("Sending voice clone request", zap.Int("sample_bytes", len(sample)))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Voice clone request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSpeechAPIFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Voice clone API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return "", fmt.Errorf("%w: API returned status %d: %s", ErrSpeechAPIFailed, resp.StatusCode, string(bodyBytes))
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrSpeechAPIFailed, readErr)
	}

	var parsed addVoiceResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: unexpected response shape: %v", ErrSpeechAPIFailed, err)
	}
	if parsed.VoiceID == "" {
		return "", fmt.Errorf("%w: response contains no voice ID", ErrSpeechAPIFailed)
	}

	log.Info("Voice cloned", zap.String("voice_id", parsed.VoiceID))
	return parsed.VoiceID, nil
}

// RemoveVoice deletes a cloned voice.
func (c *elevenLabsClient) RemoveVoice(ctx context.Context, voiceID string) error {
	endpoint := fmt.Sprintf("%s/v1/voices/%s", c.baseURL, voiceID)
	log := c.logger.With(zap.String("voice_id", voiceID))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Voice delete request failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSpeechAPIFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		log.Error("Voice delete API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return fmt.Errorf("%w: API returned status %d: %s", ErrSpeechAPIFailed, resp.StatusCode, string(bodyBytes))
	}

	log.Info("Voice deleted")
	return nil
}
