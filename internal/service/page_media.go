package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

const (
	sceneDescriberSystemPrompt = "You are an expert at describing scenes for image generation. Provide clear, detailed descriptions that can be used to create illustrations."

	sceneTemperature = 0.7
	sceneMaxTokens   = 200

	// pageStrength слабее портретного: иллюстрация должна меняться от
	// страницы к странице, сохраняя облик персонажа.
	pageStrength = 0.90

	// pageSeedStep - множитель номера страницы для seed при генерации
	// без референса.
	pageSeedStep = 1000
)

// PageMedia - результат генерации медиа одной страницы.
type PageMedia struct {
	ImageURL string
	VideoURL *string
}

// PageMediaGenerator создает иллюстрацию (и опционально видео) для одной
// страницы истории.
type PageMediaGenerator struct {
	logger     *zap.Logger
	ai         AIClient
	images     interfaces.ImageGenerator
	videos     interfaces.VideoGenerator
	store      interfaces.MediaStore // nil, если объектное хранилище не сконфигурировано
	httpClient *http.Client
	width      int
	height     int
	skipVideo  bool
}

// NewPageMediaGenerator создает генератор постраничного медиа.
// store может быть nil - тогда URL провайдера отдаётся как есть.
func NewPageMediaGenerator(
	ai AIClient,
	images interfaces.ImageGenerator,
	videos interfaces.VideoGenerator,
	store interfaces.MediaStore,
	cfg *config.Config,
	logger *zap.Logger,
) *PageMediaGenerator {
	return &PageMediaGenerator{
		logger:     logger.Named("PageMediaGenerator"),
		ai:         ai,
		images:     images,
		videos:     videos,
		store:      store,
		httpClient: &http.Client{Timeout: cfg.FalTimeout},
		width:      cfg.ImageWidth,
		height:     cfg.ImageHeight,
		skipVideo:  cfg.DebugFastMode,
	}
}

// Generate создает медиа страницы pageNumber (нумерация с 1).
// portraitRef - общий референс персонажа на весь прогон; пустая строка
// означает генерацию без референса. Сбой иллюстрации фатален для прогона,
// сбой видео - нет.
func (g *PageMediaGenerator) Generate(ctx context.Context, character models.Character, portraitRef, pageText string, pageNumber int) (PageMedia, error) {
	log := g.logger.With(zap.Int("page", pageNumber))

	sceneDescription, err := g.describeScene(ctx, pageText)
	if err != nil {
		log.Error("Scene description failed", zap.Error(err))
		return PageMedia{}, models.NewPageGenerationError("scene", pageNumber, err)
	}

	imagePrompt := fmt.Sprintf(`A children's book illustration in %s.
Scene: %s
The image should be vibrant, engaging, and suitable for children, and should portray what is happening in the Scene.`,
		stylePrompt(character.ArtStyle), sceneDescription)

	var imageURL string
	if portraitRef != "" {
		imageURL, err = g.images.ImageToImage(ctx, portraitRef,
			imagePrompt+" Base the style and character appearance on the reference image.", pageStrength)
	} else {
		imageURL, err = g.images.TextToImage(ctx, imagePrompt, g.width, g.height, pageNumber*pageSeedStep)
	}
	if err != nil {
		log.Error("Page illustration failed", zap.Error(err))
		return PageMedia{}, models.NewPageGenerationError("image", pageNumber, err)
	}

	if g.store != nil {
		if storedURL, uploadErr := g.uploadImage(ctx, imageURL, pageNumber); uploadErr != nil {
			log.Warn("Image upload to object storage failed, keeping provider URL", zap.Error(uploadErr))
		} else {
			imageURL = storedURL
		}
	}

	media := PageMedia{ImageURL: imageURL}
	if g.skipVideo {
		return media, nil
	}

	videoURL, videoErr := g.videos.ImageToVideo(ctx, imageURL, sceneDescription)
	if videoErr != nil {
		// Degrade to a still illustration.
		log.Warn("Page video generation failed", zap.Error(videoErr))
		return media, nil
	}
	media.VideoURL = &videoURL

	return media, nil
}

// describeScene превращает текст страницы в короткое описание сцены для
// генератора изображений.
func (g *PageMediaGenerator) describeScene(ctx context.Context, pageText string) (string, error) {
	userPrompt := fmt.Sprintf(`Describe what is happening in the Scene in simple terms. Your description should be able to be used to generate an image of the scene.
Scene: %s`, pageText)

	temperature := sceneTemperature
	maxTokens := sceneMaxTokens
	return g.ai.GenerateText(ctx, sceneDescriberSystemPrompt, userPrompt, GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
}

// uploadImage скачивает изображение у провайдера и перекладывает его в
// объектное хранилище, возвращая публичный URL.
func (g *PageMediaGenerator) uploadImage(ctx context.Context, imageURL string, pageNumber int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create fetch request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	key := fmt.Sprintf("images/page-%d-%d.png", pageNumber, time.Now().UnixMilli())
	return g.store.Store(ctx, key, contentType, data)
}
