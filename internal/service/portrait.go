package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

const (
	// portraitStrength сохраняет больше черт исходной фотографии,
	// чем постраничные иллюстрации.
	portraitStrength = 0.95

	// portraitSeed - фиксированный seed портрета без фотографии, чтобы
	// повторная генерация того же персонажа давала тот же результат.
	portraitSeed = 1000
)

// PortraitGenerator создает стилизованный портрет персонажа, который затем
// служит единственным референсом для всех страниц прогона.
type PortraitGenerator struct {
	logger      *zap.Logger
	images      interfaces.ImageGenerator
	width       int
	height      int
	placeholder string
}

// NewPortraitGenerator создает генератор портрета персонажа.
func NewPortraitGenerator(images interfaces.ImageGenerator, cfg *config.Config, logger *zap.Logger) *PortraitGenerator {
	return &PortraitGenerator{
		logger:      logger.Named("PortraitGenerator"),
		images:      images,
		width:       cfg.ImageWidth,
		height:      cfg.ImageHeight,
		placeholder: cfg.PlaceholderBase,
	}
}

// Generate возвращает URL стилизованного портрета. Этап best-effort:
// при сбое генерации возвращается исходное фото (или плейсхолдер, если
// фото нет), прогон не прерывается.
func (g *PortraitGenerator) Generate(ctx context.Context, character models.Character) string {
	prompt := fmt.Sprintf(`An illustration in %s.
A %d-year-old %s character.
The image should be a portrait-style illustration.`,
		stylePrompt(character.ArtStyle), character.Age, character.Gender)

	var (
		imageURL string
		err      error
	)
	if character.Photo != "" {
		imageURL, err = g.images.ImageToImage(ctx, character.Photo, prompt, portraitStrength)
	} else {
		imageURL, err = g.images.TextToImage(ctx, prompt, g.width, g.height, portraitSeed)
	}
	if err != nil {
		g.logger.Warn("Portrait generation failed, falling back to reference", zap.Error(err))
		if character.Photo != "" {
			return character.Photo
		}
		return g.placeholder
	}

	g.logger.Debug("Portrait generated", zap.String("image_url", imageURL))
	return imageURL
}
