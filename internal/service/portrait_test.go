package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/mocks"
	"storypals-server/internal/models"
	"storypals-server/internal/service"
)

func newPortraitGenerator() (*service.PortraitGenerator, *mocks.MockImageGenerator) {
	images := &mocks.MockImageGenerator{}
	cfg := &config.Config{
		ImageWidth:      768,
		ImageHeight:     512,
		PlaceholderBase: "https://placeholder.example/storybook",
	}
	return service.NewPortraitGenerator(images, cfg, zap.NewNop()), images
}

func TestPortraitGenerator_Generate(t *testing.T) {
	base := models.Character{
		Name:     "Мия",
		Gender:   models.GenderGirl,
		Age:      6,
		ArtStyle: models.ArtStyleWatercolor,
	}

	t.Run("stylizes the uploaded photo", func(t *testing.T) {
		gen, images := newPortraitGenerator()
		character := base
		character.Photo = "https://uploads.example/photo.jpg"

		images.On("ImageToImage", mock.Anything, "https://uploads.example/photo.jpg",
			mock.MatchedBy(func(prompt string) bool {
				return strings.Contains(prompt, "watercolor") &&
					strings.Contains(prompt, "6-year-old girl") &&
					strings.Contains(prompt, "portrait-style")
			}), 0.95).
			Return("https://cdn.example/portrait.png", nil).Once()

		url := gen.Generate(context.Background(), character)
		assert.Equal(t, "https://cdn.example/portrait.png", url)
	})

	t.Run("renders from text when there is no photo", func(t *testing.T) {
		gen, images := newPortraitGenerator()

		images.On("TextToImage", mock.Anything, mock.Anything, 768, 512, 1000).
			Return("https://cdn.example/portrait.png", nil).Once()

		url := gen.Generate(context.Background(), base)
		assert.Equal(t, "https://cdn.example/portrait.png", url)
	})

	t.Run("falls back to the photo on failure", func(t *testing.T) {
		gen, images := newPortraitGenerator()
		character := base
		character.Photo = "https://uploads.example/photo.jpg"

		images.On("ImageToImage", mock.Anything, mock.Anything, mock.Anything, 0.95).
			Return("", errors.New("model down")).Once()

		url := gen.Generate(context.Background(), character)
		assert.Equal(t, "https://uploads.example/photo.jpg", url)
	})

	t.Run("falls back to the placeholder without a photo", func(t *testing.T) {
		gen, images := newPortraitGenerator()

		images.On("TextToImage", mock.Anything, mock.Anything, 768, 512, 1000).
			Return("", errors.New("model down")).Once()

		url := gen.Generate(context.Background(), base)
		assert.Equal(t, "https://placeholder.example/storybook", url)
	})
}
