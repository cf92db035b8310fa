package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storypals-server/internal/mocks"
	"storypals-server/internal/models"
	"storypals-server/internal/service"
)

func TestStoryContentGenerator_Generate(t *testing.T) {
	character := models.Character{
		Name:     "Мия",
		Gender:   models.GenderGirl,
		Age:      6,
		ArtStyle: models.ArtStyleStorybook,
	}

	t.Run("composes the prompt from character and plot fields", func(t *testing.T) {
		ai := &mocks.MockAIClient{}
		gen := service.NewStoryContentGenerator(ai, zap.NewNop())

		var gotSystem, gotUser string
		ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				gotSystem = args.String(1)
				gotUser = args.String(2)
			}).
			Return("Жила-была Мия.", nil).Once()

		text, err := gen.Generate(context.Background(), character, models.StoryPrompt{
			Theme:        "дружба",
			Setting:      "лунный лес",
			Characters:   []string{"лунный кот"},
			PlotElements: []string{"потерянная звезда"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Жила-была Мия.", text)

		assert.Contains(t, gotSystem, "story writer")
		assert.Contains(t, gotUser, "- Main character: Мия (girl)")
		assert.Contains(t, gotUser, "- Theme: дружба")
		assert.Contains(t, gotUser, "- Setting: лунный лес")
		assert.Contains(t, gotUser, "Include these characters: лунный кот.")
		assert.Contains(t, gotUser, "Include these plot elements: потерянная звезда.")
		assert.Contains(t, gotUser, "approximately 500 words")
	})

	t.Run("falls back to default theme and setting", func(t *testing.T) {
		ai := &mocks.MockAIClient{}
		gen := service.NewStoryContentGenerator(ai, zap.NewNop())

		var gotUser string
		ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { gotUser = args.String(2) }).
			Return("text", nil).Once()

		_, err := gen.Generate(context.Background(), character, models.StoryPrompt{})
		require.NoError(t, err)

		assert.Contains(t, gotUser, "- Theme: adventure")
		assert.Contains(t, gotUser, "- Setting: magical forest")
		assert.NotContains(t, gotUser, "Additional details")
	})

	t.Run("marks provider failures with the story stage", func(t *testing.T) {
		ai := &mocks.MockAIClient{}
		gen := service.NewStoryContentGenerator(ai, zap.NewNop())

		ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("model unavailable")).Once()

		_, err := gen.Generate(context.Background(), character, models.StoryPrompt{})
		assert.ErrorIs(t, err, models.ErrGenerationFailed)

		var genErr *models.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, "story", genErr.Stage)
		assert.Equal(t, 0, genErr.Page)
	})
}
