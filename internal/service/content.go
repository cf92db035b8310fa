package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storypals-server/internal/models"
)

const (
	storyWriterSystemPrompt = "You are a creative children's story writer who creates engaging, age-appropriate stories."

	storyTemperature = 0.7
	storyMaxTokens   = 1000

	defaultTheme   = "adventure"
	defaultSetting = "magical forest"
)

// StoryContentGenerator генерирует связный текст истории по персонажу и
// параметрам сюжета.
type StoryContentGenerator struct {
	logger *zap.Logger
	ai     AIClient
}

// NewStoryContentGenerator создает генератор текста истории.
func NewStoryContentGenerator(ai AIClient, logger *zap.Logger) *StoryContentGenerator {
	return &StoryContentGenerator{
		logger: logger.Named("StoryContentGenerator"),
		ai:     ai,
	}
}

// Generate возвращает полный текст истории одним блоком.
// Ошибка провайдера не ретраится и помечается этапом "story".
func (g *StoryContentGenerator) Generate(ctx context.Context, character models.Character, prompt models.StoryPrompt) (string, error) {
	userPrompt := buildStoryPrompt(character, prompt)

	temperature := storyTemperature
	maxTokens := storyMaxTokens
	content, err := g.ai.GenerateText(ctx, storyWriterSystemPrompt, userPrompt, GenerationParams{
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		g.logger.Error("Story text generation failed", zap.Error(err))
		return "", models.NewGenerationError("story", err)
	}

	g.logger.Debug("Story text generated", zap.Int("length", len(content)))
	return content, nil
}

// buildStoryPrompt собирает инструкцию для модели. Направляющие поля и
// произвольный промпт не смешиваются в UI, но произвольный промпт здесь
// попадает в additional details вместе с остальными уточнениями.
func buildStoryPrompt(character models.Character, prompt models.StoryPrompt) string {
	theme := prompt.Theme
	if theme == "" {
		theme = defaultTheme
	}
	setting := prompt.Setting
	if setting == "" {
		setting = defaultSetting
	}

	var details []string
	if len(prompt.Characters) > 0 {
		details = append(details, "Include these characters: "+strings.Join(prompt.Characters, ", ")+".")
	}
	if len(prompt.PlotElements) > 0 {
		details = append(details, "Include these plot elements: "+strings.Join(prompt.PlotElements, ", ")+".")
	}
	if prompt.CustomPrompt != "" {
		details = append(details, prompt.CustomPrompt)
	}

	var b strings.Builder
	b.WriteString("Create a children's story with the following details:\n")
	fmt.Fprintf(&b, "- Main character: %s (%s)\n", character.Name, character.Gender)
	fmt.Fprintf(&b, "- Theme: %s\n", theme)
	fmt.Fprintf(&b, "- Setting: %s\n", setting)
	if len(details) > 0 {
		fmt.Fprintf(&b, "- Additional details: %s\n", strings.Join(details, " "))
	}
	b.WriteString(`
The story should be:
- Age-appropriate for children
- Engaging and interactive
- Include a clear beginning, middle, and end
- Have a positive message or lesson
- Be approximately 500 words long

Format the story in clear paragraphs with proper spacing.`)

	return b.String()
}
