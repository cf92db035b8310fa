package service

import "storypals-server/internal/models"

// stylePrompt возвращает текстовое описание художественного стиля для
// промптов генерации изображений.
func stylePrompt(style models.ArtStyle) string {
	switch style {
	case models.ArtStyleWatercolor:
		return "soft and dreamy watercolor painting style"
	case models.ArtStyleCartoon:
		return "playful cartoon illustration style"
	case models.ArtStylePixar:
		return "3D rendered Pixar-style"
	case models.ArtStyleAnime:
		return "Japanese anime-style illustration"
	case models.ArtStyleStorybook:
		return "classic children's book illustration style"
	default:
		return "classic children's book illustration style"
	}
}
