package handler

import "storypals-server/internal/models"

// generateStoryRequest - запрос на запуск генерации истории.
type generateStoryRequest struct {
	Character models.Character   `json:"character" binding:"required"`
	Prompt    models.StoryPrompt `json:"prompt"`
}

// generateStoryResponse - ответ на запуск генерации.
type generateStoryResponse struct {
	RunID string `json:"runId"`
}

// creditsResponse - текущий баланс кредитов пользователя.
type creditsResponse struct {
	UserID  string `json:"userId"`
	Credits int    `json:"credits"`
}

// textToSpeechRequest - запрос на озвучку текста страницы.
type textToSpeechRequest struct {
	Text    string `json:"text" binding:"required"`
	VoiceID string `json:"voiceId"`
}

// cloneVoiceResponse - ответ на клонирование голоса.
type cloneVoiceResponse struct {
	VoiceID string `json:"voiceId"`
}

// checkoutSessionRequest - запрос на создание платёжной сессии.
type checkoutSessionRequest struct {
	PriceID  string `json:"priceId" binding:"required"`
	Quantity int64  `json:"quantity"`
}
