package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// NarrationService - озвучка страниц и управление каталогом голосов.
// Вся работа идёт через внешний синтезатор; сбои провайдера наружу
// отдаются как ErrNarrationUnavailable, чтение истории они не блокируют.
type NarrationService struct {
	logger *zap.Logger
	speech interfaces.SpeechSynthesizer
}

// NewNarrationService создает сервис озвучки.
func NewNarrationService(speech interfaces.SpeechSynthesizer, logger *zap.Logger) *NarrationService {
	return &NarrationService{
		logger: logger.Named("NarrationService"),
		speech: speech,
	}
}

// Narrate озвучивает текст страницы выбранным голосом.
func (s *NarrationService) Narrate(ctx context.Context, text, voiceID string) ([]byte, error) {
	if text == "" {
		return nil, models.ErrValidation
	}
	audio, err := s.speech.Synthesize(ctx, text, voiceID)
	if err != nil {
		s.logger.Error("Narration synthesis failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrNarrationUnavailable, err)
	}
	return audio, nil
}

// ListVoices возвращает доступные голоса: встроенная подборка плюс
// клонированные пользователем.
func (s *NarrationService) ListVoices(ctx context.Context) ([]models.Voice, error) {
	voices, err := s.speech.ListVoices(ctx)
	if err != nil {
		s.logger.Error("Voice list fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrNarrationUnavailable, err)
	}
	return voices, nil
}

// CloneVoice создает новый голос из аудиосэмпла.
func (s *NarrationService) CloneVoice(ctx context.Context, name string, sample []byte, sampleFilename string) (string, error) {
	if name == "" || len(sample) == 0 {
		return "", models.ErrValidation
	}
	voiceID, err := s.speech.AddVoice(ctx, name, sample, sampleFilename)
	if err != nil {
		s.logger.Error("Voice clone failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", models.ErrNarrationUnavailable, err)
	}
	return voiceID, nil
}

// DeleteVoice удаляет клонированный голос.
func (s *NarrationService) DeleteVoice(ctx context.Context, voiceID string) error {
	if voiceID == "" {
		return models.ErrValidation
	}
	if err := s.speech.RemoveVoice(ctx, voiceID); err != nil {
		s.logger.Error("Voice delete failed", zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrNarrationUnavailable, err)
	}
	return nil
}
