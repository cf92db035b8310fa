package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storypals-server/internal/models"
)

// maxVoiceSampleBytes ограничивает размер аудиосэмпла для клонирования.
const maxVoiceSampleBytes = 10 << 20

// textToSpeech озвучивает текст страницы и отдаёт аудио потоком.
func (h *Handler) textToSpeech(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	var req textToSpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.ErrValidation)
		return
	}

	audio, err := h.narration.Narrate(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// listVoices возвращает доступные голоса озвучки.
func (h *Handler) listVoices(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	voices, err := h.narration.ListVoices(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if voices == nil {
		voices = []models.Voice{}
	}
	c.JSON(http.StatusOK, voices)
}

// cloneVoice создает новый голос из загруженного аудиосэмпла.
func (h *Handler) cloneVoice(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	name := c.PostForm("name")
	fileHeader, err := c.FormFile("sample")
	if err != nil || name == "" {
		h.respondError(c, models.ErrValidation)
		return
	}
	if fileHeader.Size > maxVoiceSampleBytes {
		h.respondError(c, models.ErrValidation)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.respondError(c, models.ErrBadRequest)
		return
	}
	defer file.Close()

	sample, err := io.ReadAll(io.LimitReader(file, maxVoiceSampleBytes))
	if err != nil {
		h.logger.Warn("Failed to read voice sample", zap.Error(err))
		h.respondError(c, models.ErrBadRequest)
		return
	}

	voiceID, err := h.narration.CloneVoice(c.Request.Context(), name, sample, fileHeader.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cloneVoiceResponse{VoiceID: voiceID})
}

// deleteVoice удаляет клонированный голос.
func (h *Handler) deleteVoice(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	if err := h.narration.DeleteVoice(c.Request.Context(), c.Param("voiceId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
