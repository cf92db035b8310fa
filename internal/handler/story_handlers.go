package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storypals-server/internal/models"
)

// startGeneration запускает ран генерации персонализированной истории.
func (h *Handler) startGeneration(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req generateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid generation request body", zap.Error(err))
		h.respondError(c, models.ErrValidation)
		return
	}

	runID, err := h.orchestrator.Start(c.Request.Context(), userID, req.Character, req.Prompt)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, generateStoryResponse{RunID: runID})
}

// generationProgress возвращает снимок прогресса рана (поллинг).
func (h *Handler) generationProgress(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	progress, err := h.orchestrator.Progress(c.Param("runId"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// cancelGeneration прерывает незавершённый ран.
func (h *Handler) cancelGeneration(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.orchestrator.Cancel(c.Param("runId"), userID); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "canceling"})
}

// retryStorySave повторяет сохранение собранной, но не сохранённой истории.
func (h *Handler) retryStorySave(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	progress, err := h.orchestrator.RetrySave(c.Request.Context(), c.Param("runId"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// listStories возвращает сохранённые истории пользователя.
func (h *Handler) listStories(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	stories, err := h.stories.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if stories == nil {
		stories = []*models.CustomizedStory{}
	}
	c.JSON(http.StatusOK, stories)
}

// getStory возвращает одну сохранённую историю.
func (h *Handler) getStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	story, err := h.stories.GetByID(c.Request.Context(), userID, c.Param("storyId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// deleteStory удаляет сохранённую историю пользователя.
func (h *Handler) deleteStory(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.stories.Delete(c.Request.Context(), userID, c.Param("storyId")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listPresets возвращает каталог готовых историй.
func (h *Handler) listPresets(c *gin.Context) {
	c.JSON(http.StatusOK, models.PresetStories)
}
