package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getCredits возвращает текущий баланс кредитов пользователя.
func (h *Handler) getCredits(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	balance, err := h.credits.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creditsResponse{UserID: userID, Credits: balance})
}
