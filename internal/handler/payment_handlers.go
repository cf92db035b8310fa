package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storypals-server/internal/models"
)

// maxWebhookBodyBytes ограничивает размер тела вебхука Stripe.
const maxWebhookBodyBytes = 1 << 20

// createCheckoutSession создает платёжную сессию Stripe на покупку кредитов.
func (h *Handler) createCheckoutSession(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req checkoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, models.ErrValidation)
		return
	}

	session, err := h.pays.CreateCheckoutSession(c.Request.Context(), userID, req.PriceID, req.Quantity)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// stripeWebhook принимает вебхуки Stripe. Подпись проверяется по сырому
// телу запроса, JSON-биндинг здесь не используется.
func (h *Handler) stripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		h.logger.Warn("Failed to read webhook body", zap.Error(err))
		h.respondError(c, models.ErrBadRequest)
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.pays.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
