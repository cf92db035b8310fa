package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storypals-server/internal/authutils"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/middleware"
	"storypals-server/internal/models"
	"storypals-server/internal/payments"
	"storypals-server/internal/service"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Error string `json:"error"`
}

// Handler обрабатывает HTTP запросы сервера историй.
type Handler struct {
	logger       *zap.Logger
	orchestrator *service.Orchestrator
	narration    *service.NarrationService
	stories      interfaces.StoryRepository
	credits      interfaces.CreditLedger
	pays         *payments.StripeService
	verifier     *authutils.JWTVerifier
}

// NewHandler создает Handler со всеми зависимостями.
func NewHandler(
	orchestrator *service.Orchestrator,
	narration *service.NarrationService,
	stories interfaces.StoryRepository,
	credits interfaces.CreditLedger,
	pays *payments.StripeService,
	jwtSecret string,
	logger *zap.Logger,
) *Handler {
	verifier, err := authutils.NewJWTVerifier(jwtSecret, logger)
	if err != nil {
		logger.Fatal("Failed to create JWT Verifier", zap.Error(err))
	}

	return &Handler{
		logger:       logger.Named("Handler"),
		orchestrator: orchestrator,
		narration:    narration,
		stories:      stories,
		credits:      credits,
		pays:         pays,
		verifier:     verifier,
	}
}

// RegisterRoutes регистрирует маршруты сервера.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	authMiddleware := middleware.AuthMiddleware(h.verifier.VerifyToken, h.logger)

	api := router.Group("/api")

	stories := api.Group("/stories", authMiddleware)
	{
		stories.POST("/generate", h.startGeneration)
		stories.GET("/generate/:runId", h.generationProgress)
		stories.GET("/generate/:runId/ws", h.generationProgressWS)
		stories.POST("/generate/:runId/cancel", h.cancelGeneration)
		stories.POST("/generate/:runId/save", h.retryStorySave)
		stories.GET("", h.listStories)
		stories.GET("/presets", h.listPresets)
		stories.GET("/:storyId", h.getStory)
		stories.DELETE("/:storyId", h.deleteStory)
	}

	api.GET("/credits", authMiddleware, h.getCredits)

	voice := api.Group("/voice", authMiddleware)
	{
		voice.POST("/text-to-speech", h.textToSpeech)
		voice.GET("/voices", h.listVoices)
		voice.POST("/voices", h.cloneVoice)
		voice.DELETE("/voices/:voiceId", h.deleteVoice)
	}

	paymentsGroup := api.Group("/payments")
	{
		paymentsGroup.POST("/checkout-session", authMiddleware, h.createCheckoutSession)
		// Вебхук аутентифицируется подписью Stripe, не JWT.
		paymentsGroup.POST("/webhook", h.stripeWebhook)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// respondError переводит ошибку сервисного слоя в HTTP статус и APIError.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrWebhookVerificationFailed):
		status = http.StatusBadRequest
		message = "Webhook signature verification failed"
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenMalformed):
		status = http.StatusUnauthorized
		message = "Unauthorized"
	case errors.Is(err, models.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
		message = err.Error()
	case errors.Is(err, models.ErrStoryNotFound), errors.Is(err, models.ErrRunNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, models.ErrGenerationInProgress), errors.Is(err, models.ErrRunNotCancelable):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, models.ErrNarrationUnavailable), errors.Is(err, models.ErrGenerationFailed):
		status = http.StatusBadGateway
		message = err.Error()
	case errors.Is(err, models.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		message = "Storage temporarily unavailable"
	default:
		h.logger.Error("Unhandled service error", zap.Error(err))
	}

	c.AbortWithStatusJSON(status, APIError{Error: message})
}

// userID извлекает аутентифицированного пользователя или завершает запрос 401.
func (h *Handler) userID(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		h.respondError(c, models.ErrUnauthorized)
		return "", false
	}
	return userID, true
}
