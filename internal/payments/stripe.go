package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/interfaces"
	"storypals-server/internal/models"
)

// CheckoutSession - созданная платёжная сессия для редиректа на Stripe.
type CheckoutSession struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// StripeService создает платёжные сессии покупки кредитов и обрабатывает
// вебхуки Stripe. Кредиты зачисляются только после проверенного вебхука.
type StripeService struct {
	logger          *zap.Logger
	api             *client.API
	credits         interfaces.CreditLedger
	processedEvents interfaces.ProcessedEventRepository
	webhookSecret   string
	successURL      string
	cancelURL       string
}

// NewStripeService создает платёжный сервис.
func NewStripeService(
	cfg *config.Config,
	credits interfaces.CreditLedger,
	processedEvents interfaces.ProcessedEventRepository,
	logger *zap.Logger,
) *StripeService {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &StripeService{
		logger:          logger.Named("StripeService"),
		api:             api,
		credits:         credits,
		processedEvents: processedEvents,
		webhookSecret:   cfg.StripeWebhookSecret,
		successURL:      cfg.StripeSuccessURL,
		cancelURL:       cfg.StripeCancelURL,
	}
}

// CreateCheckoutSession создает одноразовую платёжную сессию на quantity
// кредитов. userID и quantity уезжают в metadata сессии и payment intent,
// вебхук зачисляет кредиты по ним.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, userID, priceID string, quantity int64) (*CheckoutSession, error) {
	if userID == "" || priceID == "" {
		return nil, models.ErrValidation
	}
	if quantity < 1 {
		quantity = 1
	}

	quantityStr := strconv.FormatInt(quantity, 10)
	params := &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
		Mode:   stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		SuccessURL: stripe.String(s.successURL + "?session_id={CHECKOUT_SESSION_ID}&quantity=" + quantityStr),
		CancelURL:  stripe.String(s.cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"userId":   userID,
				"quantity": quantityStr,
			},
		},
	}
	params.AddMetadata("userId", userID)
	params.AddMetadata("quantity", quantityStr)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("Failed to create checkout session", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	s.logger.Info("Checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("user_id", userID),
		zap.Int64("quantity", quantity),
	)
	return &CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook проверяет подпись вебхука и зачисляет кредиты.
// Невалидная подпись не меняет состояние; повторная доставка того же
// события подтверждается без повторного зачисления.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return fmt.Errorf("%w: %v", models.ErrWebhookVerificationFailed, err)
	}

	log := s.logger.With(zap.String("event_id", event.ID), zap.String("event_type", string(event.Type)))

	var userID string
	var quantity int
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session payload: %w", err)
		}
		userID, quantity = creditTarget(session.Metadata)
	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return fmt.Errorf("failed to parse payment intent payload: %w", err)
		}
		userID, quantity = creditTarget(intent.Metadata)
	default:
		log.Debug("Ignoring unhandled webhook event type")
		return nil
	}

	if userID == "" {
		log.Warn("Webhook event carries no user ID, skipping")
		return nil
	}

	first, err := s.processedEvents.MarkProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("failed to record processed event: %w", err)
	}
	if !first {
		log.Info("Duplicate webhook delivery, credits already granted")
		return nil
	}

	balance, err := s.credits.Credit(ctx, userID, quantity)
	if err != nil {
		log.Error("Failed to grant purchased credits", zap.String("user_id", userID), zap.Error(err))
		return err
	}

	log.Info("Credits granted",
		zap.String("user_id", userID),
		zap.Int("quantity", quantity),
		zap.Int("balance", balance),
	)
	return nil
}

// creditTarget извлекает пользователя и количество кредитов из metadata
// события. Отсутствующее количество трактуется как 1.
func creditTarget(metadata map[string]string) (string, int) {
	userID := metadata["userId"]
	quantity := 1
	if raw, ok := metadata["quantity"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			quantity = parsed
		}
	}
	return userID, quantity
}
