package payments

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.uber.org/zap"

	"storypals-server/internal/config"
	"storypals-server/internal/mocks"
	"storypals-server/internal/models"
)

const testWebhookSecret = "whsec_test_secret"

func newStripeService() (*StripeService, *mocks.MockCreditLedger, *mocks.MockProcessedEventRepository) {
	credits := &mocks.MockCreditLedger{}
	events := &mocks.MockProcessedEventRepository{}
	cfg := &config.Config{
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testWebhookSecret,
		StripeSuccessURL:    "https://app.example/payment/success",
		StripeCancelURL:     "https://app.example/payment/cancel",
	}
	return NewStripeService(cfg, credits, events, zap.NewNop()), credits, events
}

// signPayload строит заголовок Stripe-Signature для тестового payload.
func signPayload(payload []byte) string {
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
}

func checkoutCompletedEvent(eventID, userID, quantity string) []byte {
	metadata := fmt.Sprintf(`{"userId": %q, "quantity": %q}`, userID, quantity)
	if userID == "" {
		metadata = `{}`
	}
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"api_version": %q,
		"data": {"object": {"id": "cs_test_1", "metadata": %s}}
	}`, eventID, stripe.APIVersion, metadata))
}

func TestStripeService_HandleWebhook_CreditsPurchase(t *testing.T) {
	svc, credits, events := newStripeService()
	events.On("MarkProcessed", mock.Anything, "evt_1").Return(true, nil).Once()
	credits.On("Credit", mock.Anything, "user-1", 3).Return(8, nil).Once()

	payload := checkoutCompletedEvent("evt_1", "user-1", "3")
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))
	assert.NoError(t, err)

	credits.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestStripeService_HandleWebhook_BadSignature(t *testing.T) {
	svc, credits, events := newStripeService()

	payload := checkoutCompletedEvent("evt_1", "user-1", "3")
	err := svc.HandleWebhook(context.Background(), payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, models.ErrWebhookVerificationFailed)

	assert.Empty(t, credits.Calls)
	assert.Empty(t, events.Calls)
}

func TestStripeService_HandleWebhook_DuplicateDelivery(t *testing.T) {
	svc, credits, events := newStripeService()
	events.On("MarkProcessed", mock.Anything, "evt_1").Return(false, nil).Once()

	payload := checkoutCompletedEvent("evt_1", "user-1", "3")
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))
	assert.NoError(t, err)

	// Повторная доставка подтверждена, но кредиты не зачислены второй раз.
	assert.Empty(t, credits.Calls)
}

func TestStripeService_HandleWebhook_MissingUserID(t *testing.T) {
	svc, credits, events := newStripeService()

	payload := checkoutCompletedEvent("evt_1", "", "3")
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))
	assert.NoError(t, err)

	assert.Empty(t, credits.Calls)
	assert.Empty(t, events.Calls)
}

func TestStripeService_HandleWebhook_DefaultQuantity(t *testing.T) {
	svc, credits, events := newStripeService()
	events.On("MarkProcessed", mock.Anything, "evt_2").Return(true, nil).Once()
	credits.On("Credit", mock.Anything, "user-1", 1).Return(2, nil).Once()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_2",
		"type": "payment_intent.succeeded",
		"api_version": %q,
		"data": {"object": {"id": "pi_test_1", "metadata": {"userId": "user-1"}}}
	}`, stripe.APIVersion))
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))
	assert.NoError(t, err)

	credits.AssertExpectations(t)
}

func TestStripeService_HandleWebhook_IgnoresUnhandledEvents(t *testing.T) {
	svc, credits, events := newStripeService()

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_3",
		"type": "customer.created",
		"api_version": %q,
		"data": {"object": {"id": "cus_1"}}
	}`, stripe.APIVersion))
	err := svc.HandleWebhook(context.Background(), payload, signPayload(payload))
	assert.NoError(t, err)

	assert.Empty(t, credits.Calls)
	assert.Empty(t, events.Calls)
}

func TestStripeService_CreateCheckoutSession_Validation(t *testing.T) {
	svc, _, _ := newStripeService()

	_, err := svc.CreateCheckoutSession(context.Background(), "", "price_1", 1)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateCheckoutSession(context.Background(), "user-1", "", 1)
	assert.ErrorIs(t, err, models.ErrValidation)
}
