package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/config"
	"github.com/resonant-ai/resonant-engine/pkg/models"
)

const testFreeLimit = 10

func newSubscriptionService(repo *mockSubscriptionRepo) SubscriptionService {
	return NewSubscriptionService(repo, config.StripeConfig{}, "https://app.example.com", testFreeLimit, zap.NewNop())
}

func TestSubscriptionStatus(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name              string
		sub               *models.Subscription
		expectedRemaining int
	}{
		{
			name:              "fresh user has the full allowance",
			sub:               &models.Subscription{UserID: userID, PostCount: 0},
			expectedRemaining: 10,
		},
		{
			name:              "partially used allowance",
			sub:               &models.Subscription{UserID: userID, PostCount: 7},
			expectedRemaining: 3,
		},
		{
			name:              "exhausted allowance",
			sub:               &models.Subscription{UserID: userID, PostCount: 10},
			expectedRemaining: 0,
		},
		{
			name:              "over the limit clamps to zero",
			sub:               &models.Subscription{UserID: userID, PostCount: 14},
			expectedRemaining: 0,
		},
		{
			name:              "subscribed user shows zero remaining",
			sub:               &models.Subscription{UserID: userID, PostCount: 2, IsSubscribed: true},
			expectedRemaining: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSubscriptionRepo{
				GetFunc: func(ctx context.Context, uid uuid.UUID) (*models.Subscription, error) {
					return tt.sub, nil
				},
			}
			svc := newSubscriptionService(repo)

			status, err := svc.Status(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedRemaining, status.PostsRemaining)
			assert.Equal(t, testFreeLimit, status.FreeTierLimit)
			assert.Equal(t, tt.sub.IsSubscribed, status.IsSubscribed)
		})
	}
}

func TestSubscriptionCanGenerate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name     string
		sub      *models.Subscription
		expected bool
	}{
		{"ninth post allowed", &models.Subscription{PostCount: 9}, true},
		{"tenth post blocked", &models.Subscription{PostCount: 10}, false},
		{"subscribed user never blocked", &models.Subscription{PostCount: 500, IsSubscribed: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockSubscriptionRepo{
				GetFunc: func(ctx context.Context, uid uuid.UUID) (*models.Subscription, error) {
					return tt.sub, nil
				},
			}
			svc := newSubscriptionService(repo)

			allowed, err := svc.CanGenerate(context.Background(), userID)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, allowed)
		})
	}
}

func TestRecordGeneration(t *testing.T) {
	userID := uuid.New()

	t.Run("free user increments the count", func(t *testing.T) {
		increments := 0
		repo := &mockSubscriptionRepo{
			GetFunc: func(ctx context.Context, uid uuid.UUID) (*models.Subscription, error) {
				return &models.Subscription{UserID: uid, PostCount: 3}, nil
			},
			IncrementPostCountFunc: func(ctx context.Context, uid uuid.UUID) error {
				increments++
				return nil
			},
		}
		svc := newSubscriptionService(repo)

		require.NoError(t, svc.RecordGeneration(context.Background(), userID))
		assert.Equal(t, 1, increments)
	})

	t.Run("subscribed user is not counted", func(t *testing.T) {
		increments := 0
		repo := &mockSubscriptionRepo{
			GetFunc: func(ctx context.Context, uid uuid.UUID) (*models.Subscription, error) {
				return &models.Subscription{UserID: uid, IsSubscribed: true}, nil
			},
			IncrementPostCountFunc: func(ctx context.Context, uid uuid.UUID) error {
				increments++
				return nil
			},
		}
		svc := newSubscriptionService(repo)

		require.NoError(t, svc.RecordGeneration(context.Background(), userID))
		assert.Equal(t, 0, increments)
	})
}

func TestProcessWebhookEvent(t *testing.T) {
	userID := uuid.New()

	t.Run("checkout completed activates the subscription", func(t *testing.T) {
		var gotUser uuid.UUID
		var gotCustomer, gotSub string
		repo := &mockSubscriptionRepo{
			SetSubscribedFunc: func(ctx context.Context, uid uuid.UUID, customerID, subscriptionID string) error {
				gotUser, gotCustomer, gotSub = uid, customerID, subscriptionID
				return nil
			},
		}
		svc := newSubscriptionService(repo)

		raw, _ := json.Marshal(map[string]any{
			"id":                  "cs_123",
			"client_reference_id": userID.String(),
			"customer":            map[string]any{"id": "cus_42"},
			"subscription":        map[string]any{"id": "sub_42"},
		})
		err := svc.ProcessWebhookEvent(context.Background(), stripe.Event{
			Type: "checkout.session.completed",
			Data: &stripe.EventData{Raw: raw},
		})
		require.NoError(t, err)
		assert.Equal(t, userID, gotUser)
		assert.Equal(t, "cus_42", gotCustomer)
		assert.Equal(t, "sub_42", gotSub)
	})

	t.Run("checkout with bad client reference fails", func(t *testing.T) {
		svc := newSubscriptionService(&mockSubscriptionRepo{})

		raw, _ := json.Marshal(map[string]any{"id": "cs_1", "client_reference_id": "not-a-uuid"})
		err := svc.ProcessWebhookEvent(context.Background(), stripe.Event{
			Type: "checkout.session.completed",
			Data: &stripe.EventData{Raw: raw},
		})
		require.Error(t, err)
	})

	t.Run("subscription deleted deactivates by customer id", func(t *testing.T) {
		var clearedUser uuid.UUID
		repo := &mockSubscriptionRepo{
			GetByCustomerIDFunc: func(ctx context.Context, customerID string) (*models.Subscription, error) {
				if customerID != "cus_42" {
					return nil, errors.New("unknown customer")
				}
				return &models.Subscription{UserID: userID, StripeCustomerID: customerID}, nil
			},
			SetUnsubscribedFunc: func(ctx context.Context, uid uuid.UUID) error {
				clearedUser = uid
				return nil
			},
		}
		svc := newSubscriptionService(repo)

		raw, _ := json.Marshal(map[string]any{
			"id":       "sub_42",
			"customer": map[string]any{"id": "cus_42"},
		})
		err := svc.ProcessWebhookEvent(context.Background(), stripe.Event{
			Type: "customer.subscription.deleted",
			Data: &stripe.EventData{Raw: raw},
		})
		require.NoError(t, err)
		assert.Equal(t, userID, clearedUser)
	})

	t.Run("unhandled event types are ignored", func(t *testing.T) {
		svc := newSubscriptionService(&mockSubscriptionRepo{})

		err := svc.ProcessWebhookEvent(context.Background(), stripe.Event{
			Type: "invoice.paid",
			Data: &stripe.EventData{Raw: []byte(`{}`)},
		})
		require.NoError(t, err)
	})
}
