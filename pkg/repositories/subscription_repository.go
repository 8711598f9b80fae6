package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/resonant-ai/resonant-engine/pkg/database"
	"github.com/resonant-ai/resonant-engine/pkg/models"
)

// SubscriptionRepository provides data access for user subscriptions.
// Mutations rely on row-level atomicity; there is no cross-table transaction.
type SubscriptionRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	IncrementPostCount(ctx context.Context, userID uuid.UUID) error
	SetSubscribed(ctx context.Context, userID uuid.UUID, customerID, subscriptionID string) error
	SetUnsubscribed(ctx context.Context, userID uuid.UUID) error
	GetByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
}

type subscriptionRepository struct {
	db *database.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *database.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

var _ SubscriptionRepository = (*subscriptionRepository)(nil)

// Get returns the user's subscription row, creating a default row on first
// access so callers never see a missing subscription.
func (r *subscriptionRepository) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `
		INSERT INTO user_subscriptions (user_id, is_subscribed, subscription_status, post_count, updated_at)
		VALUES ($1, false, $2, 0, $3)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, is_subscribed, subscription_status, post_count,
			COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), updated_at`

	var s models.Subscription
	err := r.db.QueryRow(ctx, query, userID, models.SubscriptionStatusNone, time.Now()).Scan(
		&s.UserID, &s.IsSubscribed, &s.SubscriptionStatus, &s.PostCount,
		&s.StripeCustomerID, &s.StripeSubscriptionID, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return &s, nil
}

func (r *subscriptionRepository) IncrementPostCount(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE user_subscriptions
		SET post_count = post_count + 1, updated_at = $2
		WHERE user_id = $1`

	result, err := r.db.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment post count: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no subscription row for user %s", userID)
	}

	return nil
}

func (r *subscriptionRepository) SetSubscribed(ctx context.Context, userID uuid.UUID, customerID, subscriptionID string) error {
	query := `
		INSERT INTO user_subscriptions (
			user_id, is_subscribed, subscription_status, post_count,
			stripe_customer_id, stripe_subscription_id, updated_at
		) VALUES ($1, true, $2, 0, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			is_subscribed = true,
			subscription_status = EXCLUDED.subscription_status,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		userID, models.SubscriptionStatusActive, customerID, subscriptionID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set subscribed: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) SetUnsubscribed(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE user_subscriptions
		SET is_subscribed = false, subscription_status = $2, updated_at = $3
		WHERE user_id = $1`

	_, err := r.db.Exec(ctx, query, userID, models.SubscriptionStatusCanceled, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set unsubscribed: %w", err)
	}

	return nil
}

// GetByCustomerID resolves a subscription by Stripe customer, used by
// webhook events that do not carry our user id.
func (r *subscriptionRepository) GetByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	query := `
		SELECT user_id, is_subscribed, subscription_status, post_count,
			COALESCE(stripe_customer_id, ''), COALESCE(stripe_subscription_id, ''), updated_at
		FROM user_subscriptions
		WHERE stripe_customer_id = $1`

	var s models.Subscription
	err := r.db.QueryRow(ctx, query, customerID).Scan(
		&s.UserID, &s.IsSubscribed, &s.SubscriptionStatus, &s.PostCount,
		&s.StripeCustomerID, &s.StripeSubscriptionID, &s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by customer: %w", err)
	}

	return &s, nil
}
