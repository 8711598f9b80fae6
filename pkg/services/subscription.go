package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/config"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
)

// SubscriptionStatus is the billing view returned to clients.
type SubscriptionStatus struct {
	IsSubscribed       bool   `json:"is_subscribed"`
	SubscriptionStatus string `json:"subscription_status"`
	PostCount          int    `json:"post_count"`
	FreeTierLimit      int    `json:"free_tier_limit"`
	PostsRemaining     int    `json:"posts_remaining"`
}

// SubscriptionService handles the free-tier gate and Stripe billing flows.
type SubscriptionService interface {
	// Status returns the user's billing state and remaining free-tier posts.
	Status(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error)

	// CanGenerate reports whether the user may generate another post.
	CanGenerate(ctx context.Context, userID uuid.UUID) (bool, error)

	// RecordGeneration counts a successful generation against the free tier.
	// Subscribed users are not counted.
	RecordGeneration(ctx context.Context, userID uuid.UUID) error

	// CreateCheckoutSession starts a Stripe Checkout flow and returns its URL.
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID) (string, error)

	// CreatePortalSession returns a Stripe billing portal URL for an existing
	// customer.
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)

	// ProcessWebhookEvent applies a verified Stripe webhook event. Unhandled
	// event types are ignored.
	ProcessWebhookEvent(ctx context.Context, event stripe.Event) error
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
	stripe           *client.API
	cfg              config.StripeConfig
	baseURL          string
	freeLimit        int
	logger           *zap.Logger
}

// NewSubscriptionService creates a new subscription service with dependencies.
func NewSubscriptionService(
	subscriptionRepo repositories.SubscriptionRepository,
	cfg config.StripeConfig,
	baseURL string,
	freeLimit int,
	logger *zap.Logger,
) SubscriptionService {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)

	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		stripe:           sc,
		cfg:              cfg,
		baseURL:          baseURL,
		freeLimit:        freeLimit,
		logger:           logger,
	}
}

var _ SubscriptionService = (*subscriptionService)(nil)

func (s *subscriptionService) Status(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	remaining := s.freeLimit - sub.PostCount
	if remaining < 0 || sub.IsSubscribed {
		remaining = 0
	}

	return &SubscriptionStatus{
		IsSubscribed:       sub.IsSubscribed,
		SubscriptionStatus: sub.SubscriptionStatus,
		PostCount:          sub.PostCount,
		FreeTierLimit:      s.freeLimit,
		PostsRemaining:     remaining,
	}, nil
}

func (s *subscriptionService) CanGenerate(ctx context.Context, userID uuid.UUID) (bool, error) {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sub.CanGenerate(s.freeLimit), nil
}

func (s *subscriptionService) RecordGeneration(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if sub.IsSubscribed {
		return nil
	}
	return s.subscriptionRepo.IncrementPostCount(ctx, userID)
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		// ClientReferenceID carries our user id back through the
		// checkout.session.completed webhook.
		ClientReferenceID: stripe.String(userID.String()),
		SuccessURL:        stripe.String(s.baseURL + "/billing/success"),
		CancelURL:         stripe.String(s.baseURL + "/billing/cancel"),
	}
	params.Context = ctx
	if sub.StripeCustomerID != "" {
		params.Customer = stripe.String(sub.StripeCustomerID)
	}

	session, err := s.stripe.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return session.URL, nil
}

func (s *subscriptionService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sub, err := s.subscriptionRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if sub.StripeCustomerID == "" {
		return "", fmt.Errorf("user %s has no billing customer", userID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.baseURL + "/billing"),
	}
	params.Context = ctx

	session, err := s.stripe.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return session.URL, nil
}

func (s *subscriptionService) ProcessWebhookEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return fmt.Errorf("failed to parse checkout session: %w", err)
		}
		return s.handleCheckoutCompleted(ctx, &session)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("failed to parse subscription: %w", err)
		}
		return s.handleSubscriptionDeleted(ctx, &sub)

	default:
		s.logger.Debug("ignoring webhook event", zap.String("type", string(event.Type)))
		return nil
	}
}

func (s *subscriptionService) handleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	userID, err := uuid.Parse(session.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("checkout session %s has invalid client reference %q", session.ID, session.ClientReferenceID)
	}

	var customerID, subscriptionID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	if err := s.subscriptionRepo.SetSubscribed(ctx, userID, customerID, subscriptionID); err != nil {
		return err
	}

	s.logger.Info("subscription activated",
		zap.String("user_id", userID.String()),
		zap.String("customer_id", customerID))
	return nil
}

func (s *subscriptionService) handleSubscriptionDeleted(ctx context.Context, stripeSub *stripe.Subscription) error {
	if stripeSub.Customer == nil {
		return fmt.Errorf("subscription %s has no customer", stripeSub.ID)
	}

	sub, err := s.subscriptionRepo.GetByCustomerID(ctx, stripeSub.Customer.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve customer %s: %w", stripeSub.Customer.ID, err)
	}

	if err := s.subscriptionRepo.SetUnsubscribed(ctx, sub.UserID); err != nil {
		return err
	}

	s.logger.Info("subscription canceled",
		zap.String("user_id", sub.UserID.String()),
		zap.String("customer_id", stripeSub.Customer.ID))
	return nil
}
