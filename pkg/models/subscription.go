package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription statuses mirrored from the payment provider.
const (
	SubscriptionStatusNone     = "none"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"
)

// Subscription tracks a user's billing state and free-tier usage.
// PostCount increments once per successfully generated post while the user is
// not subscribed; once it reaches the free-tier limit, further generation is
// rejected until the user subscribes.
type Subscription struct {
	UserID               uuid.UUID `json:"user_id"`
	IsSubscribed         bool      `json:"is_subscribed"`
	SubscriptionStatus   string    `json:"subscription_status"`
	PostCount            int       `json:"post_count"`
	StripeCustomerID     string    `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CanGenerate reports whether the user may generate another post under the
// given free-tier limit. Subscribed users are never blocked.
func (s *Subscription) CanGenerate(freeLimit int) bool {
	if s.IsSubscribed {
		return true
	}
	return s.PostCount < freeLimit
}
