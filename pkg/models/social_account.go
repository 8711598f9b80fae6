package models

import (
	"time"

	"github.com/google/uuid"
)

// Social auth providers stored in user_auth.
const (
	ProviderTwitter = "twitter"
)

// SocialAccount holds OAuth tokens for a user's connected social account.
// Access tokens are refreshed via the stored refresh token when a publish
// call comes back unauthorized.
type SocialAccount struct {
	UserID       uuid.UUID `json:"user_id"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
