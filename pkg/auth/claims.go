// Package auth provides JWT-based authentication for resonant-engine.
// Tokens are issued by the hosted auth provider after LinkedIn sign-in and
// validated against its JWKS endpoint.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the JWT claims structure issued by the auth provider. Subject is
// the user's UUID; the profile fields come from the LinkedIn sign-in.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email,omitempty"`
	FullName   string `json:"name,omitempty"`
	LinkedInID string `json:"linkedin_id,omitempty"`
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// UserIDFromContext extracts the authenticated user's UUID from JWT claims in
// context. Returns an error if not authenticated or the subject is not a UUID.
func UserIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, fmt.Errorf("authentication required: no claims in context")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token subject: %w", err)
	}

	return userID, nil
}
