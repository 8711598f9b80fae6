// Package social connects user accounts on external social platforms and
// publishes content to them. Twitter uses OAuth2 with PKCE; LinkedIn only
// gets an authorization redirect here, the code exchange lives with the
// hosted auth provider.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/config"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
)

const (
	twitterAuthURL  = "https://twitter.com/i/oauth2/authorize"
	twitterTokenURL = "https://api.twitter.com/2/oauth2/token"
	tweetsEndpoint  = "https://api.twitter.com/2/tweets"
)

// twitterScopes includes offline.access so a refresh token is issued.
var twitterScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// TwitterService connects a user's X account and publishes tweets to it.
type TwitterService interface {
	// AuthorizeURL builds the PKCE authorization URL. The returned verifier
	// must be kept (in the state session) and passed back to Exchange.
	AuthorizeURL(state string) (url, verifier string)

	// Exchange trades the callback code for tokens and stores them.
	Exchange(ctx context.Context, userID uuid.UUID, code, verifier string) error

	// Connected reports whether the user has a linked X account.
	Connected(ctx context.Context, userID uuid.UUID) (bool, error)

	// Disconnect removes the user's stored X tokens.
	Disconnect(ctx context.Context, userID uuid.UUID) error

	// PublishTweet posts text to the user's X account and returns the tweet
	// id. On an expired access token it refreshes and retries once.
	PublishTweet(ctx context.Context, userID uuid.UUID, text string) (string, error)
}

type twitterService struct {
	conf       *oauth2.Config
	socialRepo repositories.SocialRepository
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTwitterService creates a new Twitter service with dependencies.
func NewTwitterService(
	cfg config.TwitterConfig,
	socialRepo repositories.SocialRepository,
	logger *zap.Logger,
) TwitterService {
	return &twitterService{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       twitterScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  twitterAuthURL,
				TokenURL: twitterTokenURL,
			},
		},
		socialRepo: socialRepo,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

var _ TwitterService = (*twitterService)(nil)

func (s *twitterService) AuthorizeURL(state string) (string, string) {
	verifier := oauth2.GenerateVerifier()
	url := s.conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	return url, verifier
}

func (s *twitterService) Exchange(ctx context.Context, userID uuid.UUID, code, verifier string) error {
	token, err := s.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	account := &models.SocialAccount{
		UserID:       userID,
		Provider:     models.ProviderTwitter,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if err := s.socialRepo.Upsert(ctx, account); err != nil {
		return err
	}

	s.logger.Info("twitter account connected", zap.String("user_id", userID.String()))
	return nil
}

func (s *twitterService) Connected(ctx context.Context, userID uuid.UUID) (bool, error) {
	_, err := s.socialRepo.Get(ctx, userID, models.ProviderTwitter)
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *twitterService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return s.socialRepo.Delete(ctx, userID, models.ProviderTwitter)
}

func (s *twitterService) PublishTweet(ctx context.Context, userID uuid.UUID, text string) (string, error) {
	account, err := s.socialRepo.Get(ctx, userID, models.ProviderTwitter)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", apperrors.ErrNotConnected
	}
	if err != nil {
		return "", err
	}

	id, status, err := s.postTweet(ctx, account.AccessToken, text)
	if err == nil {
		return id, nil
	}
	if status != http.StatusUnauthorized {
		return "", err
	}

	// Expired access token. Refresh once and retry.
	account, err = s.refresh(ctx, account)
	if err != nil {
		return "", fmt.Errorf("failed to refresh twitter token: %w", err)
	}

	id, _, err = s.postTweet(ctx, account.AccessToken, text)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *twitterService) postTweet(ctx context.Context, accessToken, text string) (id string, status int, err error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", 0, fmt.Errorf("failed to marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tweetsEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to post tweet: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp.StatusCode, fmt.Errorf("tweet rejected with status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to parse tweet response: %w", err)
	}

	return result.Data.ID, resp.StatusCode, nil
}

// refresh exchanges the stored refresh token for a new token pair and
// persists it. Twitter rotates refresh tokens on every use.
func (s *twitterService) refresh(ctx context.Context, account *models.SocialAccount) (*models.SocialAccount, error) {
	token, err := s.conf.TokenSource(ctx, &oauth2.Token{
		RefreshToken: account.RefreshToken,
	}).Token()
	if err != nil {
		return nil, err
	}

	account.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		account.RefreshToken = token.RefreshToken
	}
	account.ExpiresAt = token.Expiry

	if err := s.socialRepo.Upsert(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}
