package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/config"
	"github.com/resonant-ai/resonant-engine/pkg/services"
	"github.com/resonant-ai/resonant-engine/pkg/social"
)

// TwitterAuthorizeResponse for GET /api/social/twitter/authorize
type TwitterAuthorizeResponse struct {
	URL string `json:"url"`
}

// PostTweetRequest for POST /api/social/twitter/post
type PostTweetRequest struct {
	ContentID string `json:"content_id"`
}

// PostTweetResponse carries the published tweet id.
type PostTweetResponse struct {
	TweetID string `json:"tweet_id"`
}

// TwitterStatusResponse for GET /api/social/twitter/status
type TwitterStatusResponse struct {
	Connected bool `json:"connected"`
}

// SocialHandler handles social account connection and publishing requests.
type SocialHandler struct {
	twitter        social.TwitterService
	contentService services.ContentService
	linkedinCfg    config.LinkedInConfig
	logger         *zap.Logger
}

// NewSocialHandler creates a new social handler.
func NewSocialHandler(
	twitter social.TwitterService,
	contentService services.ContentService,
	linkedinCfg config.LinkedInConfig,
	logger *zap.Logger,
) *SocialHandler {
	return &SocialHandler{
		twitter:        twitter,
		contentService: contentService,
		linkedinCfg:    linkedinCfg,
		logger:         logger,
	}
}

// RegisterRoutes registers the social handler's routes on the given mux.
// The Twitter callback is unauthenticated; it is bound to the user by the
// state session created during authorize.
func (h *SocialHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/social/twitter/authorize", authMiddleware.RequireAuth(h.TwitterAuthorize))
	mux.HandleFunc("GET /api/social/twitter/callback", h.TwitterCallback)
	mux.HandleFunc("GET /api/social/twitter/status", authMiddleware.RequireAuth(h.TwitterStatus))
	mux.HandleFunc("DELETE /api/social/twitter", authMiddleware.RequireAuth(h.TwitterDisconnect))
	mux.HandleFunc("POST /api/social/twitter/post", authMiddleware.RequireAuth(h.PostTweet))
	mux.HandleFunc("GET /api/auth/linkedin", h.LinkedInRedirect)
}

// TwitterAuthorize handles GET /api/social/twitter/authorize. The PKCE
// verifier and state live in the session cookie until the callback.
func (h *SocialHandler) TwitterAuthorize(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	state, err := randomState()
	if err != nil {
		h.logger.Error("Failed to generate state", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "authorize_failed", "Failed to start authorization"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	url, verifier := h.twitter.AuthorizeURL(state)

	session, err := auth.GetSession(r)
	if err != nil {
		h.logger.Error("Failed to open session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "authorize_failed", "Failed to start authorization"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	session.Values[auth.SessionKeyState] = state
	session.Values[auth.SessionKeyCodeVerifier] = verifier
	session.Values["user_id"] = userID.String()
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "authorize_failed", "Failed to start authorization"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, TwitterAuthorizeResponse{URL: url}); err != nil {
		h.logger.Error("Failed to encode authorize response", zap.Error(err))
	}
}

// TwitterCallback handles GET /api/social/twitter/callback
func (h *SocialHandler) TwitterCallback(w http.ResponseWriter, r *http.Request) {
	session, err := auth.GetSession(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_session", "Authorization session missing"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	state, _ := session.Values[auth.SessionKeyState].(string)
	verifier, _ := session.Values[auth.SessionKeyCodeVerifier].(string)
	userIDStr, _ := session.Values["user_id"].(string)

	if state == "" || r.URL.Query().Get("state") != state {
		if err := ErrorResponse(w, http.StatusBadRequest, "state_mismatch", "Authorization state mismatch"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_session", "Authorization session invalid"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_code", "Authorization code missing"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.twitter.Exchange(r.Context(), userID, code, verifier); err != nil {
		h.logger.Error("Failed to complete twitter authorization",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadGateway, "exchange_failed", "Failed to complete authorization"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	auth.ClearSessionValues(session)
	delete(session.Values, "user_id")
	if err := auth.SaveSession(r, w, session); err != nil {
		h.logger.Warn("Failed to clear oauth session", zap.Error(err))
	}

	if err := WriteData(w, http.StatusOK, TwitterStatusResponse{Connected: true}); err != nil {
		h.logger.Error("Failed to encode callback response", zap.Error(err))
	}
}

// TwitterStatus handles GET /api/social/twitter/status
func (h *SocialHandler) TwitterStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	connected, err := h.twitter.Connected(r.Context(), userID)
	if err != nil {
		if err := serviceError(w, err, "twitter_status_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, TwitterStatusResponse{Connected: connected}); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}

// TwitterDisconnect handles DELETE /api/social/twitter
func (h *SocialHandler) TwitterDisconnect(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.twitter.Disconnect(r.Context(), userID); err != nil {
		if err := serviceError(w, err, "twitter_disconnect_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, TwitterStatusResponse{Connected: false}); err != nil {
		h.logger.Error("Failed to encode disconnect response", zap.Error(err))
	}
}

// PostTweet handles POST /api/social/twitter/post. Publishes the content
// item's X variant and marks the item published.
func (h *SocialHandler) PostTweet(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req PostTweetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "content_id must be a UUID"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.contentService.Get(r.Context(), userID, contentID)
	if err != nil {
		if err := serviceError(w, err, "post_tweet_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	tweetID, err := h.twitter.PublishTweet(r.Context(), userID, item.XDescription)
	if err != nil {
		h.logger.Error("Failed to publish tweet",
			zap.String("user_id", userID.String()),
			zap.String("content_id", contentID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "post_tweet_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.contentService.MarkPublished(r.Context(), userID, contentID); err != nil {
		// The tweet is live; a stale status is logged, not surfaced.
		h.logger.Error("Failed to mark content published",
			zap.String("content_id", contentID.String()),
			zap.Error(err))
	}

	if err := WriteData(w, http.StatusOK, PostTweetResponse{TweetID: tweetID}); err != nil {
		h.logger.Error("Failed to encode tweet response", zap.Error(err))
	}
}

// LinkedInRedirect handles GET /api/auth/linkedin, the sign-in entry point.
func (h *SocialHandler) LinkedInRedirect(w http.ResponseWriter, r *http.Request) {
	state, err := randomState()
	if err != nil {
		h.logger.Error("Failed to generate state", zap.Error(err))
		http.Error(w, "failed to start sign-in", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, social.LinkedInAuthorizeURL(h.linkedinCfg, state), http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
