package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/services"
)

// MeResponse for GET /api/me
type MeResponse struct {
	User         *models.User                 `json:"user"`
	Subscription *services.SubscriptionStatus `json:"subscription"`
}

// UsersHandler handles the authenticated-profile endpoint. The first call
// after sign-in creates the user row from the token claims.
type UsersHandler struct {
	userRepo      repositories.UserRepository
	subscriptions services.SubscriptionService
	logger        *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(
	userRepo repositories.UserRepository,
	subscriptions services.SubscriptionService,
	logger *zap.Logger,
) *UsersHandler {
	return &UsersHandler{
		userRepo:      userRepo,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/me", authMiddleware.RequireAuth(h.Me))
}

// Me handles GET /api/me. Upserts the user from claims so the row always
// reflects the latest sign-in profile.
func (h *UsersHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	claims, _ := auth.GetClaims(r.Context())

	user := &models.User{
		ID:         userID,
		Email:      claims.Email,
		FullName:   claims.FullName,
		LinkedInID: claims.LinkedInID,
	}
	if err := h.userRepo.Upsert(r.Context(), user); err != nil {
		h.logger.Error("Failed to upsert user",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "get_profile_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	status, err := h.subscriptions.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load subscription status",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "get_profile_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, MeResponse{User: user, Subscription: status}); err != nil {
		h.logger.Error("Failed to encode profile", zap.Error(err))
	}
}
