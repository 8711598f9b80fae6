package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ValidateInviteRequest for POST /api/invite/validate
type ValidateInviteRequest struct {
	Code string `json:"code"`
}

// ValidateInviteResponse reports whether the submitted code matched.
type ValidateInviteResponse struct {
	Valid bool `json:"valid"`
}

// InviteHandler validates invite codes while the product is invite-only.
type InviteHandler struct {
	inviteCode string
	logger     *zap.Logger
}

// NewInviteHandler creates a new invite handler.
func NewInviteHandler(inviteCode string, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{inviteCode: inviteCode, logger: logger}
}

// RegisterRoutes registers the invite handler's routes on the given mux.
// Unauthenticated: the code is checked before the user has an account.
func (h *InviteHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/invite/validate", h.Validate)
}

// Validate handles POST /api/invite/validate. The comparison is constant
// time so response timing leaks nothing about the code.
func (h *InviteHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	valid := h.inviteCode != "" &&
		subtle.ConstantTimeCompare([]byte(req.Code), []byte(h.inviteCode)) == 1

	if err := WriteJSON(w, http.StatusOK, ValidateInviteResponse{Valid: valid}); err != nil {
		h.logger.Error("Failed to encode invite response", zap.Error(err))
	}
}
