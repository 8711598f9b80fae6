package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/services"
)

// CreateWebCallRequest for POST /api/calls/web. CallType is "content"
// (default) or "onboarding".
type CreateWebCallRequest struct {
	CallType string `json:"call_type"`
}

// CallsHandler handles voice call HTTP requests.
type CallsHandler struct {
	callService services.CallService
	logger      *zap.Logger
}

// NewCallsHandler creates a new calls handler.
func NewCallsHandler(callService services.CallService, logger *zap.Logger) *CallsHandler {
	return &CallsHandler{callService: callService, logger: logger}
}

// RegisterRoutes registers the calls handler's routes on the given mux.
func (h *CallsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/calls/web", authMiddleware.RequireAuth(h.CreateWebCall))
	mux.HandleFunc("POST /api/calls/{call_id}/process", authMiddleware.RequireAuth(h.ProcessCall))
	mux.HandleFunc("POST /api/calls/{call_id}/process-onboarding", authMiddleware.RequireAuth(h.ProcessOnboardingCall))
}

// CreateWebCall handles POST /api/calls/web
func (h *CallsHandler) CreateWebCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	req := CreateWebCallRequest{CallType: services.CallTypeContent}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
	}
	if req.CallType == "" {
		req.CallType = services.CallTypeContent
	}

	call, err := h.callService.CreateWebCall(r.Context(), userID, req.CallType)
	if err != nil {
		h.logger.Error("Failed to create web call",
			zap.String("user_id", userID.String()),
			zap.String("call_type", req.CallType),
			zap.Error(err))
		if err := serviceError(w, err, "create_call_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusCreated, call); err != nil {
		h.logger.Error("Failed to encode web call", zap.Error(err))
	}
}

// ProcessCall handles POST /api/calls/{call_id}/process
func (h *CallsHandler) ProcessCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	callID := r.PathValue("call_id")
	if callID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_call_id", "call_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.callService.ProcessCall(r.Context(), userID, callID)
	if err != nil {
		h.logger.Error("Failed to process call",
			zap.String("user_id", userID.String()),
			zap.String("call_id", callID),
			zap.Error(err))
		if err := serviceError(w, err, "process_call_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusCreated, item); err != nil {
		h.logger.Error("Failed to encode content item", zap.Error(err))
	}
}

// ProcessOnboardingCall handles POST /api/calls/{call_id}/process-onboarding
func (h *CallsHandler) ProcessOnboardingCall(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	callID := r.PathValue("call_id")
	if callID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_call_id", "call_id is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	persona, err := h.callService.ProcessOnboardingCall(r.Context(), userID, callID)
	if err != nil {
		h.logger.Error("Failed to process onboarding call",
			zap.String("user_id", userID.String()),
			zap.String("call_id", callID),
			zap.Error(err))
		if err := serviceError(w, err, "process_call_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, persona); err != nil {
		h.logger.Error("Failed to encode persona", zap.Error(err))
	}
}
