package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/services"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// ContentListResponse for GET /api/content
type ContentListResponse struct {
	Items []*models.ContentItem `json:"items"`
	Total int                   `json:"total"`
}

// UpdateVariantRequest for PUT /api/content/{id}
type UpdateVariantRequest struct {
	Platform string `json:"platform"`
	Text     string `json:"text"`
}

// RegenerateRequest for POST /api/content/{id}/regenerate
type RegenerateRequest struct {
	Instructions string `json:"instructions"`
}

// RegenerateSelectionRequest for POST /api/content/{id}/regenerate-selection
type RegenerateSelectionRequest struct {
	SelectedText string `json:"selected_text"`
	FullText     string `json:"full_text"`
	Instructions string `json:"instructions"`
	Platform     string `json:"platform"`
}

// RegenerateSelectionResponse carries the proposed replacement. Nothing is
// persisted until the client applies it.
type RegenerateSelectionResponse struct {
	NewText string `json:"new_text"`
}

// ApplySelectionRequest for POST /api/content/{id}/apply-selection
type ApplySelectionRequest struct {
	Platform    string `json:"platform"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Replacement string `json:"replacement"`
}

// ============================================================================
// Handler
// ============================================================================

// ContentHandler handles content item HTTP requests.
type ContentHandler struct {
	contentService services.ContentService
	logger         *zap.Logger
}

// NewContentHandler creates a new content handler.
func NewContentHandler(contentService services.ContentService, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{contentService: contentService, logger: logger}
}

// RegisterRoutes registers the content handler's routes on the given mux.
func (h *ContentHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/content"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("GET "+base+"/{id}", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAuth(h.Delete))
	mux.HandleFunc("POST "+base+"/{id}/regenerate", authMiddleware.RequireAuth(h.Regenerate))
	mux.HandleFunc("POST "+base+"/{id}/regenerate-selection", authMiddleware.RequireAuth(h.RegenerateSelection))
	mux.HandleFunc("POST "+base+"/{id}/apply-selection", authMiddleware.RequireAuth(h.ApplySelection))
}

// List handles GET /api/content
func (h *ContentHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	items, err := h.contentService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list content",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "list_content_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, ContentListResponse{Items: items, Total: len(items)}); err != nil {
		h.logger.Error("Failed to encode content list", zap.Error(err))
	}
}

// Get handles GET /api/content/{id}
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	item, err := h.contentService.Get(r.Context(), userID, id)
	if err != nil {
		if err := serviceError(w, err, "get_content_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode content item", zap.Error(err))
	}
}

// Update handles PUT /api/content/{id} (manual per-platform edit).
func (h *ContentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if !models.IsValidPlatform(req.Platform) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_platform", "platform must be \"x\" or \"linkedin\""); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.contentService.UpdateVariant(r.Context(), userID, id, req.Platform, req.Text)
	if err != nil {
		h.logger.Error("Failed to update content",
			zap.String("user_id", userID.String()),
			zap.String("content_id", id.String()),
			zap.Error(err))
		if err := serviceError(w, err, "update_content_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode content item", zap.Error(err))
	}
}

// Delete handles DELETE /api/content/{id}
func (h *ContentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.contentService.Delete(r.Context(), userID, id); err != nil {
		if err := serviceError(w, err, "delete_content_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, map[string]bool{"deleted": true}); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}

// Regenerate handles POST /api/content/{id}/regenerate (whole post).
func (h *ContentHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Instructions) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_instructions", "instructions are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.contentService.RegenerateWhole(r.Context(), userID, id, req.Instructions)
	if err != nil {
		h.logger.Error("Failed to regenerate content",
			zap.String("user_id", userID.String()),
			zap.String("content_id", id.String()),
			zap.Error(err))
		if err := serviceError(w, err, "regenerate_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode content item", zap.Error(err))
	}
}

// RegenerateSelection handles POST /api/content/{id}/regenerate-selection.
// Returns a proposal; the client applies it via ApplySelection.
func (h *ContentHandler) RegenerateSelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	if _, ok := ParsePathID(w, r, "id", h.logger); !ok {
		return
	}

	var req RegenerateSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Instructions) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_instructions", "instructions are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	newText, err := h.contentService.RegenerateSelection(r.Context(),
		req.SelectedText, req.FullText, req.Instructions, req.Platform)
	if err != nil {
		h.logger.Error("Failed to regenerate selection",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "regenerate_selection_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, RegenerateSelectionResponse{NewText: newText}); err != nil {
		h.logger.Error("Failed to encode selection response", zap.Error(err))
	}
}

// ApplySelection handles POST /api/content/{id}/apply-selection.
func (h *ContentHandler) ApplySelection(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req ApplySelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.contentService.ApplySelection(r.Context(), userID, id, req.Platform, req.Start, req.End, req.Replacement)
	if err != nil {
		h.logger.Error("Failed to apply selection",
			zap.String("user_id", userID.String()),
			zap.String("content_id", id.String()),
			zap.Error(err))
		if err := serviceError(w, err, "apply_selection_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, item); err != nil {
		h.logger.Error("Failed to encode content item", zap.Error(err))
	}
}
