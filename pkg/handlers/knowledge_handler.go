package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/services"
	"github.com/resonant-ai/resonant-engine/pkg/tasks"
)

// ============================================================================
// Request/Response Types
// ============================================================================

// KnowledgeListResponse for GET /api/knowledge
type KnowledgeListResponse struct {
	Entries []*models.KnowledgeEntry `json:"entries"`
	Total   int                      `json:"total"`
}

// CreateEntryRequest for POST /api/knowledge
type CreateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdateEntryRequest for PUT /api/knowledge/{id}
type UpdateEntryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ============================================================================
// Handler
// ============================================================================

// KnowledgeHandler handles knowledge base HTTP requests.
type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
	agentService     services.AgentService
	runner           *tasks.Runner
	logger           *zap.Logger
}

// NewKnowledgeHandler creates a new knowledge handler.
func NewKnowledgeHandler(
	knowledgeService services.KnowledgeService,
	agentService services.AgentService,
	runner *tasks.Runner,
	logger *zap.Logger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledgeService: knowledgeService,
		agentService:     agentService,
		runner:           runner,
		logger:           logger,
	}
}

// RegisterRoutes registers the knowledge handler's routes on the given mux.
func (h *KnowledgeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	base := "/api/knowledge"

	mux.HandleFunc("GET "+base, authMiddleware.RequireAuth(h.List))
	mux.HandleFunc("POST "+base, authMiddleware.RequireAuth(h.Create))
	mux.HandleFunc("PUT "+base+"/{id}", authMiddleware.RequireAuth(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", authMiddleware.RequireAuth(h.Delete))
}

// List handles GET /api/knowledge
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	entries, err := h.knowledgeService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list knowledge entries",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "list_knowledge_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := KnowledgeListResponse{Entries: entries, Total: len(entries)}
	if err := WriteData(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode knowledge list", zap.Error(err))
	}
}

// Create handles POST /api/knowledge
func (h *KnowledgeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "title and content are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.knowledgeService.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("Failed to create knowledge entry",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "create_knowledge_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.submitPromptResync(userID)

	if err := WriteData(w, http.StatusCreated, entry); err != nil {
		h.logger.Error("Failed to encode knowledge entry", zap.Error(err))
	}
}

// Update handles PUT /api/knowledge/{id}
func (h *KnowledgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_fields", "title and content are required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	entry, err := h.knowledgeService.Update(r.Context(), userID, id, req.Title, req.Content)
	if err != nil {
		h.logger.Error("Failed to update knowledge entry",
			zap.String("user_id", userID.String()),
			zap.String("entry_id", id.String()),
			zap.Error(err))
		if err := serviceError(w, err, "update_knowledge_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.submitPromptResync(userID)

	if err := WriteData(w, http.StatusOK, entry); err != nil {
		h.logger.Error("Failed to encode knowledge entry", zap.Error(err))
	}
}

// Delete handles DELETE /api/knowledge/{id}
func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParsePathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.knowledgeService.Delete(r.Context(), userID, id); err != nil {
		h.logger.Error("Failed to delete knowledge entry",
			zap.String("user_id", userID.String()),
			zap.String("entry_id", id.String()),
			zap.Error(err))
		if err := serviceError(w, err, "delete_knowledge_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.submitPromptResync(userID)

	if err := WriteData(w, http.StatusOK, map[string]bool{"deleted": true}); err != nil {
		h.logger.Error("Failed to encode delete response", zap.Error(err))
	}
}

// submitPromptResync pushes refreshed agent prompts in the background after a
// knowledge mutation. Failures are logged by the runner, never surfaced.
func (h *KnowledgeHandler) submitPromptResync(userID uuid.UUID) {
	h.runner.Submit("prompt-resync", func(ctx context.Context) error {
		return h.agentService.SyncPrompts(ctx, userID)
	})
}
