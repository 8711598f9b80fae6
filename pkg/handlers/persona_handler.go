package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/services"
	"github.com/resonant-ai/resonant-engine/pkg/tasks"
)

// SavePersonaRequest for PUT /api/persona
type SavePersonaRequest struct {
	Introduction     string `json:"introduction"`
	Uniqueness       string `json:"uniqueness"`
	Audience         string `json:"audience"`
	ValueProposition string `json:"value_proposition"`
	Style            string `json:"style"`
	Goals            string `json:"goals"`
}

// ScrapePersonaRequest for POST /api/persona/scrape. Profile and Posts carry
// the scraper's raw output as opaque JSON.
type ScrapePersonaRequest struct {
	Profile json.RawMessage `json:"profile"`
	Posts   json.RawMessage `json:"posts"`
}

// PersonaHandler handles persona HTTP requests.
type PersonaHandler struct {
	personaService services.PersonaService
	agentService   services.AgentService
	runner         *tasks.Runner
	logger         *zap.Logger
}

// NewPersonaHandler creates a new persona handler.
func NewPersonaHandler(
	personaService services.PersonaService,
	agentService services.AgentService,
	runner *tasks.Runner,
	logger *zap.Logger,
) *PersonaHandler {
	return &PersonaHandler{
		personaService: personaService,
		agentService:   agentService,
		runner:         runner,
		logger:         logger,
	}
}

// RegisterRoutes registers the persona handler's routes on the given mux.
func (h *PersonaHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/persona", authMiddleware.RequireAuth(h.Get))
	mux.HandleFunc("PUT /api/persona", authMiddleware.RequireAuth(h.Save))
	mux.HandleFunc("POST /api/persona/scrape", authMiddleware.RequireAuth(h.Scrape))
}

// Get handles GET /api/persona. A user without a persona gets an empty one
// rather than a 404 so the client can render the onboarding form.
func (h *PersonaHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	persona, err := h.personaService.Get(r.Context(), userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		persona = &models.Persona{UserID: userID}
		err = nil
	}
	if err != nil {
		h.logger.Error("Failed to get persona",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "get_persona_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteData(w, http.StatusOK, persona); err != nil {
		h.logger.Error("Failed to encode persona", zap.Error(err))
	}
}

// Save handles PUT /api/persona
func (h *PersonaHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req SavePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	persona, err := h.personaService.Save(r.Context(), &models.Persona{
		UserID:           userID,
		Introduction:     req.Introduction,
		Uniqueness:       req.Uniqueness,
		Audience:         req.Audience,
		ValueProposition: req.ValueProposition,
		Style:            req.Style,
		Goals:            req.Goals,
	})
	if err != nil {
		h.logger.Error("Failed to save persona",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "save_persona_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.submitPromptResync(userID)

	if err := WriteData(w, http.StatusOK, persona); err != nil {
		h.logger.Error("Failed to encode persona", zap.Error(err))
	}
}

// Scrape handles POST /api/persona/scrape
func (h *PersonaHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUserID(w, r, h.logger)
	if !ok {
		return
	}

	var req ScrapePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	persona, err := h.personaService.UpsertFromScrape(r.Context(), userID, req.Profile, req.Posts)
	if err != nil {
		h.logger.Error("Failed to build persona from scrape",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		if err := serviceError(w, err, "scrape_persona_failed"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.submitPromptResync(userID)

	if err := WriteData(w, http.StatusOK, persona); err != nil {
		h.logger.Error("Failed to encode persona", zap.Error(err))
	}
}

func (h *PersonaHandler) submitPromptResync(userID uuid.UUID) {
	h.runner.Submit("prompt-resync", func(ctx context.Context) error {
		return h.agentService.SyncPrompts(ctx, userID)
	})
}
