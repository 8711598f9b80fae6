package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/llm"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/prompts"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/retry"
)

// PersonaService manages the per-user writing persona used to personalize
// agent prompts and generated content.
type PersonaService interface {
	// Get returns the user's persona, or ErrNotFound when none exists yet.
	Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error)

	// Save stores persona fields supplied directly by the user.
	Save(ctx context.Context, persona *models.Persona) (*models.Persona, error)

	// ExtractFromInterview distills persona fields from an onboarding
	// interview transcript and merges them into the stored persona.
	ExtractFromInterview(ctx context.Context, userID uuid.UUID, transcript string) (*models.Persona, error)

	// UpsertFromScrape stores raw scraped profile data and distills persona
	// fields from it.
	UpsertFromScrape(ctx context.Context, userID uuid.UUID, profile, posts json.RawMessage) (*models.Persona, error)
}

type personaService struct {
	personaRepo repositories.PersonaRepository
	messager    llm.Messager
	logger      *zap.Logger
}

// NewPersonaService creates a new persona service with dependencies.
func NewPersonaService(
	personaRepo repositories.PersonaRepository,
	messager llm.Messager,
	logger *zap.Logger,
) PersonaService {
	return &personaService{
		personaRepo: personaRepo,
		messager:    messager,
		logger:      logger,
	}
}

var _ PersonaService = (*personaService)(nil)

// personaTool is the structured-output schema for persona distillation. All
// fields are optional so the model only reports what the source material
// actually supports.
var personaTool = llm.ToolSchema{
	Name:        "record_persona",
	Description: "Record the persona traits evident in the material. Omit any field the material does not support.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"introduction":      map[string]any{"type": "string", "description": "Who the person is, in their own voice"},
			"uniqueness":        map[string]any{"type": "string", "description": "What sets them apart from peers"},
			"audience":          map[string]any{"type": "string", "description": "Who they write for"},
			"value_proposition": map[string]any{"type": "string", "description": "What their audience gets from following them"},
			"style":             map[string]any{"type": "string", "description": "Tone of voice and writing style"},
			"goals":             map[string]any{"type": "string", "description": "What they want their content to achieve"},
		},
	},
}

// personaFields mirrors personaTool's schema.
type personaFields struct {
	Introduction     string `json:"introduction"`
	Uniqueness       string `json:"uniqueness"`
	Audience         string `json:"audience"`
	ValueProposition string `json:"value_proposition"`
	Style            string `json:"style"`
	Goals            string `json:"goals"`
}

func (s *personaService) Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error) {
	return s.personaRepo.Get(ctx, userID)
}

func (s *personaService) Save(ctx context.Context, persona *models.Persona) (*models.Persona, error) {
	if persona.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id is required")
	}
	if err := s.personaRepo.Upsert(ctx, persona); err != nil {
		return nil, err
	}
	return s.personaRepo.Get(ctx, persona.UserID)
}

func (s *personaService) ExtractFromInterview(ctx context.Context, userID uuid.UUID, transcript string) (*models.Persona, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, apperrors.ErrEmptyTranscript
	}

	fields, err := s.distill(ctx, "Interview transcript:\n\n"+transcript)
	if err != nil {
		return nil, fmt.Errorf("extract persona from interview: %w", err)
	}

	persona := s.mergeInto(ctx, userID, fields)
	if err := s.personaRepo.Upsert(ctx, persona); err != nil {
		return nil, err
	}
	return s.personaRepo.Get(ctx, userID)
}

func (s *personaService) UpsertFromScrape(ctx context.Context, userID uuid.UUID, profile, posts json.RawMessage) (*models.Persona, error) {
	var material strings.Builder
	if len(profile) > 0 {
		material.WriteString("Profile:\n")
		material.Write(profile)
		material.WriteString("\n\n")
	}
	if len(posts) > 0 {
		material.WriteString("Recent posts:\n")
		material.Write(posts)
	}
	if material.Len() == 0 {
		return nil, fmt.Errorf("scraped material is empty")
	}

	fields, err := s.distill(ctx, material.String())
	if err != nil {
		return nil, fmt.Errorf("extract persona from scrape: %w", err)
	}

	persona := s.mergeInto(ctx, userID, fields)
	persona.ScrapedProfile = profile
	persona.ScrapedPosts = posts
	if err := s.personaRepo.Upsert(ctx, persona); err != nil {
		return nil, err
	}
	return s.personaRepo.Get(ctx, userID)
}

func (s *personaService) distill(ctx context.Context, material string) (*personaFields, error) {
	raw, err := retry.DoWithResult(ctx, retry.LLMConfig(), func() (json.RawMessage, error) {
		return s.messager.CreateToolMessage(ctx,
			prompts.PersonaExtractionSystem, material, 2048, personaTool)
	})
	if err != nil {
		return nil, err
	}

	var fields personaFields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("parse tool output: %w", err)
	}
	return &fields, nil
}

// mergeInto overlays non-empty distilled fields onto the stored persona. An
// existing field is only replaced when the new material actually produced a
// value for it, so a thin interview never wipes a rich persona.
func (s *personaService) mergeInto(ctx context.Context, userID uuid.UUID, fields *personaFields) *models.Persona {
	persona, err := s.personaRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Warn("loading persona for merge failed, starting fresh",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
		persona = &models.Persona{UserID: userID}
	}

	overlay(&persona.Introduction, fields.Introduction)
	overlay(&persona.Uniqueness, fields.Uniqueness)
	overlay(&persona.Audience, fields.Audience)
	overlay(&persona.ValueProposition, fields.ValueProposition)
	overlay(&persona.Style, fields.Style)
	overlay(&persona.Goals, fields.Goals)

	return persona
}

func overlay(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}
