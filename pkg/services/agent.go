package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/prompts"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
	"github.com/resonant-ai/resonant-engine/pkg/voice"
)

// AgentService manages the per-user voice agent resources: lazy provisioning
// of the content and onboarding agent/LLM pairs, and resynchronizing their
// prompts whenever persona or knowledge changes.
type AgentService interface {
	// EnsureProvisioned returns the user's agent binding, creating the
	// external agent/LLM pairs on first use.
	EnsureProvisioned(ctx context.Context, userID uuid.UUID) (*models.AgentBinding, error)

	// SyncPrompts recomposes the personalization string and re-pushes both
	// agent prompts. The push always happens, even if nothing changed.
	SyncPrompts(ctx context.Context, userID uuid.UUID) error
}

type agentService struct {
	agentRepo   repositories.AgentRepository
	personaRepo repositories.PersonaRepository
	userRepo    repositories.UserRepository
	knowledge   KnowledgeService
	platform    voice.Platform
	logger      *zap.Logger
}

// NewAgentService creates a new agent service with dependencies.
func NewAgentService(
	agentRepo repositories.AgentRepository,
	personaRepo repositories.PersonaRepository,
	userRepo repositories.UserRepository,
	knowledge KnowledgeService,
	platform voice.Platform,
	logger *zap.Logger,
) AgentService {
	return &agentService{
		agentRepo:   agentRepo,
		personaRepo: personaRepo,
		userRepo:    userRepo,
		knowledge:   knowledge,
		platform:    platform,
		logger:      logger,
	}
}

var _ AgentService = (*agentService)(nil)

func (s *agentService) EnsureProvisioned(ctx context.Context, userID uuid.UUID) (*models.AgentBinding, error) {
	binding, err := s.agentRepo.Get(ctx, userID)
	if err == nil {
		return binding, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	personalization, err := s.composePersonalization(ctx, userID)
	if err != nil {
		// Provision with the bare template; the next sync fills it in.
		s.logger.Warn("Provisioning agent without personalization",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		personalization = ""
	}

	contentLLM, err := s.platform.CreateLLM(ctx,
		prompts.ComposeAgentPrompt(prompts.ContentAgentBase, personalization))
	if err != nil {
		return nil, fmt.Errorf("provision content llm: %w", err)
	}
	contentAgent, err := s.platform.CreateAgent(ctx, contentLLM, "content-"+userID.String())
	if err != nil {
		return nil, fmt.Errorf("provision content agent: %w", err)
	}

	onboardingLLM, err := s.platform.CreateLLM(ctx,
		prompts.ComposeAgentPrompt(prompts.OnboardingAgentBase, personalization))
	if err != nil {
		return nil, fmt.Errorf("provision onboarding llm: %w", err)
	}
	onboardingAgent, err := s.platform.CreateAgent(ctx, onboardingLLM, "onboarding-"+userID.String())
	if err != nil {
		return nil, fmt.Errorf("provision onboarding agent: %w", err)
	}

	binding = &models.AgentBinding{
		UserID:            userID,
		AgentID:           contentAgent,
		LLMID:             contentLLM,
		OnboardingAgentID: onboardingAgent,
		OnboardingLLMID:   onboardingLLM,
	}
	if err := s.agentRepo.Insert(ctx, binding); err != nil {
		return nil, err
	}

	s.logger.Info("Provisioned voice agents", zap.String("user_id", userID.String()))
	return binding, nil
}

func (s *agentService) SyncPrompts(ctx context.Context, userID uuid.UUID) error {
	binding, err := s.agentRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Nothing provisioned yet; nothing to sync.
			return nil
		}
		return err
	}

	personalization, err := s.composePersonalization(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.platform.UpdateLLMPrompt(ctx, binding.LLMID,
		prompts.ComposeAgentPrompt(prompts.ContentAgentBase, personalization)); err != nil {
		return fmt.Errorf("sync content prompt: %w", err)
	}
	if err := s.platform.UpdateLLMPrompt(ctx, binding.OnboardingLLMID,
		prompts.ComposeAgentPrompt(prompts.OnboardingAgentBase, personalization)); err != nil {
		return fmt.Errorf("sync onboarding prompt: %w", err)
	}

	return nil
}

// composePersonalization gathers persona, knowledge summaries and the user's
// first name into the deterministic personalization suffix. A missing persona
// or empty knowledge base is fine; a missing user is not.
func (s *agentService) composePersonalization(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return "", err
	}

	persona, err := s.personaRepo.Get(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return "", err
	}

	summaries, err := s.knowledge.RecentSummaries(ctx, userID)
	if err != nil {
		return "", err
	}

	return prompts.ComposePersonalization(persona, summaries, user.FirstName()), nil
}
