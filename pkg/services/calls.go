package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/tasks"
	"github.com/resonant-ai/resonant-engine/pkg/voice"
)

// Call types select which of the user's agents answers.
const (
	CallTypeContent    = "content"
	CallTypeOnboarding = "onboarding"
)

// CallService orchestrates voice calls end to end: creating web calls against
// the user's agents and turning finished call transcripts into content or
// persona updates.
type CallService interface {
	// CreateWebCall provisions the user's agents if needed and starts a
	// browser call against the agent for the given call type.
	CreateWebCall(ctx context.Context, userID uuid.UUID, callType string) (*voice.WebCall, error)

	// ProcessCall turns a finished content call into a post draft. The
	// free-tier gate applies before any generation work. Knowledge extraction
	// and prompt resync run in the background after the draft is persisted.
	ProcessCall(ctx context.Context, userID uuid.UUID, callID string) (*models.ContentItem, error)

	// ProcessOnboardingCall distills persona fields from a finished
	// onboarding interview and resyncs agent prompts in the background.
	ProcessOnboardingCall(ctx context.Context, userID uuid.UUID, callID string) (*models.Persona, error)
}

type callService struct {
	platform      voice.Platform
	agents        AgentService
	knowledge     KnowledgeService
	content       ContentService
	personas      PersonaService
	subscriptions SubscriptionService
	runner        *tasks.Runner
	logger        *zap.Logger
}

// NewCallService creates a new call service with dependencies.
func NewCallService(
	platform voice.Platform,
	agents AgentService,
	knowledge KnowledgeService,
	content ContentService,
	personas PersonaService,
	subscriptions SubscriptionService,
	runner *tasks.Runner,
	logger *zap.Logger,
) CallService {
	return &callService{
		platform:      platform,
		agents:        agents,
		knowledge:     knowledge,
		content:       content,
		personas:      personas,
		subscriptions: subscriptions,
		runner:        runner,
		logger:        logger,
	}
}

var _ CallService = (*callService)(nil)

func (s *callService) CreateWebCall(ctx context.Context, userID uuid.UUID, callType string) (*voice.WebCall, error) {
	binding, err := s.agents.EnsureProvisioned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to provision agents: %w", err)
	}

	var agentID string
	switch callType {
	case CallTypeContent:
		agentID = binding.AgentID
	case CallTypeOnboarding:
		agentID = binding.OnboardingAgentID
	default:
		return nil, fmt.Errorf("unknown call type %q", callType)
	}

	call, err := s.platform.CreateWebCall(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to create web call: %w", err)
	}

	s.logger.Info("web call created",
		zap.String("user_id", userID.String()),
		zap.String("call_type", callType),
		zap.String("call_id", call.CallID))
	return call, nil
}

func (s *callService) ProcessCall(ctx context.Context, userID uuid.UUID, callID string) (*models.ContentItem, error) {
	transcript, err := s.fetchTranscript(ctx, callID)
	if err != nil {
		return nil, err
	}

	// The gate comes before any LLM work so a blocked user costs nothing.
	allowed, err := s.subscriptions.CanGenerate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.ErrFreeLimitReached
	}

	// Memory retrieval failing should not block the draft; generate without
	// context instead.
	memories, err := s.knowledge.MatchEntries(ctx, transcript, userID, DefaultMatchCount, DefaultMatchThreshold)
	if err != nil {
		s.logger.Warn("memory retrieval failed, generating without context",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		memories = nil
	}

	draft, err := s.content.GenerateDraft(ctx, transcript, memories)
	if err != nil {
		return nil, err
	}

	item, err := s.content.CreateFromDraft(ctx, userID, draft, models.ContentTypePost)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.RecordGeneration(ctx, userID); err != nil {
		// The draft exists; a missed count is logged, not surfaced.
		s.logger.Error("failed to record generation",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	s.runner.Submit("knowledge-extraction", func(ctx context.Context) error {
		return s.extractAndResync(ctx, userID, transcript)
	})

	return item, nil
}

func (s *callService) ProcessOnboardingCall(ctx context.Context, userID uuid.UUID, callID string) (*models.Persona, error) {
	transcript, err := s.fetchTranscript(ctx, callID)
	if err != nil {
		return nil, err
	}

	persona, err := s.personas.ExtractFromInterview(ctx, userID, transcript)
	if err != nil {
		return nil, err
	}

	s.runner.Submit("prompt-resync", func(ctx context.Context) error {
		return s.agents.SyncPrompts(ctx, userID)
	})

	return persona, nil
}

func (s *callService) fetchTranscript(ctx context.Context, callID string) (string, error) {
	call, err := s.platform.GetCall(ctx, callID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch call %s: %w", callID, err)
	}
	if strings.TrimSpace(call.Transcript) == "" {
		return "", apperrors.ErrEmptyTranscript
	}
	return call.Transcript, nil
}

// extractAndResync is the background half of content call processing: mine
// the transcript for knowledge, store it, and push refreshed prompts.
func (s *callService) extractAndResync(ctx context.Context, userID uuid.UUID, transcript string) error {
	points, err := s.knowledge.ExtractFromTranscript(ctx, transcript)
	if err != nil {
		return fmt.Errorf("knowledge extraction: %w", err)
	}
	if len(points) > 0 {
		if _, err := s.knowledge.StorePoints(ctx, userID, points); err != nil {
			return fmt.Errorf("storing knowledge: %w", err)
		}
	}
	return s.agents.SyncPrompts(ctx, userID)
}
