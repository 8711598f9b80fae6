package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"

	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/repositories"
)

// Repository mocks. Unset function fields return zero values so a test only
// wires the calls it cares about.

type mockContentRepo struct {
	InsertFunc         func(ctx context.Context, item *models.ContentItem) error
	GetByUserFunc      func(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error)
	GetByIDFunc        func(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error)
	UpdateVariantsFunc func(ctx context.Context, userID, id uuid.UUID, xDescription, linkedinDescription string) error
	UpdateStatusFunc   func(ctx context.Context, userID, id uuid.UUID, status string) error
	DeleteFunc         func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockContentRepo) Insert(ctx context.Context, item *models.ContentItem) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, item)
	}
	return nil
}

func (m *mockContentRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error) {
	if m.GetByUserFunc != nil {
		return m.GetByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockContentRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockContentRepo) UpdateVariants(ctx context.Context, userID, id uuid.UUID, xDescription, linkedinDescription string) error {
	if m.UpdateVariantsFunc != nil {
		return m.UpdateVariantsFunc(ctx, userID, id, xDescription, linkedinDescription)
	}
	return nil
}

func (m *mockContentRepo) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, userID, id, status)
	}
	return nil
}

func (m *mockContentRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

type mockEntryRepo struct {
	InsertFunc          func(ctx context.Context, entry *models.KnowledgeEntry) error
	GetByUserFunc       func(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error)
	GetByIDFunc         func(ctx context.Context, userID, id uuid.UUID) (*models.KnowledgeEntry, error)
	UpdateFunc          func(ctx context.Context, entry *models.KnowledgeEntry) error
	DeleteFunc          func(ctx context.Context, userID, id uuid.UUID) error
	RecentSummariesFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
	MatchFunc           func(ctx context.Context, queryEmbedding []float32, userID uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error)
}

func (m *mockEntryRepo) Insert(ctx context.Context, entry *models.KnowledgeEntry) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, entry)
	}
	return nil
}

func (m *mockEntryRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error) {
	if m.GetByUserFunc != nil {
		return m.GetByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockEntryRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.KnowledgeEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, entry *models.KnowledgeEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, entry)
	}
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *mockEntryRepo) RecentSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	if m.RecentSummariesFunc != nil {
		return m.RecentSummariesFunc(ctx, userID, limit)
	}
	return nil, nil
}

func (m *mockEntryRepo) Match(ctx context.Context, queryEmbedding []float32, userID uuid.UUID, threshold float64, count int) ([]*models.MemoryMatch, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, queryEmbedding, userID, threshold, count)
	}
	return nil, nil
}

type mockPersonaRepo struct {
	UpsertFunc func(ctx context.Context, persona *models.Persona) error
	GetFunc    func(ctx context.Context, userID uuid.UUID) (*models.Persona, error)
}

func (m *mockPersonaRepo) Upsert(ctx context.Context, persona *models.Persona) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, persona)
	}
	return nil
}

func (m *mockPersonaRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, nil
}

type mockSubscriptionRepo struct {
	GetFunc                func(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	IncrementPostCountFunc func(ctx context.Context, userID uuid.UUID) error
	SetSubscribedFunc      func(ctx context.Context, userID uuid.UUID, customerID, subscriptionID string) error
	SetUnsubscribedFunc    func(ctx context.Context, userID uuid.UUID) error
	GetByCustomerIDFunc    func(ctx context.Context, customerID string) (*models.Subscription, error)
}

func (m *mockSubscriptionRepo) Get(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepo) IncrementPostCount(ctx context.Context, userID uuid.UUID) error {
	if m.IncrementPostCountFunc != nil {
		return m.IncrementPostCountFunc(ctx, userID)
	}
	return nil
}

func (m *mockSubscriptionRepo) SetSubscribed(ctx context.Context, userID uuid.UUID, customerID, subscriptionID string) error {
	if m.SetSubscribedFunc != nil {
		return m.SetSubscribedFunc(ctx, userID, customerID, subscriptionID)
	}
	return nil
}

func (m *mockSubscriptionRepo) SetUnsubscribed(ctx context.Context, userID uuid.UUID) error {
	if m.SetUnsubscribedFunc != nil {
		return m.SetUnsubscribedFunc(ctx, userID)
	}
	return nil
}

func (m *mockSubscriptionRepo) GetByCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	if m.GetByCustomerIDFunc != nil {
		return m.GetByCustomerIDFunc(ctx, customerID)
	}
	return nil, nil
}

// Service fakes used by the call-orchestration tests.

type fakeAgentService struct {
	Binding     *models.AgentBinding
	SyncErr     error
	SyncCalls   int
	EnsureCalls int
}

func (f *fakeAgentService) EnsureProvisioned(ctx context.Context, userID uuid.UUID) (*models.AgentBinding, error) {
	f.EnsureCalls++
	if f.Binding != nil {
		return f.Binding, nil
	}
	return &models.AgentBinding{UserID: userID, AgentID: "agent_c", OnboardingAgentID: "agent_o"}, nil
}

func (f *fakeAgentService) SyncPrompts(ctx context.Context, userID uuid.UUID) error {
	f.SyncCalls++
	return f.SyncErr
}

type fakeKnowledgeService struct {
	Matches    []*models.MemoryMatch
	MatchErr   error
	Points     []models.KnowledgePoint
	ExtractErr error
	StoreCalls int
}

func (f *fakeKnowledgeService) ExtractFromTranscript(ctx context.Context, transcript string) ([]models.KnowledgePoint, error) {
	return f.Points, f.ExtractErr
}

func (f *fakeKnowledgeService) StorePoints(ctx context.Context, userID uuid.UUID, points []models.KnowledgePoint) ([]*models.KnowledgeEntry, error) {
	f.StoreCalls++
	return nil, nil
}

func (f *fakeKnowledgeService) List(ctx context.Context, userID uuid.UUID) ([]*models.KnowledgeEntry, error) {
	return nil, nil
}

func (f *fakeKnowledgeService) Create(ctx context.Context, userID uuid.UUID, title, content string) (*models.KnowledgeEntry, error) {
	return nil, nil
}

func (f *fakeKnowledgeService) Update(ctx context.Context, userID, id uuid.UUID, title, content string) (*models.KnowledgeEntry, error) {
	return nil, nil
}

func (f *fakeKnowledgeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func (f *fakeKnowledgeService) MatchEntries(ctx context.Context, query string, userID uuid.UUID, k int, threshold float64) ([]*models.MemoryMatch, error) {
	return f.Matches, f.MatchErr
}

func (f *fakeKnowledgeService) RecentSummaries(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return nil, nil
}

type fakeContentService struct {
	Draft         *Draft
	GenerateErr   error
	Created       *models.ContentItem
	LastMemories  []*models.MemoryMatch
	GenerateCalls int
}

func (f *fakeContentService) GenerateDraft(ctx context.Context, transcript string, memories []*models.MemoryMatch) (*Draft, error) {
	f.GenerateCalls++
	f.LastMemories = memories
	if f.GenerateErr != nil {
		return nil, f.GenerateErr
	}
	if f.Draft != nil {
		return f.Draft, nil
	}
	return &Draft{Title: "t", Content: "c", LinkedIn: "li", Twitter: "tw"}, nil
}

func (f *fakeContentService) CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *Draft, contentType string) (*models.ContentItem, error) {
	if f.Created != nil {
		return f.Created, nil
	}
	return &models.ContentItem{ID: uuid.New(), UserID: userID, Title: draft.Title}, nil
}

func (f *fakeContentService) RegenerateWhole(ctx context.Context, userID, id uuid.UUID, instructions string) (*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeContentService) RegenerateSelection(ctx context.Context, selected, full, instructions, platform string) (string, error) {
	return "", nil
}

func (f *fakeContentService) ApplySelection(ctx context.Context, userID, id uuid.UUID, platform string, start, end int, replacement string) (*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeContentService) UpdateVariant(ctx context.Context, userID, id uuid.UUID, platform, text string) (*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeContentService) MarkPublished(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

func (f *fakeContentService) List(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeContentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error) {
	return nil, nil
}

func (f *fakeContentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return nil
}

type fakePersonaService struct {
	Persona      *models.Persona
	ExtractErr   error
	ExtractCalls int
}

func (f *fakePersonaService) Get(ctx context.Context, userID uuid.UUID) (*models.Persona, error) {
	return f.Persona, nil
}

func (f *fakePersonaService) Save(ctx context.Context, persona *models.Persona) (*models.Persona, error) {
	return persona, nil
}

func (f *fakePersonaService) ExtractFromInterview(ctx context.Context, userID uuid.UUID, transcript string) (*models.Persona, error) {
	f.ExtractCalls++
	if f.ExtractErr != nil {
		return nil, f.ExtractErr
	}
	if f.Persona != nil {
		return f.Persona, nil
	}
	return &models.Persona{UserID: userID}, nil
}

func (f *fakePersonaService) UpsertFromScrape(ctx context.Context, userID uuid.UUID, profile, posts json.RawMessage) (*models.Persona, error) {
	return f.Persona, nil
}

type fakeSubscriptionService struct {
	Allowed     bool
	CanErr      error
	RecordErr   error
	RecordCalls int
}

func (f *fakeSubscriptionService) Status(ctx context.Context, userID uuid.UUID) (*SubscriptionStatus, error) {
	return &SubscriptionStatus{}, nil
}

func (f *fakeSubscriptionService) CanGenerate(ctx context.Context, userID uuid.UUID) (bool, error) {
	return f.Allowed, f.CanErr
}

func (f *fakeSubscriptionService) RecordGeneration(ctx context.Context, userID uuid.UUID) error {
	f.RecordCalls++
	return f.RecordErr
}

func (f *fakeSubscriptionService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeSubscriptionService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	return "", nil
}

func (f *fakeSubscriptionService) ProcessWebhookEvent(ctx context.Context, event stripe.Event) error {
	return nil
}

var (
	_ repositories.ContentRepository      = (*mockContentRepo)(nil)
	_ repositories.EntryRepository        = (*mockEntryRepo)(nil)
	_ repositories.PersonaRepository      = (*mockPersonaRepo)(nil)
	_ repositories.SubscriptionRepository = (*mockSubscriptionRepo)(nil)

	_ AgentService        = (*fakeAgentService)(nil)
	_ KnowledgeService    = (*fakeKnowledgeService)(nil)
	_ ContentService      = (*fakeContentService)(nil)
	_ PersonaService      = (*fakePersonaService)(nil)
	_ SubscriptionService = (*fakeSubscriptionService)(nil)
)
