package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/resonant-ai/resonant-engine/pkg/apperrors"
	"github.com/resonant-ai/resonant-engine/pkg/auth"
	"github.com/resonant-ai/resonant-engine/pkg/models"
	"github.com/resonant-ai/resonant-engine/pkg/services"
)

// mockContentService implements services.ContentService for handler tests.
// Each test sets the fields for the calls it expects.
type mockContentService struct {
	Items        []*models.ContentItem
	Item         *models.ContentItem
	Err          error
	NewText      string
	ApplyCalls   int
	LastPlatform string
	LastStart    int
	LastEnd      int
}

func (m *mockContentService) GenerateDraft(ctx context.Context, transcript string, memories []*models.MemoryMatch) (*services.Draft, error) {
	return nil, m.Err
}

func (m *mockContentService) CreateFromDraft(ctx context.Context, userID uuid.UUID, draft *services.Draft, contentType string) (*models.ContentItem, error) {
	return m.Item, m.Err
}

func (m *mockContentService) RegenerateWhole(ctx context.Context, userID, id uuid.UUID, instructions string) (*models.ContentItem, error) {
	return m.Item, m.Err
}

func (m *mockContentService) RegenerateSelection(ctx context.Context, selected, full, instructions, platform string) (string, error) {
	return m.NewText, m.Err
}

func (m *mockContentService) ApplySelection(ctx context.Context, userID, id uuid.UUID, platform string, start, end int, replacement string) (*models.ContentItem, error) {
	m.ApplyCalls++
	m.LastPlatform, m.LastStart, m.LastEnd = platform, start, end
	return m.Item, m.Err
}

func (m *mockContentService) UpdateVariant(ctx context.Context, userID, id uuid.UUID, platform, text string) (*models.ContentItem, error) {
	return m.Item, m.Err
}

func (m *mockContentService) MarkPublished(ctx context.Context, userID, id uuid.UUID) error {
	return m.Err
}

func (m *mockContentService) List(ctx context.Context, userID uuid.UUID) ([]*models.ContentItem, error) {
	return m.Items, m.Err
}

func (m *mockContentService) Get(ctx context.Context, userID, id uuid.UUID) (*models.ContentItem, error) {
	return m.Item, m.Err
}

func (m *mockContentService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Err
}

var _ services.ContentService = (*mockContentService)(nil)

// contentMux routes requests through real ServeMux patterns so path values
// resolve the way they do in production.
func contentMux(svc services.ContentService) *http.ServeMux {
	h := NewContentHandler(svc, zap.NewNop())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/content", h.List)
	mux.HandleFunc("GET /api/content/{id}", h.Get)
	mux.HandleFunc("PUT /api/content/{id}", h.Update)
	mux.HandleFunc("DELETE /api/content/{id}", h.Delete)
	mux.HandleFunc("POST /api/content/{id}/regenerate", h.Regenerate)
	mux.HandleFunc("POST /api/content/{id}/regenerate-selection", h.RegenerateSelection)
	mux.HandleFunc("POST /api/content/{id}/apply-selection", h.ApplySelection)
	return mux
}

func authedRequest(t *testing.T, method, target, body string, userID uuid.UUID) *http.Request {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	return req.WithContext(context.WithValue(req.Context(), auth.ClaimsKey, claims))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) ApiResponse {
	t.Helper()
	var resp ApiResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestContentList(t *testing.T) {
	userID := uuid.New()
	svc := &mockContentService{Items: []*models.ContentItem{
		{ID: uuid.New(), UserID: userID, Title: "First"},
		{ID: uuid.New(), UserID: userID, Title: "Second"},
	}}
	mux := contentMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/content", "", userID))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeEnvelope(t, w)
	assert.True(t, resp.Success)
}

func TestContentListUnauthenticated(t *testing.T) {
	mux := contentMux(&mockContentService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/content", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContentGetInvalidID(t *testing.T) {
	mux := contentMux(&mockContentService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/content/not-a-uuid", "", uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentGetNotFound(t *testing.T) {
	mux := contentMux(&mockContentService{Err: apperrors.ErrNotFound})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(t, http.MethodGet, "/api/content/"+uuid.NewString(), "", uuid.New()))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestContentRegenerate(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	t.Run("missing instructions", func(t *testing.T) {
		mux := contentMux(&mockContentService{})

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/regenerate",
			`{"instructions": "  "}`, userID))

		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeEnvelope(t, w)
		assert.False(t, resp.Success)
	})

	t.Run("returns the updated item", func(t *testing.T) {
		svc := &mockContentService{Item: &models.ContentItem{ID: itemID, XDescription: "fresh x"}}
		mux := contentMux(svc)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/regenerate",
			`{"instructions": "make it punchy"}`, userID))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeEnvelope(t, w)
		assert.True(t, resp.Success)
	})
}

func TestContentRegenerateSelection(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	t.Run("missing instructions", func(t *testing.T) {
		mux := contentMux(&mockContentService{})

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/regenerate-selection",
			`{"selected_text": "part", "full_text": "whole part", "instructions": "", "platform": "x"}`, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns the proposal", func(t *testing.T) {
		svc := &mockContentService{NewText: "the rewritten span"}
		mux := contentMux(svc)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/regenerate-selection",
			`{"selected_text": "part", "full_text": "whole part", "instructions": "tighten", "platform": "x"}`, userID))

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data RegenerateSelectionResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "the rewritten span", resp.Data.NewText)
	})
}

func TestContentApplySelection(t *testing.T) {
	userID := uuid.New()
	itemID := uuid.New()

	t.Run("passes the range through", func(t *testing.T) {
		svc := &mockContentService{Item: &models.ContentItem{ID: itemID}}
		mux := contentMux(svc)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/apply-selection",
			`{"platform": "x", "start": 6, "end": 11, "replacement": "planet"}`, userID))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, svc.ApplyCalls)
		assert.Equal(t, "x", svc.LastPlatform)
		assert.Equal(t, 6, svc.LastStart)
		assert.Equal(t, 11, svc.LastEnd)
	})

	t.Run("over-limit splice maps to 400", func(t *testing.T) {
		mux := contentMux(&mockContentService{Err: apperrors.ErrPlatformLimit})

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/apply-selection",
			`{"platform": "x", "start": 0, "end": 5, "replacement": "way too long"}`, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("out-of-range splice maps to 400", func(t *testing.T) {
		mux := contentMux(&mockContentService{Err: apperrors.ErrInvalidRange})

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, authedRequest(t, http.MethodPost,
			"/api/content/"+itemID.String()+"/apply-selection",
			`{"platform": "x", "start": 0, "end": 999, "replacement": "r"}`, userID))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestContentUpdateInvalidPlatform(t *testing.T) {
	mux := contentMux(&mockContentService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, authedRequest(t, http.MethodPut,
		"/api/content/"+uuid.NewString(),
		`{"platform": "threads", "text": "hi"}`, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
