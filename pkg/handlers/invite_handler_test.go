package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInviteValidate(t *testing.T) {
	handler := NewInviteHandler("golden-ticket", zap.NewNop())

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/invite/validate", strings.NewReader(body))
		w := httptest.NewRecorder()
		handler.Validate(w, req)
		return w
	}

	t.Run("correct code", func(t *testing.T) {
		w := post(`{"code": "golden-ticket"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ValidateInviteResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Valid)
	})

	t.Run("wrong code", func(t *testing.T) {
		w := post(`{"code": "guess"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ValidateInviteResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Valid)
	})

	t.Run("empty code", func(t *testing.T) {
		w := post(`{"code": ""}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ValidateInviteResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Valid)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := post(`{"code": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no configured code rejects everything", func(t *testing.T) {
		open := NewInviteHandler("", zap.NewNop())
		req := httptest.NewRequest(http.MethodPost, "/api/invite/validate", strings.NewReader(`{"code": ""}`))
		w := httptest.NewRecorder()
		open.Validate(w, req)

		var resp ValidateInviteResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Valid)
	})
}
