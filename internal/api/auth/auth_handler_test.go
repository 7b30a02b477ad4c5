package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-journeymate/internal/types"
)

func TestAuthHandler_GetSession(t *testing.T) {
	handler := NewAuthHandler(NewOracle(), slog.Default())

	t.Run("anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp sessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Authenticated)
		assert.Empty(t, resp.UserID)
	})

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/session", nil)
		req = req.WithContext(WithCurrentUser(req.Context(), &types.CurrentUser{ID: "u-1", Name: "Hana", Email: "hana@example.com", Token: "secret"}))
		rr := httptest.NewRecorder()
		handler.GetSession(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "secret")
		var resp sessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Authenticated)
		assert.Equal(t, "u-1", resp.UserID)
		assert.Equal(t, "hana@example.com", resp.Email)
	})
}
