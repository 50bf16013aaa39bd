package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/montecristo/sales-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestTokenManager(t)
	mw := NewMiddleware(m, zap.NewNop())
	user := testUser()
	token, _, err := m.Issue(user)
	require.NoError(t, err)

	var captured *UserContext
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captured = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				require.NotNil(t, captured)
				assert.Equal(t, user.ID, captured.UserID)
			} else {
				assert.Nil(t, captured)
				assertProblem(t, w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized)
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw := NewMiddleware(newTestTokenManager(t), zap.NewNop())
	handler := mw.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("admin allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/x", nil)
		req = req.WithContext(WithUserContext(req.Context(), &UserContext{Role: domain.RoleAdmin}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("vendedor forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/x", nil)
		req = req.WithContext(WithUserContext(req.Context(), &UserContext{Role: domain.RoleVendedor}))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assertProblem(t, w, http.StatusForbidden, domain.ErrorTypeForbidden)
	})

	t.Run("anonymous forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/x", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func assertProblem(t *testing.T, w *httptest.ResponseRecorder, status int, errType string) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body domain.APIError
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, status, body.Status)
	assert.Equal(t, errType, body.Type)
	assert.NotEmpty(t, body.Detail)
}
