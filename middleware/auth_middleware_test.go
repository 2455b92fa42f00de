package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRoleResolver is a mock implementation of RoleResolver
type MockRoleResolver struct {
	mock.Mock
}

func (m *MockRoleResolver) Role(ctx context.Context, id uuid.UUID) (models.UserRole, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.UserRole), args.Error(1)
}

func newIssuer(t *testing.T, opts ...tokens.Option) *tokens.Issuer {
	t.Helper()
	issuer, err := tokens.NewIssuer(tokens.Config{Secret: "test-secret", AccessTTL: "30m", RefreshTTL: "7d"}, opts...)
	require.NoError(t, err)
	return issuer
}

func okHandler(t *testing.T, wantID uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetAccountIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, wantID, id)

		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	issuer := newIssuer(t)
	m := NewAuthMiddleware(issuer, new(MockRoleResolver), zap.NewNop())
	accountID := uuid.New()

	access, err := issuer.IssueAccess(accountID.String())
	require.NoError(t, err)
	pair, err := issuer.IssuePair(accountID.String())
	require.NoError(t, err)

	t.Run("valid access token is admitted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, accountID)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "bearer "+access)
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, accountID)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	rejected := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"non-bearer scheme", "Basic dXNlcjpwYXNz"},
		{"scheme without token", "Bearer"},
		{"empty token", "Bearer    "},
		{"garbage token", "Bearer not.a.jwt"},
		{"refresh token", "Bearer " + pair.RefreshToken},
	}

	for _, tt := range rejected {
		t.Run(tt.name+" is rejected", func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			m.RequireAuth(next).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
			assert.False(t, called)
		})
	}

	t.Run("token from another secret is rejected", func(t *testing.T) {
		other, err := tokens.NewIssuer(tokens.Config{Secret: "other-secret", AccessTTL: "30m", RefreshTTL: "7d"})
		require.NoError(t, err)
		foreign, err := other.IssueAccess(accountID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+foreign)
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, accountID)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		past := newIssuer(t, tokens.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }))
		stale, err := past.IssueAccess(accountID.String())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+stale)
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, accountID)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrTokenExpired.Message)
	})

	t.Run("subject that is not an account id is rejected", func(t *testing.T) {
		odd, err := issuer.IssueAccess("linkedin-subject")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+odd)
		w := httptest.NewRecorder()

		m.RequireAuth(okHandler(t, accountID)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	accountID := uuid.New()

	serve := func(roles *MockRoleResolver, withAccount bool, allowed ...models.UserRole) (*httptest.ResponseRecorder, bool) {
		m := NewAuthMiddleware(newIssuer(t), roles, zap.NewNop())
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
		if withAccount {
			req = req.WithContext(WithAccountID(req.Context(), accountID))
		}
		w := httptest.NewRecorder()
		m.RequireRole(allowed...)(next).ServeHTTP(w, req)
		return w, called
	}

	t.Run("matching role passes", func(t *testing.T) {
		roles := new(MockRoleResolver)
		roles.On("Role", mock.Anything, accountID).Return(models.RoleAdmin, nil)

		w, called := serve(roles, true, models.RoleAdmin)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, called)
		roles.AssertExpectations(t)
	})

	t.Run("any of several roles passes", func(t *testing.T) {
		roles := new(MockRoleResolver)
		roles.On("Role", mock.Anything, accountID).Return(models.RoleRecruiter, nil)

		w, _ := serve(roles, true, models.RoleAdmin, models.RoleRecruiter)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("other role is forbidden", func(t *testing.T) {
		roles := new(MockRoleResolver)
		roles.On("Role", mock.Anything, accountID).Return(models.RoleStudent, nil)

		w, called := serve(roles, true, models.RoleAdmin)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrInsufficientRole.Message)
		assert.False(t, called)
	})

	t.Run("vanished account is unauthorized", func(t *testing.T) {
		roles := new(MockRoleResolver)
		roles.On("Role", mock.Anything, accountID).Return(models.UserRole(""), services.ErrUserNotFound)

		w, _ := serve(roles, true, models.RoleAdmin)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("lookup failure is internal", func(t *testing.T) {
		roles := new(MockRoleResolver)
		roles.On("Role", mock.Anything, accountID).Return(models.UserRole(""), services.WrapInternal("db", errors.New("down")))

		w, _ := serve(roles, true, models.RoleAdmin)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "down")
	})

	t.Run("without RequireAuth is unauthorized", func(t *testing.T) {
		w, _ := serve(new(MockRoleResolver), false, models.RoleAdmin)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"BEARER abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Token abc", ""},
		{"abc", ""},
		{"", ""},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, extractBearerToken(req), tt.header)
	}
}
