package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/federation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockFederator struct {
	mock.Mock
}

func (m *mockFederator) Start(provider, role string) (string, error) {
	args := m.Called(provider, role)
	return args.String(0), args.Error(1)
}

func (m *mockFederator) Complete(ctx context.Context, provider, code, state string) (*federation.Result, error) {
	args := m.Called(ctx, provider, code, state)
	if r := args.Get(0); r != nil {
		return r.(*federation.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(f Federator) http.Handler {
	h := NewHandler(f, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/auth/{provider}/login", h.HandleLogin)
	r.Get("/api/auth/{provider}/callback", h.HandleCallback)
	return r
}

func TestHandleLogin(t *testing.T) {
	t.Run("redirects to the provider", func(t *testing.T) {
		f := new(mockFederator)
		f.On("Start", "linkedin", "alumni").Return("https://idp.example.com/authorize?state=alumni", nil)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/linkedin/login?role=alumni", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "https://idp.example.com/authorize?state=alumni", rec.Header().Get("Location"))
	})

	t.Run("unknown provider", func(t *testing.T) {
		f := new(mockFederator)
		f.On("Start", "github", "").Return("", federation.ErrUnknownProvider)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/github/login", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("role that cannot be self-assigned", func(t *testing.T) {
		f := new(mockFederator)
		f.On("Start", "linkedin", "admin").Return("", services.ErrRoleNotSelfAssignable)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/linkedin/login?role=admin", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, rec.Header().Get("Location"))
	})
}

func TestHandleCallback(t *testing.T) {
	t.Run("redirects to the frontend with tokens", func(t *testing.T) {
		target := "http://localhost:3000/linkedin-auth-handler?access_token=a&refresh_token=r&role=alumni"
		f := new(mockFederator)
		f.On("Complete", mock.Anything, "linkedin", "the-code", "alumni").
			Return(&federation.Result{RedirectURL: target}, nil)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/linkedin/callback?code=the-code&state=alumni", nil))

		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, target, rec.Header().Get("Location"))
		f.AssertExpectations(t)
	})

	t.Run("missing code", func(t *testing.T) {
		f := new(mockFederator)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/linkedin/callback?state=alumni", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider denied authorization", func(t *testing.T) {
		f := new(mockFederator)

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/auth/linkedin/callback?error=user_cancelled_login&state=student", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		f.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("provider failure is a bad gateway without the cause", func(t *testing.T) {
		f := new(mockFederator)
		f.On("Complete", mock.Anything, "linkedin", "c", "").
			Return(nil, services.ErrFederationFailed.Wrap(errors.New(`token endpoint returned 401: {"error":"invalid_client"}`)))

		rec := httptest.NewRecorder()
		newRouter(f).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/linkedin/callback?code=c", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, rec.Body.String(), "identity provider request failed")
		assert.NotContains(t, rec.Body.String(), "invalid_client")
	})
}
