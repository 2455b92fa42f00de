package auth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gradconnect/backend/handlers"
	"github.com/gradconnect/backend/services/federation"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// Federator runs the provider handshake behind the login and callback routes.
type Federator interface {
	Start(provider, role string) (string, error)
	Complete(ctx context.Context, provider, code, state string) (*federation.Result, error)
}

// Handler handles OAuth2 login flows against external identity providers.
type Handler struct {
	federation Federator
	logger     *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(f Federator, logger *zap.Logger) *Handler {
	return &Handler{
		federation: f,
		logger:     logger,
	}
}

// HandleLogin redirects to the provider's authorization page. The requested
// role travels as the OAuth state.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	authURL, err := h.federation.Start(provider, r.URL.Query().Get("role"))
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// HandleCallback completes the handshake and redirects to the frontend with
// the issued tokens.
func (h *Handler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Info("provider denied authorization",
			zap.String("provider", provider),
			zap.String("error", providerErr),
			zap.String("error_description", query.Get("error_description")))
		_ = utils.WriteBadRequest(w, "Authorization was not granted", nil)
		return
	}

	code := query.Get("code")
	if code == "" {
		_ = utils.WriteBadRequest(w, "Missing authorization code", nil)
		return
	}

	result, err := h.federation.Complete(r.Context(), provider, code, query.Get("state"))
	if err != nil {
		handlers.HandleServiceError(w, err, h.logger)
		return
	}

	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}
