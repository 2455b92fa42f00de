package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// AccountLister lists accounts for administrators
type AccountLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// UserHandler handles account administration endpoints
type UserHandler struct {
	accounts AccountLister
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(svc AccountLister, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		accounts: svc,
		logger:   logger,
	}
}

// HandleList handles GET /api/users?limit=&offset=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		_ = utils.WriteBadRequest(w, "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		_ = utils.WriteBadRequest(w, "offset must be an integer", nil)
		return
	}

	users, err := h.accounts.List(r.Context(), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	out := make([]MeResponse, 0, len(users))
	for _, u := range users {
		out = append(out, newMeResponse(u))
	}
	_ = utils.WriteSuccess(w, out)
}

// queryInt parses an optional integer query parameter; absent means 0
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
