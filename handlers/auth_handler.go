package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/middleware"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services/accounts"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// AccountService is the account behaviour the auth endpoints need
type AccountService interface {
	Register(ctx context.Context, in accounts.RegisterInput) (*accounts.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*accounts.LoginResult, error)
	Refresh(ctx context.Context, token string) (*accounts.RefreshResult, error)
	Me(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role,omitempty"`
}

// RegisterResponse carries the access token of the new account
type RegisterResponse struct {
	AccessToken string `json:"access_token"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	TokenType    string          `json:"token_type"`
	Role         models.UserRole `json:"role"`
}

// RefreshResponse is returned by a successful refresh
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// MeResponse describes the authenticated account
type MeResponse struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	Role          models.UserRole `json:"role"`
	IsActive      bool            `json:"is_active"`
	EmailVerified bool            `json:"email_verified"`
	CreatedAt     time.Time       `json:"created_at"`
	LastLoginAt   *time.Time      `json:"last_login_at,omitempty"`
}

func newMeResponse(u *models.User) MeResponse {
	return MeResponse{
		ID:            u.ID,
		Email:         u.Email,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

// AuthHandler handles password authentication endpoints
type AuthHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(svc AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: svc,
		logger:   logger,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.accounts.Register(r.Context(), accounts.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, RegisterResponse{AccessToken: result.AccessToken})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
		Role:         result.Role,
	})
}

// HandleRefresh handles POST /api/auth/refresh?token=<refresh_token>
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		_ = utils.WriteBadRequest(w, "Missing token parameter", nil)
		return
	}

	result, err := h.accounts.Refresh(r.Context(), token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, RefreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    result.TokenType,
	})
}

// HandleMe handles GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	user, err := h.accounts.Me(r.Context(), accountID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteSuccess(w, newMeResponse(user))
}

// HandleLogout handles POST /api/auth/logout. Tokens are stateless and
// stay valid until they expire; the client discards them.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMessage(w, "Logged out")
}
