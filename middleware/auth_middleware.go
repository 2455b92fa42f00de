package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/tokens"
	"github.com/gradconnect/backend/utils"
	"go.uber.org/zap"
)

// TokenVerifier verifies bearer tokens
type TokenVerifier interface {
	Verify(token string) (*tokens.Claims, error)
}

// RoleResolver looks up the current role of an account
type RoleResolver interface {
	Role(ctx context.Context, id uuid.UUID) (models.UserRole, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	verifier TokenVerifier
	roles    RoleResolver
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, roles RoleResolver, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		roles:    roles,
		logger:   logger,
	}
}

// RequireAuth admits requests carrying a valid access token in the
// Authorization header and puts the account id and claims in the context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimw.GetReqID(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Debug("missing bearer token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, services.ErrUnauthorized.Message)
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("token verification failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			if errors.Is(err, tokens.ErrExpired) {
				_ = utils.WriteUnauthorized(w, services.ErrTokenExpired.Message)
				return
			}
			_ = utils.WriteUnauthorized(w, services.ErrInvalidToken.Message)
			return
		}

		if claims.Type != tokens.TypeAccess {
			m.logger.Debug("non-access token presented",
				zap.String("request_id", requestID),
				zap.String("type", string(claims.Type)))
			_ = utils.WriteUnauthorized(w, services.ErrInvalidToken.Message)
			return
		}

		accountID, err := uuid.Parse(claims.Subject)
		if err != nil {
			m.logger.Warn("token subject is not an account id",
				zap.String("request_id", requestID),
				zap.String("sub", claims.Subject))
			_ = utils.WriteUnauthorized(w, services.ErrInvalidToken.Message)
			return
		}

		ctx = WithAccountID(ctx, accountID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole admits authenticated callers whose account currently holds one
// of roles. It must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := chimw.GetReqID(ctx)

			accountID, ok := GetAccountIDFromContext(ctx)
			if !ok {
				m.logger.Error("account id not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, services.ErrUnauthorized.Message)
				return
			}

			role, err := m.roles.Role(ctx, accountID)
			if err != nil {
				if services.IsNotFoundError(err) {
					_ = utils.WriteUnauthorized(w, services.ErrInvalidToken.Message)
					return
				}
				m.logger.Error("failed to resolve account role",
					zap.String("request_id", requestID),
					zap.Error(err))
				_ = utils.WriteInternalServerError(w, services.ErrInternal.Message)
				return
			}

			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			m.logger.Info("insufficient permissions",
				zap.String("request_id", requestID),
				zap.String("role", string(role)),
				zap.Any("required_roles", roles))
			_ = utils.WriteForbidden(w, services.ErrInsufficientRole.Message)
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
// The scheme is matched case-insensitively.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
