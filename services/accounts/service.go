// Package accounts implements password registration, login, token refresh
// and account lookup.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gradconnect/backend/internal/observability"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/audit"
	"github.com/gradconnect/backend/services/credentials"
	"github.com/gradconnect/backend/services/tokens"
	"go.uber.org/zap"
)

// TokenTypeBearer is the token_type reported to clients.
const TokenTypeBearer = "bearer"

// PasswordHasher hashes and verifies password credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, credential string) bool
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	IssueAccess(subject string) (string, error)
	IssuePair(subject string) (*tokens.Pair, error)
	Verify(token string) (*tokens.Claims, error)
}

// RegisterInput is a registration request. An empty Role selects the default role.
type RegisterInput struct {
	Email    string
	Password string
	Role     string
}

// RegisterResult carries the created account and its access token.
type RegisterResult struct {
	User        *models.User
	AccessToken string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Role         models.UserRole
}

// RefreshResult is returned by a successful refresh.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}

// Service handles account operations
type Service struct {
	users   repositories.UserRepository
	hasher  PasswordHasher
	issuer  TokenIssuer
	audit   audit.Recorder
	metrics observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a new account service
func NewService(
	users repositories.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	recorder audit.Recorder,
	metrics observability.Metrics,
	logger *zap.Logger,
) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if metrics == nil {
		metrics = observability.Nop{}
	}
	return &Service{
		users:   users,
		hasher:  hasher,
		issuer:  issuer,
		audit:   recorder,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a password account and returns an access token for it.
// A concurrent registration of the same email surfaces as a conflict.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	role, err := ResolveRole(in.Role)
	if err != nil {
		s.metrics.RecordAuthAttempt("register", observability.OutcomeRejected)
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordAuthAttempt("register", observability.OutcomeRejected)
		if errors.Is(err, credentials.ErrEmptyPassword) || errors.Is(err, credentials.ErrPasswordTooLong) {
			return nil, services.ErrInvalidInput.WithDetail("password", err.Error())
		}
		return nil, services.WrapInternal("failed to hash password", err)
	}

	user := models.NewUser(in.Email, hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.metrics.RecordAuthAttempt("register", observability.OutcomeRejected)
			return nil, services.ErrEmailAlreadyRegistered
		}
		s.metrics.RecordAuthAttempt("register", observability.OutcomeFailure)
		return nil, services.WrapInternal("failed to create account", err)
	}

	access, err := s.issuer.IssueAccess(user.ID.String())
	if err != nil {
		return nil, services.WrapInternal("failed to issue token", err)
	}

	s.metrics.RecordAuthAttempt("register", observability.OutcomeSuccess)
	s.metrics.RecordTokenIssued(string(tokens.TypeAccess))
	s.audit.Record(ctx, audit.AccountRegistered(user))
	s.logger.Info("account registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()))

	return &RegisterResult{User: user, AccessToken: access}, nil
}

// Login verifies a password and issues an access/refresh pair. Unknown
// emails, wrong passwords, externally authenticated accounts and inactive
// accounts are all reported as invalid credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.loginFailed(ctx, nil, "unknown_email")
			return nil, services.ErrInvalidCredentials
		}
		s.metrics.RecordAuthAttempt("login", observability.OutcomeFailure)
		return nil, services.WrapInternal("failed to load account", err)
	}

	if user.HasExternalCredential() {
		s.loginFailed(ctx, &user.ID, "external_account")
		return nil, services.ErrInvalidCredentials
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, &user.ID, "bad_password")
		return nil, services.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.loginFailed(ctx, &user.ID, "inactive")
		return nil, services.ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(user.ID.String())
	if err != nil {
		return nil, services.WrapInternal("failed to issue tokens", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	s.metrics.RecordAuthAttempt("login", observability.OutcomeSuccess)
	s.metrics.RecordTokenIssued(string(tokens.TypeAccess))
	s.metrics.RecordTokenIssued(string(tokens.TypeRefresh))
	s.audit.Record(ctx, audit.LoginSucceeded(user))

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    TokenTypeBearer,
		Role:         user.Role,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, userID *uuid.UUID, reason string) {
	s.metrics.RecordAuthAttempt("login", observability.OutcomeRejected)
	s.audit.Record(ctx, audit.LoginFailed(userID, reason))
}

// Refresh exchanges a refresh token for a new access/refresh pair. An access
// token is rejected as the wrong type; an unverifiable token, or one whose
// account no longer exists or is inactive, is unauthorized.
func (s *Service) Refresh(ctx context.Context, token string) (*RefreshResult, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		s.metrics.RecordAuthAttempt("refresh", observability.OutcomeRejected)
		return nil, TokenError(err)
	}
	if claims.Type != tokens.TypeRefresh {
		s.metrics.RecordAuthAttempt("refresh", observability.OutcomeRejected)
		return nil, services.ErrInvalidTokenType
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.metrics.RecordAuthAttempt("refresh", observability.OutcomeRejected)
		return nil, services.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.metrics.RecordAuthAttempt("refresh", observability.OutcomeRejected)
			return nil, services.ErrInvalidToken
		}
		return nil, services.WrapInternal("failed to load account", err)
	}
	if !user.IsActive {
		s.metrics.RecordAuthAttempt("refresh", observability.OutcomeRejected)
		return nil, services.ErrInvalidToken
	}

	pair, err := s.issuer.IssuePair(claims.Subject)
	if err != nil {
		return nil, services.WrapInternal("failed to issue tokens", err)
	}

	s.metrics.RecordAuthAttempt("refresh", observability.OutcomeSuccess)
	s.metrics.RecordTokenIssued(string(tokens.TypeAccess))
	s.metrics.RecordTokenIssued(string(tokens.TypeRefresh))
	s.audit.Record(ctx, audit.TokenRefreshed(userID))

	return &RefreshResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    TokenTypeBearer,
	}, nil
}

// Me returns the account identified by id
func (s *Service) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrUserNotFound
		}
		return nil, services.WrapInternal("failed to load account", err)
	}
	return user, nil
}

// Role returns the role of the account identified by id
func (s *Service) Role(ctx context.Context, id uuid.UUID) (models.UserRole, error) {
	user, err := s.Me(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

// List returns accounts ordered by creation time
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, services.WrapInternal("failed to list accounts", err)
	}
	return users, nil
}

// TokenError maps a verification failure to its domain error.
func TokenError(err error) error {
	if errors.Is(err, tokens.ErrExpired) {
		return services.ErrTokenExpired.Wrap(err)
	}
	return services.ErrInvalidToken.Wrap(err)
}

// ResolveRole validates a role chosen by the caller. Empty selects the
// default role; admin can never be self-assigned.
func ResolveRole(raw string) (models.UserRole, error) {
	if strings.TrimSpace(raw) == "" {
		return models.DefaultRole, nil
	}
	role, err := models.ParseRole(raw)
	if err != nil {
		return "", services.ErrUnsupportedRole.WithDetail("role", raw)
	}
	if !role.SelfAssignable() {
		return "", services.ErrRoleNotSelfAssignable.WithDetail("role", raw)
	}
	return role, nil
}
