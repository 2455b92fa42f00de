package federation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gradconnect/backend/internal/observability"
	"github.com/gradconnect/backend/models"
	"github.com/gradconnect/backend/repositories"
	"github.com/gradconnect/backend/services"
	"github.com/gradconnect/backend/services/accounts"
	"github.com/gradconnect/backend/services/audit"
	"github.com/gradconnect/backend/services/tokens"
	"go.uber.org/zap"
)

// ErrUnknownProvider is returned for a provider name with no registered provider
var ErrUnknownProvider = services.NewDomainError(services.ErrorTypeNotFound, "identity provider not found", nil)

// TokenIssuer issues the access/refresh pair delivered after a handshake
type TokenIssuer interface {
	IssuePair(subject string) (*tokens.Pair, error)
}

// Config holds handshake settings
type Config struct {
	FrontendRedirectURL    string
	PlaceholderEmailDomain string
}

// Result is the outcome of a completed handshake
type Result struct {
	User        *models.User
	Created     bool
	Tokens      *tokens.Pair
	RedirectURL string
}

// Service drives the handshake. It keeps no state between Start and Complete;
// the requested role travels through the provider as the OAuth state.
type Service struct {
	registry *Registry
	users    repositories.UserRepository
	issuer   TokenIssuer
	cfg      Config
	audit    audit.Recorder
	metrics  observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a new federation service
func NewService(
	registry *Registry,
	users repositories.UserRepository,
	issuer TokenIssuer,
	cfg Config,
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
	if cfg.PlaceholderEmailDomain == "" {
		cfg.PlaceholderEmailDomain = "example.com"
	}
	return &Service{
		registry: registry,
		users:    users,
		issuer:   issuer,
		cfg:      cfg,
		audit:    recorder,
		metrics:  metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start returns the provider authorization URL for a caller requesting role.
func (s *Service) Start(providerName, role string) (string, error) {
	provider, ok := s.registry.Get(providerName)
	if !ok {
		return "", ErrUnknownProvider.WithDetail("provider", providerName)
	}

	resolved, err := accounts.ResolveRole(role)
	if err != nil {
		return "", err
	}

	return provider.AuthCodeURL(resolved.String()), nil
}

// Complete exchanges code for the caller's identity, resolves or creates the
// local account and issues its tokens. state is the role chosen at Start and
// only applies when the account is created.
func (s *Service) Complete(ctx context.Context, providerName, code, state string) (*Result, error) {
	provider, ok := s.registry.Get(providerName)
	if !ok {
		return nil, ErrUnknownProvider.WithDetail("provider", providerName)
	}
	if strings.TrimSpace(code) == "" {
		return nil, services.ErrInvalidInput.WithDetail("code", "authorization code is required")
	}

	role, err := accounts.ResolveRole(state)
	if err != nil {
		s.metrics.RecordFederation(providerName, observability.OutcomeRejected)
		return nil, err
	}

	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.RecordFederation(providerName, observability.OutcomeFailure)
		s.logger.Error("identity provider handshake failed",
			zap.String("provider", providerName),
			zap.Error(err))
		return nil, services.ErrFederationFailed.Wrap(err)
	}

	email := identity.Email
	if strings.TrimSpace(email) == "" {
		email = PlaceholderEmail(providerName, identity.Subject, s.cfg.PlaceholderEmailDomain)
	}

	user, created, err := s.resolveAccount(ctx, email, role)
	if err != nil {
		s.metrics.RecordFederation(providerName, observability.OutcomeFailure)
		return nil, err
	}
	if !user.IsActive {
		s.metrics.RecordFederation(providerName, observability.OutcomeRejected)
		return nil, services.ErrInvalidCredentials
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn("failed to record last login",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	pair, err := s.issuer.IssuePair(user.ID.String())
	if err != nil {
		return nil, services.WrapInternal("failed to issue tokens", err)
	}

	redirect, err := s.redirectURL(pair, user.Role)
	if err != nil {
		return nil, services.WrapInternal("invalid frontend redirect url", err)
	}

	s.metrics.RecordFederation(providerName, observability.OutcomeSuccess)
	s.metrics.RecordTokenIssued(string(tokens.TypeAccess))
	s.metrics.RecordTokenIssued(string(tokens.TypeRefresh))
	s.audit.Record(ctx, audit.OAuthLogin(user, providerName, created))
	s.logger.Info("federated login",
		zap.String("provider", providerName),
		zap.String("user_id", user.ID.String()),
		zap.Bool("created", created))

	return &Result{User: user, Created: created, Tokens: pair, RedirectURL: redirect}, nil
}

// resolveAccount finds the account for email or creates one. Losing a
// concurrent first-login race is retried once as a lookup.
func (s *Service) resolveAccount(ctx context.Context, email string, role models.UserRole) (*models.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, services.WrapInternal("failed to load account", err)
	}

	user = models.NewExternalUser(email, role)
	err = s.users.Create(ctx, user)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return nil, false, services.WrapInternal("failed to create account", err)
	}

	existing, err := s.users.GetByEmail(ctx, user.Email)
	if err != nil {
		return nil, false, services.WrapInternal("failed to load account after concurrent create", err)
	}
	return existing, false, nil
}

// redirectURL appends the tokens and role to the frontend URL. Bearer tokens
// in a query string can leak through history, referrers and access logs.
func (s *Service) redirectURL(pair *tokens.Pair, role models.UserRole) (string, error) {
	u, err := url.Parse(s.cfg.FrontendRedirectURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("access_token", pair.AccessToken)
	q.Set("refresh_token", pair.RefreshToken)
	q.Set("role", role.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// maxLocalPart is the RFC 5321 limit on the part of an address before the @.
const maxLocalPart = 64

// PlaceholderEmail derives a stable address for an identity without an email,
// so repeated logins by the same provider subject resolve to the same account.
// Subjects that would overflow the local part are replaced by a digest.
func PlaceholderEmail(provider, subject, domain string) string {
	local := fmt.Sprintf("%s_%s", provider, subject)
	if len(local) > maxLocalPart {
		sum := sha256.Sum256([]byte(subject))
		local = fmt.Sprintf("%s_%s", provider, hex.EncodeToString(sum[:16]))
	}
	return models.NormalizeEmail(local + "@" + domain)
}
