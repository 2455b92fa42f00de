// Package tokens issues and verifies the HMAC-signed bearer tokens used for
// API authentication. Tokens carry only the account id, the token type and
// the issue/expiry instants; they are never persisted and cannot be revoked.
package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned when the token's expiry instant has passed
	ErrExpired = errors.New("token expired")

	// ErrMalformed is returned when the token cannot be decoded or lacks required claims
	ErrMalformed = errors.New("malformed token")

	// ErrInvalidSignature is returned when the signature or algorithm does not match
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrUnsupportedDuration is returned for lifetime expressions outside <n>h, <n>d, <n>m
	ErrUnsupportedDuration = errors.New("unsupported duration expression")

	// ErrMissingSecret is returned when the issuer is built without a signing secret
	ErrMissingSecret = errors.New("signing secret is required")
)

// Type distinguishes access tokens from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

func (t Type) valid() bool {
	return t == TypeAccess || t == TypeRefresh
}

// Claims is the token payload: {sub, type, iat, exp}.
type Claims struct {
	Type Type `json:"type"`
	jwt.RegisteredClaims
}

// Pair is an access token together with its refresh token.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// Config holds issuer settings. TTLs are duration expressions understood by
// ParseDuration.
type Config struct {
	Secret     string
	AccessTTL  string
	RefreshTTL string
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for iat, exp and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// Issuer signs and verifies tokens with a single HS256 secret. It holds no
// mutable state and is safe for concurrent use.
type Issuer struct {
	secret     []byte
	accessTTL  string
	refreshTTL string
	now        func() time.Time
}

// NewIssuer validates cfg and returns an Issuer.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if _, err := ParseDuration(cfg.AccessTTL); err != nil {
		return nil, fmt.Errorf("access ttl: %w", err)
	}
	if _, err := ParseDuration(cfg.RefreshTTL); err != nil {
		return nil, fmt.Errorf("refresh ttl: %w", err)
	}

	i := &Issuer{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token of the given type for subject that expires ttl after now.
func (i *Issuer) Issue(subject, ttl string, typ Type) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: empty subject", ErrMalformed)
	}
	if !typ.valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrMalformed, typ)
	}

	lifetime, err := ParseDuration(ttl)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// IssueAccess signs an access token with the configured access lifetime.
func (i *Issuer) IssueAccess(subject string) (string, error) {
	return i.Issue(subject, i.accessTTL, TypeAccess)
}

// IssuePair signs an access token and a refresh token for subject.
func (i *Issuer) IssuePair(subject string) (*Pair, error) {
	access, err := i.Issue(subject, i.accessTTL, TypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := i.Issue(subject, i.refreshTTL, TypeRefresh)
	if err != nil {
		return nil, err
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// The caller decides which token type it accepts.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrMalformed)
	}
	if !claims.Type.valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, claims.Type)
	}
	return claims, nil
}

// classify maps jwt parser errors onto the package's error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
