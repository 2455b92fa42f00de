// Package federation implements the OAuth authorization-code handshake that
// maps an external identity onto a local account.
package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/gradconnect/backend/config"
	"golang.org/x/oauth2"
)

// maxUserInfoBytes bounds the identity response read from a provider.
const maxUserInfoBytes = 1 << 20

var (
	// ErrExchange is returned when the authorization code cannot be exchanged
	ErrExchange = errors.New("code exchange failed")

	// ErrUserInfo is returned when the identity endpoint cannot be read
	ErrUserInfo = errors.New("identity fetch failed")
)

// Identity is the caller's identity as reported by a provider. It is never
// stored on its own.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// Provider performs the provider-specific half of the handshake.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// OAuth2Provider is a Provider for authorization-code servers exposing an
// OpenID userinfo endpoint, such as LinkedIn.
type OAuth2Provider struct {
	name        string
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
}

// NewOAuth2Provider builds a provider from its configuration. client bounds
// every outbound call; it should carry a timeout.
func NewOAuth2Provider(name string, cfg config.ProviderConfig, client *http.Client) *OAuth2Provider {
	return &OAuth2Provider{
		name: name,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client:      client,
	}
}

// Name returns the provider's route name
func (p *OAuth2Provider) Name() string {
	return p.name
}

// AuthCodeURL returns the provider authorization URL carrying state
func (p *OAuth2Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// Exchange trades code for a provider access token and fetches the identity
// it belongs to.
func (p *OAuth2Provider) Exchange(ctx context.Context, code string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	info, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserInfo, err)
	}

	return &Identity{
		Provider: p.name,
		Subject:  info.Sub,
		Email:    info.Email,
		Name:     info.Name,
	}, nil
}

type userInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (p *OAuth2Provider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserInfoBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("response has no subject")
	}
	return &info, nil
}

// Registry holds the configured providers by name
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider, replacing any provider with the same name
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns the provider registered under name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewRegistryFromConfig registers every provider that has credentials configured
func NewRegistryFromConfig(cfg config.OAuthConfig) *Registry {
	registry := NewRegistry()
	client := &http.Client{Timeout: cfg.HTTPTimeout}

	if cfg.LinkedIn.Enabled() {
		registry.Register(NewOAuth2Provider("linkedin", cfg.LinkedIn, client))
	}
	return registry
}
