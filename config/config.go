package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gradconnect/backend/services/tokens"
	"github.com/joho/godotenv"
)

// minProductionSecretLen is the shortest JWT secret accepted in production.
const minProductionSecretLen = 32

// Config represents the complete application configuration. It is built once
// at startup and passed explicitly; nothing reads the environment afterwards.
type Config struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"development"`
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	OAuth         OAuthConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
	Audit         AuditConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host               string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port               int           `env:"SERVER_PORT" envDefault:"8000"`
	ReadTimeout        time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout       time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout    time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout     time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	TLS                TLSConfig
}

// TLSConfig holds optional TLS listener settings
type TLSConfig struct {
	Enabled  bool   `env:"TLS_ENABLED" envDefault:"false"`
	CertFile string `env:"TLS_CERT_FILE" envDefault:"certs/cert.pem"`
	KeyFile  string `env:"TLS_KEY_FILE" envDefault:"certs/key.pem"`
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string        `env:"DATABASE_URL"`
	Host             string        `env:"DB_HOST" envDefault:"localhost"`
	Port             int           `env:"DB_PORT" envDefault:"5432"`
	User             string        `env:"DB_USER" envDefault:"postgres"`
	Password         string        `env:"DB_PASSWORD"`
	Database         string        `env:"DB_NAME" envDefault:"gradconnect"`
	SSLMode          string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns     int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns     int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime  time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	AutoMigrate      bool          `env:"DB_AUTO_MIGRATE" envDefault:"true"`
}

// AuthConfig holds token and password settings. TTLs use the <n>h, <n>d, <n>m syntax.
type AuthConfig struct {
	JWTSecret  string `env:"JWT_SECRET"`
	AccessTTL  string `env:"JWT_EXPIRES_IN" envDefault:"24h"`
	RefreshTTL string `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"7d"`
	BcryptCost int    `env:"BCRYPT_COST" envDefault:"10"`
}

// OAuthConfig holds identity federation settings
type OAuthConfig struct {
	HTTPTimeout            time.Duration  `env:"OAUTH_HTTP_TIMEOUT" envDefault:"10s"`
	FrontendRedirectURL    string         `env:"OAUTH_FRONTEND_REDIRECT_URL" envDefault:"http://localhost:3000/linkedin-auth-handler"`
	PlaceholderEmailDomain string         `env:"OAUTH_PLACEHOLDER_EMAIL_DOMAIN" envDefault:"example.com"`
	LinkedIn               ProviderConfig `envPrefix:"LINKEDIN_"`
}

// ProviderConfig describes one external OAuth provider. URLs default to LinkedIn's
// OpenID Connect endpoints.
type ProviderConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	AuthURL      string   `env:"AUTH_URL" envDefault:"https://www.linkedin.com/oauth/v2/authorization"`
	TokenURL     string   `env:"TOKEN_URL" envDefault:"https://www.linkedin.com/oauth/v2/accessToken"`
	UserInfoURL  string   `env:"USERINFO_URL" envDefault:"https://api.linkedin.com/v2/userinfo"`
	Scopes       []string `env:"SCOPES" envSeparator:"," envDefault:"openid,profile,email"`
}

// Enabled reports whether the provider has credentials configured.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

// partial reports whether some but not all credentials are set.
func (p ProviderConfig) partial() bool {
	set := 0
	for _, v := range []string{p.ClientID, p.ClientSecret, p.RedirectURI} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 3
}

// RateLimitConfig holds per-client limits for the credential endpoints
type RateLimitConfig struct {
	Enabled           bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerMinute int           `env:"RATE_LIMIT_AUTH_PER_MINUTE" envDefault:"20"`
	Burst             int           `env:"RATE_LIMIT_AUTH_BURST" envDefault:"10"`
	CleanupInterval   time.Duration `env:"RATE_LIMIT_CLEANUP_INTERVAL" envDefault:"5m"`
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"json"` // json or text
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
}

// AuditConfig holds audit trail worker settings
type AuditConfig struct {
	Enabled         bool          `env:"AUDIT_ENABLED" envDefault:"true"`
	BufferSize      int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	Workers         int           `env:"AUDIT_WORKERS" envDefault:"4"`
	ShutdownTimeout time.Duration `env:"AUDIT_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	// PORT is set by most hosting platforms and wins over SERVER_PORT
	if value := os.Getenv("PORT"); value != "" {
		p, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", value, err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	// Token settings
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Auth.JWTSecret) < minProductionSecretLen {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes in production", minProductionSecretLen)
	}
	if _, err := tokens.ParseDuration(c.Auth.AccessTTL); err != nil {
		return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	if _, err := tokens.ParseDuration(c.Auth.RefreshTTL); err != nil {
		return fmt.Errorf("REFRESH_TOKEN_EXPIRES_IN: %w", err)
	}

	// Federation
	if c.OAuth.LinkedIn.partial() {
		return fmt.Errorf("linkedin requires LINKEDIN_CLIENT_ID, LINKEDIN_CLIENT_SECRET and LINKEDIN_REDIRECT_URI together")
	}
	if c.OAuth.LinkedIn.Enabled() {
		if _, err := url.ParseRequestURI(c.OAuth.FrontendRedirectURL); err != nil {
			return fmt.Errorf("OAUTH_FRONTEND_REDIRECT_URL is not a valid URL: %w", err)
		}
	}
	if c.OAuth.PlaceholderEmailDomain == "" {
		return fmt.Errorf("placeholder email domain is required")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_AUTH_PER_MINUTE and RATE_LIMIT_AUTH_BURST")
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection settings as a postgres:// URL, the form the
// migration runner expects.
func (c *DatabaseConfig) URL() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
