package config

import (
	"fmt"
	"net/url"
)

// Config holds all configuration for resonant-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (API keys, signing secrets) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// Database configuration (PostgreSQL + pgvector)
	Database DatabaseConfig `yaml:"database"`

	// Anthropic LLM configuration
	Anthropic AnthropicConfig `yaml:"anthropic"`

	// Embeddings provider configuration
	Embeddings EmbeddingsConfig `yaml:"embeddings"`

	// Voice agent platform configuration
	Voice VoiceConfig `yaml:"voice"`

	// Stripe billing configuration
	Stripe StripeConfig `yaml:"stripe"`

	// Social OAuth configuration
	Twitter  TwitterConfig  `yaml:"twitter"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`

	// SessionSecret signs the OAuth state cookie. Any passphrase; hashed to a key.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// InviteCode gates signup while the product is invite-only.
	InviteCode string `yaml:"-" env:"INVITE_CODE"` // Secret - not in YAML

	// FreeTierPostLimit is how many posts an unsubscribed user may generate.
	FreeTierPostLimit int `yaml:"free_tier_post_limit" env:"FREE_TIER_POST_LIMIT" env-default:"10"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// EnableVerification controls whether JWT tokens are validated.
	// Set to false for local development without the auth provider.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSURL is the auth provider's JWKS endpoint used to verify bearer tokens.
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`

	// Issuer is the expected token issuer.
	Issuer string `yaml:"issuer" env:"AUTH_ISSUER" env-default:""`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"resonant"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"resonant_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// AnthropicConfig holds Anthropic API configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	Model  string `yaml:"model" env:"ANTHROPIC_MODEL" env-default:"claude-sonnet-4-20250514"`
	// MaxTokens caps generation length for content calls.
	MaxTokens int `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS" env-default:"4096"`
	// TimeoutSeconds bounds a single messages call. Connection/timeout errors
	// get one bounded retry; schema-parse failures never retry.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"ANTHROPIC_TIMEOUT_SECONDS" env-default:"60"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	APIKey     string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	Model      string `yaml:"model" env:"EMBEDDINGS_MODEL" env-default:"text-embedding-3-small"`
	Dimensions int    `yaml:"dimensions" env:"EMBEDDINGS_DIMENSIONS" env-default:"1536"`
}

// VoiceConfig holds voice agent platform (Retell) configuration.
type VoiceConfig struct {
	APIKey  string `yaml:"-" env:"RETELL_API_KEY"` // Secret - not in YAML
	BaseURL string `yaml:"base_url" env:"RETELL_BASE_URL" env-default:"https://api.retellai.com"`
	// VoiceID is the platform voice used for newly provisioned agents.
	VoiceID string `yaml:"voice_id" env:"RETELL_VOICE_ID" env-default:"11labs-Adrian"`
}

// StripeConfig holds Stripe billing configuration.
type StripeConfig struct {
	SecretKey     string `yaml:"-" env:"STRIPE_SECRET_KEY"`     // Secret - not in YAML
	WebhookSecret string `yaml:"-" env:"STRIPE_WEBHOOK_SECRET"` // Secret - not in YAML
	PriceID       string `yaml:"price_id" env:"STRIPE_PRICE_ID" env-default:""`
}

// TwitterConfig holds X (Twitter) OAuth2 configuration.
type TwitterConfig struct {
	ClientID     string `yaml:"client_id" env:"TWITTER_CLIENT_ID" env-default:""`
	ClientSecret string `yaml:"-" env:"TWITTER_CLIENT_SECRET"` // Secret - not in YAML
	RedirectURL  string `yaml:"redirect_url" env:"TWITTER_REDIRECT_URL" env-default:""`
}

// LinkedInConfig holds LinkedIn OAuth configuration.
type LinkedInConfig struct {
	ClientID    string `yaml:"client_id" env:"LINKEDIN_CLIENT_ID" env-default:""`
	RedirectURL string `yaml:"redirect_url" env:"LINKEDIN_REDIRECT_URL" env-default:""`
}

// Load reads configuration from the given YAML file with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets must come from environment variables (yaml:"-" fields).
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := readConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate rejects configurations that would fail at first use.
func (c *Config) validate() error {
	if c.Auth.EnableVerification && c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth verification enabled but jwks_url is not set")
	}
	if c.FreeTierPostLimit < 0 {
		return fmt.Errorf("free_tier_post_limit must not be negative")
	}
	if c.Embeddings.Dimensions <= 0 {
		return fmt.Errorf("embeddings dimensions must be positive")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
