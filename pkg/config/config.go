package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Auth         AuthConfig
	OAuth        OAuthConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	Email        EmailConfig
	Storage      StorageConfig
	Docs         DocsConfig
	Admin        AdminConfig
	Integrations IntegrationsConfig
	FeatureFlags FeatureFlagsConfig
}

// Load reads the process environment and fails on the first missing or
// malformed value. Nothing is retried.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	err = multierr.Append(err, c.DB.validate())
	err = multierr.Append(err, c.App.validate())
	err = multierr.Append(err, c.RateLimit.validate())
	if c.App.IsProd() && strings.TrimSpace(c.Auth.Secret) == "" {
		err = multierr.Append(err, fmt.Errorf("%s is required in production", EnvAuthSecret))
	}
	c.Admin.BulkConcurrency = clamp(c.Admin.BulkConcurrency, 1, 16)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"NODE_ENV" default:"development"`
	Port         string `envconfig:"PORT" default:"3001"`
	CORSOrigin   string `envconfig:"CORS_ORIGIN" default:"http://localhost:3000"`
	FrontendURL  string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	Version      string `envconfig:"APP_VERSION" default:"1.0.0"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, AppEnvDevShort)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, AppEnvProdShort)
}

// Addr returns the listen address for the HTTP server.
func (a AppConfig) Addr() string {
	return ":" + a.Port
}

// CORSOrigins splits CORS_ORIGIN on commas.
func (a AppConfig) CORSOrigins() []string {
	out := []string{}
	for _, part := range strings.Split(a.CORSOrigin, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (a AppConfig) validate() error {
	port, err := strconv.Atoi(strings.TrimSpace(a.Port))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%s must be a port number between 1 and 65535", EnvPort)
	}
	return nil
}

type DBConfig struct {
	URL string `envconfig:"DATABASE_URL" required:"true"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"DB_SLOW_QUERY" default:"200ms"`
}

func (db DBConfig) validate() error {
	raw := strings.TrimSpace(db.URL)
	if raw == "" {
		return fmt.Errorf("%s is required", EnvDatabaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid url: %w", EnvDatabaseURL, err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
	default:
		return fmt.Errorf("%s must use the postgres scheme, got %q", EnvDatabaseURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", EnvDatabaseURL)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type AuthConfig struct {
	Secret       string        `envconfig:"BETTER_AUTH_SECRET"`
	BaseURL      string        `envconfig:"BETTER_AUTH_URL" default:"http://localhost:3001"`
	CookieDomain string        `envconfig:"COOKIE_DOMAIN"`
	CookiePrefix string        `envconfig:"AUTH_COOKIE_PREFIX" default:"adminkit"`
	SessionTTL   time.Duration `envconfig:"SESSION_EXPIRES_IN" default:"168h"`
	UpdateAge    time.Duration `envconfig:"SESSION_UPDATE_AGE" default:"24h"`
	CacheTTL     time.Duration `envconfig:"SESSION_CACHE_TTL" default:"5m"`
	VerifyTTL    time.Duration `envconfig:"EMAIL_VERIFICATION_TTL" default:"24h"`
	ResetTTL     time.Duration `envconfig:"PASSWORD_RESET_TTL" default:"1h"`
}

// SigningSecret returns the configured secret or a fixed development value.
func (a AuthConfig) SigningSecret() string {
	if s := strings.TrimSpace(a.Secret); s != "" {
		return s
	}
	return devAuthSecret
}

type OAuthConfig struct {
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GitHubClientID     string `envconfig:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `envconfig:"GITHUB_CLIENT_SECRET"`
}

func (o OAuthConfig) GoogleEnabled() bool {
	return o.GoogleClientID != "" && o.GoogleClientSecret != ""
}

func (o OAuthConfig) GitHubEnabled() bool {
	return o.GitHubClientID != "" && o.GitHubClientSecret != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	Max        int           `envconfig:"RATE_LIMIT_MAX" default:"100"`
	Window     time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	AuthMax    int           `envconfig:"AUTH_RATE_LIMIT_MAX" default:"10"`
	AuthWindow time.Duration `envconfig:"AUTH_RATE_LIMIT_WINDOW" default:"1m"`
}

func (r RateLimitConfig) validate() error {
	var err error
	if r.Max < 1 || r.AuthMax < 1 {
		err = multierr.Append(err, fmt.Errorf("rate limit maximums must be positive"))
	}
	if r.Window <= 0 || r.AuthWindow <= 0 {
		err = multierr.Append(err, fmt.Errorf("rate limit windows must be positive"))
	}
	return err
}

type EmailConfig struct {
	ResendAPIKey string `envconfig:"RESEND_API_KEY"`
	From         string `envconfig:"FROM_EMAIL" default:"onboarding@resend.dev"`
	AppName      string `envconfig:"APP_NAME" default:"Admin Kit"`
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

type StorageConfig struct {
	Bucket          string `envconfig:"S3_BUCKET"`
	Region          string `envconfig:"S3_REGION" default:"us-east-1"`
	Endpoint        string `envconfig:"S3_ENDPOINT"`
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	PublicURL       string `envconfig:"S3_PUBLIC_URL"`
	UsePathStyle    bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

// Enabled reports whether a bucket was configured.
func (s StorageConfig) Enabled() bool {
	return strings.TrimSpace(s.Bucket) != ""
}

type DocsConfig struct {
	Username string `envconfig:"DOCS_USERNAME"`
	Password string `envconfig:"DOCS_PASSWORD"`
}

func (d DocsConfig) Enabled() bool {
	return d.Username != "" && d.Password != ""
}

type AdminConfig struct {
	BulkConcurrency int `envconfig:"BULK_CONCURRENCY" default:"4"`
}

// IntegrationsConfig holds optional third-party credentials surfaced in system stats.
type IntegrationsConfig struct {
	PolarAccessToken   string `envconfig:"POLAR_ACCESS_TOKEN"`
	PolarWebhookSecret string `envconfig:"POLAR_WEBHOOK_SECRET"`
	OpenRouterAPIKey   string `envconfig:"OPENROUTER_API_KEY"`
	UploadThingToken   string `envconfig:"UPLOADTHING_TOKEN"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"AUTO_MIGRATE" default:"false"`
}

// ConfiguredProviders lists which optional providers have credentials configured.
func (c *Config) ConfiguredProviders() map[string]bool {
	return map[string]bool{
		"resend":      c.Email.ResendAPIKey != "",
		"smtp":        c.Email.SMTPHost != "",
		"google":      c.OAuth.GoogleEnabled(),
		"github":      c.OAuth.GitHubEnabled(),
		"s3":          c.Storage.Enabled(),
		"redis":       c.Redis.Enabled(),
		"polar":       c.Integrations.PolarAccessToken != "",
		"openrouter":  c.Integrations.OpenRouterAPIKey != "",
		"uploadthing": c.Integrations.UploadThingToken != "",
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
