package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgconfig "github.com/tusharag6/homestead-api/pkg/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Token modes.
const (
	TokenModeSingle = "single"
	TokenModePaired = "paired"
)

// Login identifier strategies.
const (
	IdentifierEmail    = "email"
	IdentifierUsername = "username"
	IdentifierEither   = "either"
)

// Uniqueness scopes.
const (
	ScopeEmail         = "email"
	ScopeEmailUsername = "email_username"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

const (
	minSecretLength = 32
	minBcryptCost   = 10
)

// Config holds all configuration for the API. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"PORT" envDefault:"5000"`

	// Session tokens
	TokenMode          string `env:"TOKEN_MODE" envDefault:"paired"`
	TokenSecret        string `env:"TOKEN_SECRET"`
	TokenExpiry        string `env:"TOKEN_EXPIRY" envDefault:"10d"`
	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" envDefault:"15m"`
	RefreshTokenSecret string `env:"REFRESH_TOKEN_SECRET"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" envDefault:"10d"`

	// Accounts
	LoginIdentifier string `env:"LOGIN_IDENTIFIER" envDefault:"email"`
	UniquenessScope string `env:"UNIQUENESS_SCOPE" envDefault:"email_username"`
	BcryptCost      int    `env:"BCRYPT_COST" envDefault:"10"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"homestead"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"homestead"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"homestead"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"30"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"5"`
	SlowQueryThresholdMs  int   `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Redis listing cache
	ListingCacheEnabled bool          `env:"LISTING_CACHE_ENABLED" envDefault:"true"`
	ListingCacheTTL     time.Duration `env:"LISTING_CACHE_TTL" envDefault:"60s"`
	RedisHost           string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort           int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword       string        `env:"REDIS_PASSWORD"`
	RedisDB             int           `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Parsed from the *_EXPIRY strings by Load.
	TokenTTL        time.Duration
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom is Load over an explicit variable set instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadFrom(cfg, environ); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BcryptCost < minBcryptCost {
		return fmt.Errorf("BCRYPT_COST must be at least %d, got %d", minBcryptCost, c.BcryptCost)
	}

	switch c.TokenMode {
	case TokenModeSingle:
		ttl, err := c.secretAndExpiry("TOKEN", c.TokenSecret, c.TokenExpiry)
		if err != nil {
			return err
		}
		c.TokenTTL = ttl
	case TokenModePaired:
		access, err := c.secretAndExpiry("ACCESS_TOKEN", c.AccessTokenSecret, c.AccessTokenExpiry)
		if err != nil {
			return err
		}
		refresh, err := c.secretAndExpiry("REFRESH_TOKEN", c.RefreshTokenSecret, c.RefreshTokenExpiry)
		if err != nil {
			return err
		}
		if c.AccessTokenSecret == c.RefreshTokenSecret {
			return errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
		}
		c.AccessTokenTTL = access
		c.RefreshTokenTTL = refresh
	default:
		return fmt.Errorf("TOKEN_MODE must be %q or %q, got %q", TokenModeSingle, TokenModePaired, c.TokenMode)
	}

	switch c.LoginIdentifier {
	case IdentifierEmail, IdentifierUsername, IdentifierEither:
	default:
		return fmt.Errorf("LOGIN_IDENTIFIER must be one of email, username, either, got %q", c.LoginIdentifier)
	}

	switch c.UniquenessScope {
	case ScopeEmail, ScopeEmailUsername:
	default:
		return fmt.Errorf("UNIQUENESS_SCOPE must be %q or %q, got %q", ScopeEmail, ScopeEmailUsername, c.UniquenessScope)
	}

	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}

	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0, 1], got %v", c.OTELSampleRate)
	}

	return nil
}

// secretAndExpiry checks one secret/expiry pair named by prefix and returns
// the parsed lifetime.
func (c *Config) secretAndExpiry(prefix, secret, expiry string) (time.Duration, error) {
	if secret == "" {
		return 0, fmt.Errorf("%s_SECRET is required in %q token mode", prefix, c.TokenMode)
	}
	if !c.IsDevelopment() && len(secret) < minSecretLength {
		return 0, fmt.Errorf("%s_SECRET must be at least %d characters long, got %d", prefix, minSecretLength, len(secret))
	}

	ttl, err := ParseExpiry(expiry)
	if err != nil {
		return 0, fmt.Errorf("parse %s_EXPIRY %q: %w", prefix, expiry, err)
	}
	return ttl, nil
}

// ParseExpiry parses a token lifetime. Besides time.ParseDuration syntax it
// accepts a whole number of days such as "10d".
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	var (
		d   time.Duration
		err error
	)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		var n int
		n, err = strconv.Atoi(days)
		d = time.Duration(n) * 24 * time.Hour
	} else {
		d, err = time.ParseDuration(s)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %q", s)
	}
	return d, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// SecureCookies reports whether session cookies carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.Environment == EnvProduction
}

// Paired reports whether access/refresh token pairs are issued.
func (c *Config) Paired() bool {
	return c.TokenMode == TokenModePaired
}
