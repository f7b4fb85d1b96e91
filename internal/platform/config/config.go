package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	pkgstrings "guestlist/pkg/platform/strings"
)

// Auth provider names accepted by GUESTLIST_AUTH_PROVIDER.
const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

// Server captures process level configuration loaded from the environment.
type Server struct {
	Addr            string        `env:"GUESTLIST_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"GUESTLIST_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"GUESTLIST_SHUTDOWN_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"GUESTLIST_REQUEST_TIMEOUT" envDefault:"30s"`
	AllowedOrigins  []string      `env:"GUESTLIST_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Export   ExportConfig
}

// DatabaseConfig selects postgres when URL is set; otherwise stores live in memory.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"30m"`
	StoreTimeout    time.Duration `env:"GUESTLIST_STORE_TIMEOUT" envDefault:"5s"`
	MigrateOnStart  bool          `env:"GUESTLIST_MIGRATE_ON_START" envDefault:"true"`
}

// RedisConfig is optional; an empty URL disables Redis-backed token revocation.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"2s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"1s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"1s"`
}

// AuthConfig configures the identity provider behind the session gate.
type AuthConfig struct {
	Provider       string        `env:"GUESTLIST_AUTH_PROVIDER" envDefault:"local"`
	Timeout        time.Duration `env:"GUESTLIST_AUTH_TIMEOUT" envDefault:"5s"`
	CookieName     string        `env:"GUESTLIST_COOKIE_NAME" envDefault:"auth-cookie"`
	CookieSecure   bool          `env:"GUESTLIST_COOKIE_SECURE" envDefault:"true"`
	BreakerFails   int           `env:"GUESTLIST_AUTH_BREAKER_FAILURES" envDefault:"5"`
	BreakerBackoff time.Duration `env:"GUESTLIST_AUTH_BREAKER_COOLDOWN" envDefault:"30s"`

	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_KEY"`

	// Organizers holds "email:bcrypt-hash" pairs for the local provider.
	Organizers    []string      `env:"GUESTLIST_ORGANIZERS" envSeparator:","`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"guestlist"`
	TokenTTL      time.Duration `env:"GUESTLIST_TOKEN_TTL" envDefault:"12h"`
}

// ExportConfig configures headless Chrome for the PDF guest list.
type ExportConfig struct {
	ChromePath string        `env:"CHROME_PATH"`
	Timeout    time.Duration `env:"GUESTLIST_PDF_TIMEOUT" envDefault:"30s"`
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedOrigins = pkgstrings.DedupeAndTrim(cfg.AllowedOrigins)
	cfg.Auth.Organizers = pkgstrings.DedupeAndTrim(cfg.Auth.Organizers)
	if err := cfg.validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// DatabaseFromEnv parses only the database settings, for tools that do not
// serve HTTP.
func DatabaseFromEnv() (DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := env.Parse(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.URL == "" {
		return DatabaseConfig{}, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func (c Server) validate() error {
	switch c.Auth.Provider {
	case AuthProviderSupabase:
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseKey == "" {
			return fmt.Errorf("supabase provider requires SUPABASE_URL and SUPABASE_KEY")
		}
	case AuthProviderLocal:
		if _, err := c.Auth.OrganizerHashes(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown auth provider %q", c.Auth.Provider)
	}
	return nil
}

// OrganizerHashes parses Organizers into an email to bcrypt-hash map.
func (a AuthConfig) OrganizerHashes() (map[string]string, error) {
	out := make(map[string]string, len(a.Organizers))
	for _, entry := range a.Organizers {
		email, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("invalid organizer entry %q: want email:bcrypt-hash", entry)
		}
		out[strings.ToLower(email)] = hash
	}
	return out, nil
}
