package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone lookups in minimal containers

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "COACHDESK_"

// Config is the runtime configuration of one environment.
type Config struct {
	Port   int    `toml:"port"`
	DBPath string `toml:"db_path"`
	// BaseURL is used to build links in notification emails.
	BaseURL string `toml:"base_url"`
	// Timezone names the location subscription dates are read in.
	Timezone string `toml:"timezone"`

	// logging
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
	LogToStdout bool   `toml:"log_to_stdout"`
	LogJSON     bool   `toml:"log_json"`

	// sessions and tokens
	CSRFKey          string   `toml:"csrf_key"`
	SecureCookies    bool     `toml:"secure_cookies"`
	TrustedOrigins   []string `toml:"trusted_origins"`
	JWTSecret        string   `toml:"jwt_secret"`
	TokenTTL         Duration `toml:"token_ttl"`
	SessionTTL       Duration `toml:"session_ttl"`
	RememberMeTTL    Duration `toml:"remember_me_ttl"`
	RedisAddr        string   `toml:"redis_addr"`
	RedisPassword    string   `toml:"redis_password"`
	RateLimitPerSec  int      `toml:"rate_limit_per_second"`
	SeedCoachEmail   string   `toml:"seed_coach_email"`
	SeedCoachPass    string   `toml:"seed_coach_password"`
	ResendKey        string   `toml:"resend_key"`
	EmailFrom        string   `toml:"email_from"`
	EmailReplyTo     string   `toml:"email_reply_to"`
	MetricsEnabled   bool     `toml:"metrics_enabled"`
	SlowRequestMs    int      `toml:"slow_request_ms"`
	SlowQueryMs      int      `toml:"slow_query_ms"`
	ShutdownTimeoutS int      `toml:"shutdown_timeout_seconds"`
}

// Duration decodes TOML strings such as "24h" or "720h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Toml mirrors the config file: one section per environment.
type Toml struct {
	Development *Config
	Production  *Config
}

func knownEnv(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "prod", "production":
		return true
	}
	return false
}

// Get returns the section for env.
func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config has no [%s] section", strings.ToLower(env))
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		Port:             8080,
		DBPath:           "coachdesk.db",
		BaseURL:          "http://localhost:8080",
		LogLevel:         "info",
		LogToStdout:      true,
		TokenTTL:         Duration{time.Hour},
		SessionTTL:       Duration{24 * time.Hour},
		RememberMeTTL:    Duration{30 * 24 * time.Hour},
		RateLimitPerSec:  5,
		EmailFrom:        "Coachdesk <noreply@coachdesk.app>",
		SlowRequestMs:    200,
		SlowQueryMs:      100,
		ShutdownTimeoutS: 10,
	}
}

// Load reads .env (when present), then the TOML section for env, then
// COACHDESK_* environment overrides. A missing config file is not an error.
// PRE: env is one of dev, development, prod, production
// POST: returned Config has every zero value replaced by its default
func Load(env, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if !knownEnv(env) {
		return nil, fmt.Errorf("unknown env: %s", env)
	}

	cfg := Defaults()
	if path != "" {
		var t Toml
		_, err := toml.DecodeFile(path, &t)
		switch {
		case err == nil:
			section, err := t.Get(env)
			if err != nil {
				return nil, err
			}
			mergeFile(&cfg, section)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile copies every non-zero field of file onto cfg.
func mergeFile(cfg *Config, file *Config) {
	setString(&cfg.DBPath, file.DBPath)
	setString(&cfg.BaseURL, file.BaseURL)
	setString(&cfg.Timezone, file.Timezone)
	setString(&cfg.LogLevel, file.LogLevel)
	setString(&cfg.LogFile, file.LogFile)
	setString(&cfg.CSRFKey, file.CSRFKey)
	setString(&cfg.JWTSecret, file.JWTSecret)
	setString(&cfg.RedisAddr, file.RedisAddr)
	setString(&cfg.RedisPassword, file.RedisPassword)
	setString(&cfg.SeedCoachEmail, file.SeedCoachEmail)
	setString(&cfg.SeedCoachPass, file.SeedCoachPass)
	setString(&cfg.ResendKey, file.ResendKey)
	setString(&cfg.EmailFrom, file.EmailFrom)
	setString(&cfg.EmailReplyTo, file.EmailReplyTo)
	setInt(&cfg.Port, file.Port)
	setInt(&cfg.RateLimitPerSec, file.RateLimitPerSec)
	setInt(&cfg.SlowRequestMs, file.SlowRequestMs)
	setInt(&cfg.SlowQueryMs, file.SlowQueryMs)
	setInt(&cfg.ShutdownTimeoutS, file.ShutdownTimeoutS)
	setDuration(&cfg.TokenTTL, file.TokenTTL)
	setDuration(&cfg.SessionTTL, file.SessionTTL)
	setDuration(&cfg.RememberMeTTL, file.RememberMeTTL)
	if len(file.TrustedOrigins) > 0 {
		cfg.TrustedOrigins = file.TrustedOrigins
	}
	// Booleans in the file always win.
	cfg.LogToStdout = file.LogToStdout || file.LogFile == ""
	cfg.LogJSON = file.LogJSON
	cfg.SecureCookies = file.SecureCookies
	cfg.MetricsEnabled = file.MetricsEnabled
}

// applyEnv applies COACHDESK_* overrides.
func applyEnv(cfg *Config) error {
	cfg.DBPath = envOrDefault("DB_PATH", cfg.DBPath)
	cfg.BaseURL = envOrDefault("BASE_URL", cfg.BaseURL)
	cfg.Timezone = envOrDefault("TIMEZONE", cfg.Timezone)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = envOrDefault("LOG_FILE", cfg.LogFile)
	cfg.CSRFKey = envOrDefault("CSRF_KEY", cfg.CSRFKey)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.RedisAddr = envOrDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = envOrDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.SeedCoachEmail = envOrDefault("SEED_COACH_EMAIL", cfg.SeedCoachEmail)
	cfg.SeedCoachPass = envOrDefault("SEED_COACH_PASSWORD", cfg.SeedCoachPass)
	cfg.ResendKey = envOrDefault("RESEND_KEY", cfg.ResendKey)
	cfg.EmailFrom = envOrDefault("EMAIL_FROM", cfg.EmailFrom)
	cfg.EmailReplyTo = envOrDefault("EMAIL_REPLY_TO", cfg.EmailReplyTo)

	var err error
	if cfg.Port, err = envInt("PORT", cfg.Port); err != nil {
		return err
	}
	if cfg.RateLimitPerSec, err = envInt("RATE_LIMIT_PER_SECOND", cfg.RateLimitPerSec); err != nil {
		return err
	}
	if cfg.MetricsEnabled, err = envBool("METRICS_ENABLED", cfg.MetricsEnabled); err != nil {
		return err
	}
	if cfg.SecureCookies, err = envBool("SECURE_COOKIES", cfg.SecureCookies); err != nil {
		return err
	}
	return nil
}

// envOrDefault returns the COACHDESK_-prefixed variable or fallback.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return b, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *Duration, v Duration) {
	if v.Duration != 0 {
		*dst = v
	}
}

// Location resolves Timezone, falling back to the process location.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
