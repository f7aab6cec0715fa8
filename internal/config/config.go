package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soaringjerry/Scamwatch/internal/utils"
)

type Config struct {
	Addr          string
	DBPath        string
	MigrationsDir string
	StaticDir     string

	JWTSecret string
	HashKey   string

	SubmitPerMinute int
	SubmitBurst     int
	// TrustedProxies lists addresses or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	// TwilioAuthToken verifies X-Twilio-Signature on the WhatsApp webhook.
	// PublicURL is the externally visible base URL Twilio signs against.
	TwilioAuthToken string
	PublicURL       string

	SweepInterval time.Duration
	AlertFeeds    []string
	AlertInterval time.Duration

	RedisURL   string
	SessionTTL time.Duration

	LogLevel  string
	LogFormat string

	Commit    string
	BuildTime string
}

// Load reads SCAMWATCH_* variables. Malformed numbers or durations are
// reported as errors rather than silently replaced with defaults.
func Load() (Config, error) {
	var errs []error
	getInt := func(key string, def int) int {
		val := utils.SafeEnv(key, "")
		if val == "" {
			return def
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q", key, val))
			return def
		}
		return n
	}
	getDuration := func(key string, def time.Duration) time.Duration {
		val := utils.SafeEnv(key, "")
		if val == "" {
			return def
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s=%q", key, val))
			return def
		}
		return d
	}

	cfg := Config{
		Addr:            utils.SafeEnv("SCAMWATCH_ADDR", ":8080"),
		DBPath:          utils.SafeEnv("SCAMWATCH_DB_PATH", "./data/scamwatch.db"),
		MigrationsDir:   utils.SafeEnv("SCAMWATCH_MIGRATIONS_DIR", ""),
		StaticDir:       utils.SafeEnv("SCAMWATCH_STATIC_DIR", ""),
		JWTSecret:       utils.SafeEnv("SCAMWATCH_JWT_SECRET", ""),
		HashKey:         utils.SafeEnv("SCAMWATCH_HASH_KEY", ""),
		SubmitPerMinute: getInt("SCAMWATCH_SUBMIT_RATE", 5),
		SubmitBurst:     getInt("SCAMWATCH_SUBMIT_BURST", 3),
		TrustedProxies:  utils.EnvList("SCAMWATCH_TRUSTED_PROXIES"),
		TwilioAuthToken: utils.SafeEnv("SCAMWATCH_TWILIO_AUTH_TOKEN", ""),
		PublicURL:       strings.TrimRight(utils.SafeEnv("SCAMWATCH_PUBLIC_URL", ""), "/"),
		SweepInterval:   getDuration("SCAMWATCH_SWEEP_INTERVAL", time.Hour),
		AlertFeeds:      utils.EnvList("SCAMWATCH_ALERT_FEEDS"),
		AlertInterval:   getDuration("SCAMWATCH_ALERT_INTERVAL", 30*time.Minute),
		RedisURL:        utils.SafeEnv("SCAMWATCH_REDIS_URL", ""),
		SessionTTL:      getDuration("SCAMWATCH_SESSION_TTL", 10*time.Minute),
		LogLevel:        utils.SafeEnv("SCAMWATCH_LOG_LEVEL", "info"),
		LogFormat:       utils.SafeEnv("SCAMWATCH_LOG_FORMAT", "text"),
		Commit:          utils.SafeEnv("SCAMWATCH_COMMIT", ""),
		BuildTime:       utils.SafeEnv("SCAMWATCH_BUILD_TIME", ""),
	}
	if len(errs) > 0 {
		return cfg, errs[0]
	}

	if cfg.SubmitPerMinute <= 0 {
		cfg.SubmitPerMinute = 5
	}
	if cfg.SubmitBurst <= 0 {
		cfg.SubmitBurst = 1
	}
	if cfg.SweepInterval < time.Minute {
		cfg.SweepInterval = time.Minute
	}
	if cfg.AlertInterval < time.Minute {
		cfg.AlertInterval = time.Minute
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 10 * time.Minute
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "scamwatch-dev-secret"
	}
	if cfg.HashKey == "" {
		cfg.HashKey = cfg.JWTSecret
	}
	return cfg, nil
}
