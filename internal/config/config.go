package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	BaseURL         string        // public base URL used in mail links (ex: https://reddot.example.com)

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// SQLite
	DBPath string // path to the sqlite database file ("reddot.db")

	// Sessions / passwords
	SessionSecret string        // HMAC secret for session tokens
	SessionTTL    time.Duration // session token lifetime (default: 24h)
	BcryptCost    int           // bcrypt cost (0 = library default)

	// Security tokens
	ConfirmTokenTTL time.Duration // confirmation token lifetime (default: 24h)
	RecoverTokenTTL time.Duration // password-reset token lifetime (default: 1h)
	TokenGCInterval time.Duration // interval to prune dead tokens (default: 24h)

	// Mail
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string // optional
	SMTPPassword string // optional
	SMTPFrom     string
	SMTPTimeout  time.Duration // per-mail delivery deadline (default: 10s)
	MailTemplate string        // optional YAML overlay for the mail templates

	// Redis (optional: empty addr = tokens and markers stay in sqlite)
	RedisAddr           string // ex: "localhost:6379"
	RedisUser           string // optional
	RedisPassword       string // optional
	RedisDB             int    // Redis DB number
	RedisDT             time.Duration
	RedisRT             time.Duration
	RedisWT             time.Duration
	RedisMaxWait        time.Duration
	RedisPingTimeout    time.Duration
	RedisPoolSize       int
	RedisConnectTimeout time.Duration
	RedisRetryInterval  time.Duration
	RedisWarnThreshold  int

	TrustProxy bool // true => trust X-Forwarded-For headers
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("REDDOT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("REDDOT_SHUTDOWN_TIMEOUT", 5*time.Second),
		BaseURL:         requireEnv("REDDOT_BASE_URL"),

		// Logging
		LogLevel:  getenv("REDDOT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("REDDOT_PRETTY_LOG", false),

		// Storage
		DBPath: getenv("REDDOT_DB_PATH", "reddot.db"),

		// Sessions
		SessionSecret: requireEnv("REDDOT_SESSION_SECRET"),
		SessionTTL:    mustDuration("REDDOT_SESSION_TTL", 24*time.Hour),
		BcryptCost:    getenvInt("REDDOT_BCRYPT_COST", 0),

		// Security tokens
		ConfirmTokenTTL: mustDuration("REDDOT_CONFIRM_TOKEN_TTL", 24*time.Hour),
		RecoverTokenTTL: mustDuration("REDDOT_RECOVER_TOKEN_TTL", time.Hour),
		TokenGCInterval: mustDuration("REDDOT_TOKEN_GC_INTERVAL", 24*time.Hour),

		// Mail
		SMTPHost:     getenv("REDDOT_SMTP_HOST", "localhost"),
		SMTPPort:     getenvInt("REDDOT_SMTP_PORT", 25),
		SMTPUser:     getenv("REDDOT_SMTP_USERNAME", ""),
		SMTPPassword: getenv("REDDOT_SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("REDDOT_SMTP_FROM", "no-reply@reddot.local"),
		SMTPTimeout:  mustDuration("REDDOT_SMTP_TIMEOUT", 10*time.Second),
		MailTemplate: getenv("REDDOT_MAIL_TEMPLATE_FILE", ""),

		// Redis settings
		RedisAddr:           getenv("REDDOT_REDIS_ADDR", ""),
		RedisUser:           getenv("REDDOT_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("REDDOT_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDDOT_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		TrustProxy: mustBool("REDDOT_TRUST_PROXY", false),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.SessionSecret = "***REDACTED***"
		cfgCopy.SMTPPassword = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
