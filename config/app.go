package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the runtime settings read from the environment. Optional
// integrations (CMS, Redis, RabbitMQ, Google) are disabled when their URL or
// credentials are empty.
type Config struct {
	Env             string
	Port            string
	ShutdownTimeout time.Duration

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBSSLMode   string
	AutoMigrate bool

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SiteName string
	SiteURL  string

	CMSURL     string
	CMSToken   string
	CMSTimeout time.Duration

	CaptchaSecret    string
	CaptchaVerifyURL string
	CaptchaDisabled  bool

	AMQPURL string

	MetricsEnabled bool
	CORSOrigins    []string
}

// Load reads Config from the environment, applying defaults.
func Load() Config {
	return Config{
		Env:             envStr("APP_ENV", "development"),
		Port:            envStr("PORT", "8080"),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      envStr("DB_HOST", "localhost"),
		DBUser:      envStr("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      envStr("DB_NAME", "escape_finder"),
		DBPort:      envStr("DB_PORT", "5432"),
		DBSSLMode:   envStr("DB_SSLMODE", "disable"),
		AutoMigrate: envBool("DB_AUTO_MIGRATE", true),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		AccessTTL:  envDur("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		RefreshTTL: envDur("REFRESH_TOKEN_TTL", 30*24*time.Hour),

		SiteName: envStr("SITE_NAME", "Escape Room Finder"),
		SiteURL:  envStr("SITE_URL", "http://localhost:3000"),

		CMSURL:     os.Getenv("CMS_URL"),
		CMSToken:   os.Getenv("CMS_TOKEN"),
		CMSTimeout: envDur("CMS_TIMEOUT", 10*time.Second),

		CaptchaSecret:    os.Getenv("CAPTCHA_SECRET"),
		CaptchaVerifyURL: os.Getenv("CAPTCHA_VERIFY_URL"),
		CaptchaDisabled:  envBool("CAPTCHA_DISABLED", false),

		AMQPURL: firstEnv("RABBITMQ_URL", "AMQP_URL"),

		MetricsEnabled: envBool("METRICS_ENABLED", true),
		CORSOrigins:    envList("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func (c Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envList(k, d string) []string {
	var out []string
	for _, p := range strings.Split(envStr(k, d), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
