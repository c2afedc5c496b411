package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	TrendsBase  string
	TrendsKey   string
	JWTSecret   string
	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	MailFrom    string
	PushURL     string
	NatsURL     string
	SeedDir     string
	Workers     int
	CacheTTL    time.Duration
	BookingHold time.Duration
	OTPTTL      time.Duration
}

func Load() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/stayhub?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		TrendsBase:  env("TRENDS_BASE_URL", "http://localhost:9200/v1"),
		TrendsKey:   env("TRENDS_API_KEY", ""),
		JWTSecret:   env("JWT_SECRET", ""),
		SMTPHost:    env("SMTP_HOST", "localhost"),
		SMTPPort:    atoi("SMTP_PORT", 465),
		SMTPUser:    env("SMTP_USER", ""),
		SMTPPass:    env("SMTP_PASS", ""),
		MailFrom:    env("MAIL_FROM", "no-reply@stayhub.local"),
		PushURL:     env("PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		NatsURL:     env("NATS_URL", ""),
		SeedDir:     env("SEED_DIR", "./fixtures"),
		Workers:     atoi("SEED_WORKERS", 8),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		BookingHold: time.Duration(atoi("BOOKING_HOLD_HOURS", 48)) * time.Hour,
		OTPTTL:      time.Duration(atoi("OTP_TTL_MINUTES", 10)) * time.Minute,
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
