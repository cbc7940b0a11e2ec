package config

import (
	"os"
	"strconv"

	"relieflink/services"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Environment string
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	BaseURL     string

	// Broadcast Settings
	BroadcastWorkers          int
	BroadcastRecipientTimeout int // seconds

	// App Settings
	RateLimitRequest  int
	RateLimitWindow   int // minutes
	AnalyticsCacheTTL int // seconds

	EmailProvider string

	// SMTP Settings
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

func Load() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "mongodb://localhost:27017/relieflink"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		// Broadcast settings
		BroadcastWorkers:          getEnvAsInt("BROADCAST_WORKERS", 8),
		BroadcastRecipientTimeout: getEnvAsInt("BROADCAST_RECIPIENT_TIMEOUT_SECONDS", 10),

		// App Settings
		RateLimitRequest:  getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 1),
		AnalyticsCacheTTL: getEnvAsInt("ANALYTICS_CACHE_TTL_SECONDS", 300),

		// Email settings
		EmailProvider: getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", "alerts@relieflink.app"),
	}
}

func InitRedis(cfg *Config) *redis.Client {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// Fallback to default config
		opt = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	client := redis.NewClient(opt)
	return client
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// InitEmailService initializes the email service based on configuration
func (c *Config) InitEmailService() services.EmailService {
	switch c.EmailProvider {
	case "smtp":
		if c.SMTPUsername == "" || c.SMTPPassword == "" {
			logrus.Warn("SMTP credentials not configured, using mock email service")
			return services.NewMockEmailService()
		}
		return services.NewSMTPEmailService(
			c.SMTPHost,
			c.SMTPPort,
			c.SMTPUsername,
			c.SMTPPassword,
			c.SMTPFrom,
			c.BaseURL,
		)
	case "mock":
		return services.NewMockEmailService()
	default:
		logrus.Warn("Unknown email provider, using mock email service")
		return services.NewMockEmailService()
	}
}
