package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every external dependency the service needs. Credentials
// live here so the requirement is visible at wiring time instead of being an
// implicit env read deep inside a service.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Telegram      TelegramConfig
	Gemini        GeminiConfig
	Places        PlacesConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RecommendTimeout   time.Duration // end-to-end deadline for one pipeline run
	RateLimitPerSecond int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN builds the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type TelegramConfig struct {
	BotToken       string
	JWTSecret      string
	TokenTTL       time.Duration
	InitDataMaxAge time.Duration
	AdminIDs       []string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type PlacesConfig struct {
	APIKey string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
}

// Load reads configuration from the environment, with .env as a convenience
// for local development. Missing optional values fall back to defaults;
// credential checks are deferred to the components that need them so the
// service can still boot for surfaces that don't.
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout:    getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RecommendTimeout:   getDuration("RECOMMEND_TIMEOUT", 25*time.Second),
			RateLimitPerSecond: getInt("RATE_LIMIT_PER_SECOND", 10),
			RateLimitBurst:     getInt("RATE_LIMIT_BURST", 20),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "eatwatah"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Telegram: TelegramConfig{
			BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			JWTSecret:      os.Getenv("WEBAPP_JWT_SECRET"),
			TokenTTL:       getDuration("WEBAPP_TOKEN_TTL", 30*time.Minute),
			InitDataMaxAge: getDuration("WEBAPP_INITDATA_MAX_AGE", time.Hour),
			AdminIDs:       splitList(os.Getenv("ADMIN_TELEGRAM_IDS")),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Places: PlacesConfig{
			APIKey: os.Getenv("GOOGLE_PLACES_API_KEY"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getBool("METRICS_ENABLED", true),
		},
	}

	if cfg.Database.User == "" || cfg.Database.Name == "" {
		return nil, fmt.Errorf("database configuration incomplete: DB_USER and DB_NAME are required")
	}

	return cfg, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
