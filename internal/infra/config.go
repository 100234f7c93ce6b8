package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv  string
	Port    string
	AppURL  string
	LogJSON bool

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OpenRouterAPIKey  string
	OpenRouterModel   string
	OpenRouterBaseURL string
	OpenRouterTitle   string

	ImageMaxAttempts int
	ImageRetryBase   time.Duration

	StaticDir          string
	CORSAllowedOrigins []string
	RateLimitPerMin    int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// API keys are optional here; a missing key surfaces on the request that needs it.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		AppURL:             strings.TrimSpace(os.Getenv("APP_URL")),
		LogJSON:            getEnvBool("LOG_JSON", false),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash-image-preview"),
		GeminiBaseURL:      getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenRouterAPIKey:   os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:    getEnv("OPENROUTER_MODEL", "deepseek/deepseek-chat-v3.1"),
		OpenRouterBaseURL:  getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterTitle:    getEnv("OPENROUTER_APP_TITLE", "PetAI Studio"),
		ImageMaxAttempts:   getEnvInt("IMAGE_MAX_ATTEMPTS", 3),
		ImageRetryBase:     time.Millisecond * time.Duration(getEnvInt("IMAGE_RETRY_BASE_MS", 1000)),
		StaticDir:          getEnv("STATIC_DIR", "public"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMin:    getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:   time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:    time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.ImageMaxAttempts < 1 {
		return nil, fmt.Errorf("IMAGE_MAX_ATTEMPTS must be at least 1")
	}

	if cfg.ImageRetryBase <= 0 {
		return nil, fmt.Errorf("IMAGE_RETRY_BASE_MS must be positive")
	}

	if cfg.AppURL != "" {
		if _, err := url.Parse(AppOrigin(cfg.AppURL)); err != nil {
			return nil, fmt.Errorf("APP_URL is invalid: %w", err)
		}
	}

	return cfg, nil
}

// Referer returns the origin sent to upstream providers from outside an HTTP
// request, e.g. by the CLI.
func (c *Config) Referer() string {
	host := c.AppURL
	if host == "" {
		host = "localhost:3000"
	}
	return AppOrigin(host)
}

// AppOrigin turns a bare host into an origin. Hosts starting with localhost
// use http, everything else https. Values that already carry a scheme are
// returned unchanged.
func AppOrigin(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	if strings.HasPrefix(host, "localhost") {
		return "http://" + host
	}
	return "https://" + host
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
