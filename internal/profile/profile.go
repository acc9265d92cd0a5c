package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where chronolog stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your chronolog instance, used for feed links.
	InstanceURL string

	LogLevel  string // CHRONOLOG_LOG_LEVEL (default: info)
	LogFormat string // CHRONOLOG_LOG_FORMAT (default: text)

	// DefaultTimezone is used when a request carries neither an offset nor a timezone.
	DefaultTimezone string // CHRONOLOG_TIMEZONE (default: UTC)

	// Calendar names per category.
	CalendarProd    string // CHRONOLOG_CALENDAR_PROD (default: Productive)
	CalendarNonProd string // CHRONOLOG_CALENDAR_NONPROD (default: Non-Productive)
	CalendarAdmin   string // CHRONOLOG_CALENDAR_ADMIN (default: Admin & Rest)

	// AI Configuration
	AIEnabled         bool   // CHRONOLOG_AI_ENABLED
	AILLMProvider     string // CHRONOLOG_AI_LLM_PROVIDER (default: deepseek)
	AIDeepSeekAPIKey  string // CHRONOLOG_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL string // CHRONOLOG_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AIOpenAIAPIKey    string // CHRONOLOG_AI_OPENAI_API_KEY
	AIOpenAIBaseURL   string // CHRONOLOG_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIOllamaBaseURL   string // CHRONOLOG_AI_OLLAMA_BASE_URL (default: http://localhost:11434)
	AILLMModel        string // CHRONOLOG_AI_LLM_MODEL (default: deepseek-chat)
	AIMaxConcurrency  int    // CHRONOLOG_AI_MAX_CONCURRENCY (default: 4)
	AICacheTTL        time.Duration

	// JWTSecret enables bearer-token auth on the API when set.
	JWTSecret string // CHRONOLOG_JWT_SECRET

	RateLimitPerSecond float64 // CHRONOLOG_RATE_LIMIT (default: 10)
	RateLimitBurst     int     // CHRONOLOG_RATE_BURST (default: 20)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and at least one API key or base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIOpenAIAPIKey != "" || p.AIDeepSeekAPIKey != "" || (p.AILLMProvider == "ollama" && p.AIOllamaBaseURL != ""))
}

// Calendars returns the configured calendar names keyed by category.
func (p *Profile) Calendars() map[string]string {
	return map[string]string{
		"prod":    p.CalendarProd,
		"nonprod": p.CalendarNonProd,
		"admin":   p.CalendarAdmin,
	}
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

// FromEnv loads configuration from CHRONOLOG_* environment variables.
// Fields already set (for example by command-line flags) are kept.
func (p *Profile) FromEnv() {
	setDefault := func(field *string, key, defaultValue string) {
		if *field == "" {
			*field = getEnvOrDefault(key, defaultValue)
		}
	}

	setDefault(&p.LogLevel, "CHRONOLOG_LOG_LEVEL", "info")
	setDefault(&p.LogFormat, "CHRONOLOG_LOG_FORMAT", "text")
	setDefault(&p.DefaultTimezone, "CHRONOLOG_TIMEZONE", "UTC")

	setDefault(&p.CalendarProd, "CHRONOLOG_CALENDAR_PROD", "Productive")
	setDefault(&p.CalendarNonProd, "CHRONOLOG_CALENDAR_NONPROD", "Non-Productive")
	setDefault(&p.CalendarAdmin, "CHRONOLOG_CALENDAR_ADMIN", "Admin & Rest")

	if !p.AIEnabled {
		p.AIEnabled = os.Getenv("CHRONOLOG_AI_ENABLED") == "true"
	}
	setDefault(&p.AILLMProvider, "CHRONOLOG_AI_LLM_PROVIDER", "deepseek")
	setDefault(&p.AIDeepSeekAPIKey, "CHRONOLOG_AI_DEEPSEEK_API_KEY", "")
	setDefault(&p.AIDeepSeekBaseURL, "CHRONOLOG_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	setDefault(&p.AIOpenAIAPIKey, "CHRONOLOG_AI_OPENAI_API_KEY", "")
	setDefault(&p.AIOpenAIBaseURL, "CHRONOLOG_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	setDefault(&p.AIOllamaBaseURL, "CHRONOLOG_AI_OLLAMA_BASE_URL", "http://localhost:11434")
	setDefault(&p.AILLMModel, "CHRONOLOG_AI_LLM_MODEL", "deepseek-chat")
	if p.AIMaxConcurrency <= 0 {
		p.AIMaxConcurrency = getIntEnvOrDefault("CHRONOLOG_AI_MAX_CONCURRENCY", 4)
	}
	if p.AICacheTTL <= 0 {
		p.AICacheTTL = 10 * time.Minute
		if d, err := time.ParseDuration(os.Getenv("CHRONOLOG_AI_CACHE_TTL")); err == nil && d > 0 {
			p.AICacheTTL = d
		}
	}

	setDefault(&p.JWTSecret, "CHRONOLOG_JWT_SECRET", "")

	if p.RateLimitPerSecond <= 0 {
		p.RateLimitPerSecond = 10
		if v, err := strconv.ParseFloat(os.Getenv("CHRONOLOG_RATE_LIMIT"), 64); err == nil && v > 0 {
			p.RateLimitPerSecond = v
		}
	}
	if p.RateLimitBurst <= 0 {
		p.RateLimitBurst = getIntEnvOrDefault("CHRONOLOG_RATE_BURST", 20)
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}
	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported driver %q", p.Driver)
	}
	if _, err := time.LoadLocation(p.DefaultTimezone); err != nil {
		return errors.Wrapf(err, "invalid default timezone %q", p.DefaultTimezone)
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "chronolog")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/chronolog"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("chronolog_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("postgres driver requires a DSN")
	}

	return nil
}
