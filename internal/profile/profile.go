package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
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
	// DSN points to where botgpt stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// LLM Configuration
	LLMAPIKey    string        // BOTGPT_LLM_API_KEY (legacy: GROQ_API_KEY)
	LLMBaseURL   string        // BOTGPT_LLM_BASE_URL (default: https://api.groq.com/openai/v1)
	LLMModel     string        // BOTGPT_LLM_MODEL (default: llama-3.1-8b-instant)
	LLMMaxTokens int           // BOTGPT_LLM_MAX_TOKENS (default: 1000)
	LLMTimeout   time.Duration // BOTGPT_LLM_TIMEOUT (default: 60s)

	// LLMRateLimit caps outbound model calls per second for the process; 0 disables it.
	LLMRateLimit float64 // BOTGPT_LLM_RATE_LIMIT (default: 0)
	LLMRateBurst int     // BOTGPT_LLM_RATE_BURST (default: 1)

	// ContextBudget is the estimated-token ceiling for a model call.
	ContextBudget int // BOTGPT_CONTEXT_BUDGET (default: 4000)

	// Cache Configuration
	RedisURL string        // BOTGPT_REDIS_URL (legacy: REDIS_URL); empty uses the in-memory cache
	CacheTTL time.Duration // BOTGPT_CACHE_TTL (default: 1h)

	// SerializeAppends serializes concurrent message additions per conversation.
	SerializeAppends bool // BOTGPT_SERIALIZE_APPENDS (default: true)
}

// Defaults applied by FromEnv when the variable is unset or malformed.
const (
	DefaultLLMBaseURL    = "https://api.groq.com/openai/v1"
	DefaultLLMModel      = "llama-3.1-8b-instant"
	DefaultLLMMaxTokens  = 1000
	DefaultLLMTimeout    = 60 * time.Second
	DefaultContextBudget = 4000
	DefaultCacheTTL      = time.Hour
	DefaultLLMRateBurst  = 1
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMConfigured returns true if an API key is available for the model provider.
func (p *Profile) IsLLMConfigured() bool {
	return p.LLMAPIKey != ""
}

// getEnvWithFallback returns the first non-empty value among the keys.
func getEnvWithFallback(keys ...string) string {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	return ""
}

// getEnvWithDefault returns the environment variable value or the default value.
func getEnvWithDefault(key, legacyKey, defaultValue string) string {
	if val := getEnvWithFallback(key, legacyKey); val != "" {
		return val
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		slog.Warn("ignoring invalid integer env value", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

func getFloatEnv(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		slog.Warn("ignoring invalid float env value", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		slog.Warn("ignoring invalid duration env value", "key", key, "value", raw)
		return defaultValue
	}
	return v
}

// FromEnv loads configuration from environment variables.
// BOTGPT_* variables take precedence over the legacy GROQ_API_KEY,
// REDIS_URL and DATABASE_URL variables.
func (p *Profile) FromEnv() {
	if v := os.Getenv("BOTGPT_MODE"); v != "" {
		p.Mode = v
	}
	if v := os.Getenv("BOTGPT_ADDR"); v != "" {
		p.Addr = v
	}
	if v := os.Getenv("BOTGPT_PORT"); v != "" {
		p.Port = getIntEnv("BOTGPT_PORT", p.Port)
	}
	if v := os.Getenv("BOTGPT_DATA"); v != "" {
		p.Data = v
	}
	if v := os.Getenv("BOTGPT_DRIVER"); v != "" {
		p.Driver = v
	}
	if v := getEnvWithFallback("BOTGPT_DSN", "DATABASE_URL"); v != "" {
		p.DSN = v
	}

	p.LLMAPIKey = getEnvWithFallback("BOTGPT_LLM_API_KEY", "GROQ_API_KEY")
	p.LLMBaseURL = getEnvWithDefault("BOTGPT_LLM_BASE_URL", "", DefaultLLMBaseURL)
	p.LLMModel = getEnvWithDefault("BOTGPT_LLM_MODEL", "", DefaultLLMModel)
	p.LLMMaxTokens = getIntEnv("BOTGPT_LLM_MAX_TOKENS", DefaultLLMMaxTokens)
	p.LLMTimeout = getDurationEnv("BOTGPT_LLM_TIMEOUT", DefaultLLMTimeout)
	p.LLMRateLimit = getFloatEnv("BOTGPT_LLM_RATE_LIMIT", 0)
	p.LLMRateBurst = getIntEnv("BOTGPT_LLM_RATE_BURST", DefaultLLMRateBurst)
	p.ContextBudget = getIntEnv("BOTGPT_CONTEXT_BUDGET", DefaultContextBudget)

	p.RedisURL = getEnvWithFallback("BOTGPT_REDIS_URL", "REDIS_URL")
	p.CacheTTL = getDurationEnv("BOTGPT_CACHE_TTL", DefaultCacheTTL)
	p.SerializeAppends = getEnvWithDefault("BOTGPT_SERIALIZE_APPENDS", "", "true") == "true"
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		absDir, err := filepath.Abs(dataDir)
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
		return errors.Errorf("unsupported driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("botgpt_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.ContextBudget <= 0 {
		p.ContextBudget = DefaultContextBudget
	}
	if p.CacheTTL <= 0 {
		p.CacheTTL = DefaultCacheTTL
	}

	return nil
}
