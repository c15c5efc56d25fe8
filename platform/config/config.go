// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetAPIRateLimit() int
	GetAPIRateWindow() time.Duration
	GetChatRateLimit() int
}

// RedisConfig provides settings for the optional Redis connection.
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// AssistantConfig provides settings for the chat assistant and its model provider.
type AssistantConfig interface {
	GetGroqAPIKey() string
	GetGroqBaseURL() string
	GetGroqModel() string
	IsAssistantEnabled() bool
	GetAssistantTemperature() float64
	GetAssistantMaxTokens() int
	GetAssistantLanguage() string
	GetAssistantHistoryWindow() int
	GetAssistantSessionMaxTurns() int
	GetAssistantSessionTTL() time.Duration
	GetAssistantActionTokenTTL() time.Duration
	GetAssistantRequireActionToken() bool
}

// PhoneConfig provides the region used to interpret national phone numbers.
type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                         string
	HTTPAddr                    string
	DatabaseURL                 string
	JWTAccessSecret             string
	AccessTokenTTL              time.Duration
	CORSAllowAll                bool
	CORSOrigins                 []string
	CORSAllowCreds              bool
	APIRateLimit                int
	APIRateWindow               time.Duration
	ChatRateLimit               int
	RedisURL                    string
	GroqAPIKey                  string
	GroqBaseURL                 string
	GroqModel                   string
	AssistantTemperature        float64
	AssistantMaxTokens          int
	AssistantLanguage           string
	AssistantHistoryWindow      int
	AssistantSessionMaxTurns    int
	AssistantSessionTTL         time.Duration
	AssistantActionTokenTTL     time.Duration
	AssistantRequireActionToken bool
	PhoneDefaultRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string             { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool           { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string        { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool         { return c.CORSAllowCreds }
func (c *Config) GetAPIRateLimit() int            { return c.APIRateLimit }
func (c *Config) GetAPIRateWindow() time.Duration { return c.APIRateWindow }
func (c *Config) GetChatRateLimit() int           { return c.ChatRateLimit }

// RedisConfig implementation
func (c *Config) GetRedisURL() string  { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool { return c.RedisURL != "" }

// AssistantConfig implementation
func (c *Config) GetGroqAPIKey() string                     { return c.GroqAPIKey }
func (c *Config) GetGroqBaseURL() string                    { return c.GroqBaseURL }
func (c *Config) GetGroqModel() string                      { return c.GroqModel }
func (c *Config) IsAssistantEnabled() bool                  { return c.GroqAPIKey != "" }
func (c *Config) GetAssistantTemperature() float64          { return c.AssistantTemperature }
func (c *Config) GetAssistantMaxTokens() int                { return c.AssistantMaxTokens }
func (c *Config) GetAssistantLanguage() string              { return c.AssistantLanguage }
func (c *Config) GetAssistantHistoryWindow() int            { return c.AssistantHistoryWindow }
func (c *Config) GetAssistantSessionMaxTurns() int          { return c.AssistantSessionMaxTurns }
func (c *Config) GetAssistantSessionTTL() time.Duration     { return c.AssistantSessionTTL }
func (c *Config) GetAssistantActionTokenTTL() time.Duration { return c.AssistantActionTokenTTL }
func (c *Config) GetAssistantRequireActionToken() bool      { return c.AssistantRequireActionToken }

// PhoneConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

var supportedLanguages = map[string]bool{"fr": true, "en": true}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                         getEnv("APP_ENV", "development"),
		HTTPAddr:                    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		JWTAccessSecret:             getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:              mustDuration(getEnv("JWT_ACCESS_TTL", "168h")),
		CORSAllowAll:                corsAllowAll,
		CORSOrigins:                 corsOrigins,
		CORSAllowCreds:              strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		APIRateLimit:                mustInt(getEnv("API_RATE_LIMIT_PER_WINDOW", "1000")),
		APIRateWindow:               mustDuration(getEnv("API_RATE_LIMIT_WINDOW", "15m")),
		ChatRateLimit:               mustInt(getEnv("ASSISTANT_CHAT_RATE_LIMIT_PER_MINUTE", "20")),
		RedisURL:                    getEnv("REDIS_URL", ""),
		GroqAPIKey:                  getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:                 getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:                   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		AssistantTemperature:        mustFloat(getEnv("ASSISTANT_TEMPERATURE", "0.7")),
		AssistantMaxTokens:          mustInt(getEnv("ASSISTANT_MAX_TOKENS", "1024")),
		AssistantLanguage:           strings.ToLower(getEnv("ASSISTANT_LANGUAGE", "fr")),
		AssistantHistoryWindow:      mustInt(getEnv("ASSISTANT_HISTORY_WINDOW", "10")),
		AssistantSessionMaxTurns:    mustInt(getEnv("ASSISTANT_SESSION_MAX_TURNS", "50")),
		AssistantSessionTTL:         mustDuration(getEnv("ASSISTANT_SESSION_TTL", "24h")),
		AssistantActionTokenTTL:     mustDuration(getEnv("ASSISTANT_ACTION_TOKEN_TTL", "15m")),
		AssistantRequireActionToken: strings.EqualFold(getEnv("ASSISTANT_REQUIRE_ACTION_TOKEN", "true"), "true"),
		PhoneDefaultRegion:          strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "FR")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if !cfg.CORSAllowAll && len(cfg.CORSOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ORIGINS must list at least one origin unless CORS_ALLOW_ALL is true")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if !supportedLanguages[cfg.AssistantLanguage] {
		return nil, fmt.Errorf("ASSISTANT_LANGUAGE %q is not supported", cfg.AssistantLanguage)
	}
	if cfg.AssistantHistoryWindow <= 0 {
		return nil, fmt.Errorf("ASSISTANT_HISTORY_WINDOW must be positive")
	}
	if cfg.AssistantActionTokenTTL <= 0 || cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TTL and ASSISTANT_ACTION_TOKEN_TTL must be valid durations")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
