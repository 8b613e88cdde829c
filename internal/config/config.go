package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/tjfontaine/advisor-gateway/internal/gateway"
)

// EnvPrefix prefixes every environment override; "__" separates levels,
// e.g. ADVISOR_GEMINI__API_KEY sets gemini.api_key.
const EnvPrefix = "ADVISOR_"

// DefaultPath is read when it exists.
const DefaultPath = "config.yaml"

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Gateway      GatewayConfig      `koanf:"gateway"`
	Gemini       GeminiConfig       `koanf:"gemini"`
	DeepSeek     DeepSeekConfig     `koanf:"deepseek"`
	Sarvam       SarvamConfig       `koanf:"sarvam"`
	Localization LocalizationConfig `koanf:"localization"`
	Storage      StorageConfig      `koanf:"storage"`
	Auth         AuthConfig         `koanf:"auth"`
}

type ServerConfig struct {
	Port               int           `koanf:"port"`
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute"`
	RequestTimeout     time.Duration `koanf:"request_timeout"`
}

type GatewayConfig struct {
	Strategy         string        `koanf:"strategy"`      // discovery-fallback, dual-compose
	ResponseMode     string        `koanf:"response_mode"` // stream, json
	StreamDelay      time.Duration `koanf:"stream_delay"`
	DefaultLanguage  string        `koanf:"default_language"`
	MaxHistoryTokens int           `koanf:"max_history_tokens"`
}

type GeminiConfig struct {
	APIKey       string `koanf:"api_key"`
	BaseURL      string `koanf:"base_url"`
	FixedModel   string `koanf:"fixed_model"`   // used by dual-compose
	FixedVersion string `koanf:"fixed_version"` // used by dual-compose
}

type DeepSeekConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
}

type SarvamConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type LocalizationConfig struct {
	CacheSize int `koanf:"cache_size"`
	ChunkSize int `koanf:"chunk_size"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory, none
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

var defaults = map[string]any{
	"server.port":                  8080,
	"server.cors_origins":          []string{"*"},
	"server.rate_limit_per_minute": 60,
	"server.request_timeout":       "30s",
	"gateway.strategy":             string(gateway.StrategyDiscoveryFallback),
	"gateway.response_mode":        string(gateway.ResponseModeStream),
	"gateway.stream_delay":         "50ms",
	"gateway.default_language":     "en-IN",
	"gateway.max_history_tokens":   6000,
	"gemini.fixed_model":           "gemini-1.5-flash",
	"gemini.fixed_version":         "v1beta",
	"deepseek.model":               "deepseek-chat",
	"localization.cache_size":      1024,
	"localization.chunk_size":      800,
	"storage.type":                 "sqlite",
	"storage.sqlite.path":          "advisor.db",
}

// Unprefixed variables the web app already uses for its credentials. They
// are consulted only when the prefixed key is unset.
var credentialFallbacks = map[string][]string{
	"gemini.api_key":   {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	"deepseek.api_key": {"DEEPSEEK_API_KEY"},
	"sarvam.api_key":   {"SARVAM_API_KEY"},
	"auth.jwt_secret":  {"JWT_SECRET"},
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads DefaultPath when present, then environment overrides.
func Load() (*Config, error) {
	return LoadFile(DefaultPath)
}

// LoadFile reads path (a missing file is fine), applies ADVISOR_ environment
// overrides and defaults, and validates the result.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// File not found is OK, we'll use env vars
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to load %s: %w", path, err)
			}
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	for key, vars := range credentialFallbacks {
		if k.String(key) != "" {
			continue
		}
		for _, name := range vars {
			if v := os.Getenv(name); v != "" {
				k.Set(key, v)
				break
			}
		}
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Gemini.APIKey = substituteEnvVars(cfg.Gemini.APIKey)
	cfg.DeepSeek.APIKey = substituteEnvVars(cfg.DeepSeek.APIKey)
	cfg.Sarvam.APIKey = substituteEnvVars(cfg.Sarvam.APIKey)
	cfg.Auth.JWTSecret = substituteEnvVars(cfg.Auth.JWTSecret)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	strategy, err := gateway.ParseStrategy(c.Gateway.Strategy)
	if err != nil {
		errs = append(errs, err)
	}
	if _, err := gateway.ParseResponseMode(c.Gateway.ResponseMode); err != nil {
		errs = append(errs, err)
	}

	if c.Gemini.APIKey == "" {
		errs = append(errs, errors.New("gemini.api_key is required"))
	}
	if strategy == gateway.StrategyDualCompose && c.DeepSeek.APIKey == "" {
		errs = append(errs, errors.New("deepseek.api_key is required for the dual-compose strategy"))
	}
	if c.Sarvam.APIKey == "" {
		errs = append(errs, errors.New("sarvam.api_key is required"))
	}

	switch c.Storage.Type {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			errs = append(errs, errors.New("storage.sqlite.path is required for sqlite storage"))
		}
	case "memory", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown storage.type %q", c.Storage.Type))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server.port %d", c.Server.Port))
	}
	if c.Gateway.StreamDelay < 0 {
		errs = append(errs, errors.New("gateway.stream_delay must not be negative"))
	}

	return errors.Join(errs...)
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
