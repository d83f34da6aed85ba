// Package config loads the workbench configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"policy_workbench/generator"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "config/config.yaml"

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Export   ExportConfig   `yaml:"export"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

// LLMConfig 模型调用相关配置。
type LLMConfig struct {
	Provider        string `yaml:"provider"`
	Model           string `yaml:"model"`
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	SessionTTL  string   `yaml:"session_ttl"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	JSON       bool   `yaml:"json"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type ExportConfig struct {
	// FontPath is a TrueType font used for PDF export; empty means the built-in font.
	FontPath string `yaml:"font_path"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// ValidProviders lists the supported LLM providers.
var ValidProviders = []string{"openai", "deepseek", "gemini", "mock"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:        "openai",
			Model:           "gpt-4o-2024-08-06",
			Timeout:         "120s",
			MaxOutputTokens: 3200,
		},
		Database: DatabaseConfig{Path: "data/meetings.db"},
		Server: ServerConfig{
			Addr:        ":8080",
			SessionTTL:  "2h",
			CORSOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		Tracing: TracingConfig{ServiceName: "policy-workbench"},
	}
}

// Load reads the YAML file at path (a missing file yields the defaults), loads .env
// when present and applies environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("LLM_PROVIDER"); p != "" {
		c.LLM.Provider = strings.ToLower(p)
	}
	if m := os.Getenv("LLM_MODEL"); m != "" {
		c.LLM.Model = m
	}
	if u := os.Getenv("LLM_BASE_URL"); u != "" {
		c.LLM.BaseURL = u
	}

	// the key variable depends on the provider
	switch c.LLM.Provider {
	case "gemini":
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	}

	if p := os.Getenv("WORKBENCH_DB_PATH"); p != "" {
		c.Database.Path = p
	}
	if a := os.Getenv("WORKBENCH_ADDR"); a != "" {
		c.Server.Addr = a
	}
	if os.Getenv("WORKBENCH_ENV") == "production" {
		c.Log.JSON = true
	}
	if f := os.Getenv("WORKBENCH_LOG_FILE"); f != "" {
		c.Log.File = f
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = on
		}
	}
	if e := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); e != "" {
		c.Tracing.Endpoint = e
	}
}

// Validate rejects configurations the workbench cannot start with.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.LLM.Provider) {
		return fmt.Errorf("invalid LLM provider: %q (valid: %v)", c.LLM.Provider, ValidProviders)
	}
	if c.LLM.Provider != "mock" {
		if c.LLM.APIKey == "" {
			return errors.New("LLM API key not configured (set OPENAI_API_KEY or GEMINI_API_KEY, or llm.api_key)")
		}
		if c.LLM.Model == "" {
			return errors.New("llm.model is required")
		}
	}
	if c.LLM.MaxOutputTokens <= 0 {
		return fmt.Errorf("llm.max_output_tokens must be positive, got %d", c.LLM.MaxOutputTokens)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
	}
	if _, err := time.ParseDuration(c.Server.SessionTTL); err != nil {
		return fmt.Errorf("invalid server.session_ttl %q: %w", c.Server.SessionTTL, err)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Log.Level != "" && !contains(validLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log.level %q (valid: %v)", c.Log.Level, validLogLevels)
	}
	return nil
}

// GetLLMTimeout returns the per-call provider timeout.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 2 * time.Hour
	}
	return d
}

// LLMSettings converts the llm section for generator.NewLLM.
func (c *Config) LLMSettings() *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
