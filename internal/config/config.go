package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLMProvider     string `yaml:"llm_provider"`
	LLMModel        string `yaml:"llm_model"`
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`

	CategoryColumn string `yaml:"category_column"`
	Concurrency    int    `yaml:"classify_concurrency"`

	CacheDBPath string `yaml:"cache_db_path"`
	OutputDir   string `yaml:"output_dir"`

	RowsPerBatch int `yaml:"rows_per_batch"`

	WebAddr     string `yaml:"web_addr"`
	WebPassword string `yaml:"web_password"`
}

const (
	defaultOpenAIModel    = "gpt-4"
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
)

// Load reads config.yaml (or CONFIG_PATH), applies env overrides, then
// defaults. A missing config file is fine: everything has an env var or a
// default, and API keys may be supplied interactively by the CLI.
func Load() (Config, error) {
	var cfg Config

	// A .env next to the binary is a convenience for API keys.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", configPath, err)
		}
		log.Printf("config loaded from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	envOverride(&cfg.LLMModel, "LLM_MODEL")
	envOverride(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.CategoryColumn, "CATEGORY_COLUMN")
	envOverrideInt(&cfg.Concurrency, "CLASSIFY_CONCURRENCY")
	envOverride(&cfg.CacheDBPath, "CACHE_DB_PATH")
	envOverride(&cfg.OutputDir, "OUTPUT_DIR")
	envOverrideInt(&cfg.RowsPerBatch, "ROWS_PER_BATCH")
	envOverride(&cfg.WebAddr, "WEB_ADDR")
	envOverride(&cfg.WebPassword, "WEB_PASSWORD")

	// Defaults
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "openai"
	}
	if cfg.LLMModel == "" {
		switch cfg.LLMProvider {
		case "anthropic":
			cfg.LLMModel = defaultAnthropicModel
		default:
			cfg.LLMModel = defaultOpenAIModel
		}
	}
	if cfg.CategoryColumn == "" {
		cfg.CategoryColumn = "category"
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 10
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.RowsPerBatch == 0 {
		cfg.RowsPerBatch = 40000
	}
	if cfg.WebAddr == "" {
		cfg.WebAddr = ":8080"
	}

	switch cfg.LLMProvider {
	case "openai", "anthropic":
	default:
		return Config{}, fmt.Errorf("llm_provider must be 'openai' or 'anthropic', got '%s'", cfg.LLMProvider)
	}
	if cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("invalid classify_concurrency '%d': must be >= 1", cfg.Concurrency)
	}
	if cfg.RowsPerBatch < 1 {
		return Config{}, fmt.Errorf("invalid rows_per_batch '%d': must be >= 1", cfg.RowsPerBatch)
	}

	return cfg, nil
}

// APIKey returns the credential for the configured provider.
func (c Config) APIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

// SetAPIKey stores a credential obtained interactively.
func (c *Config) SetAPIKey(key string) {
	if c.LLMProvider == "anthropic" {
		c.AnthropicAPIKey = key
		return
	}
	c.OpenAIAPIKey = key
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
