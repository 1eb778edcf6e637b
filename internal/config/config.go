package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds every tunable of the service. Values come from an optional
// YAML file (CONFIG_PATH) and are then overridden by environment variables.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCHealthAddr  string        `yaml:"grpc_health_addr"`
	GinMode         string        `yaml:"gin_mode"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Vision          VisionConfig  `yaml:"vision"`
	Image           ImageConfig   `yaml:"image"`
}

// VisionConfig selects and tunes the upstream vision model.
type VisionConfig struct {
	Provider      string        `yaml:"provider"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"api_key"`
	BaseURL       string        `yaml:"base_url"`
	MaxTokens     int           `yaml:"max_tokens"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
}

// ImageConfig controls how uploads are prepared before they are sent upstream.
type ImageConfig struct {
	MaxDimension uint `yaml:"max_dimension"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCHealthAddr:  ":9090",
		GinMode:         "release",
		LogLevel:        "info",
		ShutdownTimeout: 15 * time.Second,
		Vision: VisionConfig{
			Provider:      ProviderOpenAI,
			MaxTokens:     500,
			RetryAttempts: 1,
		},
		Image: ImageConfig{
			MaxDimension: 1024,
		},
	}
}

// Load reads the YAML file at path (skipped when path is empty) on top of the
// defaults and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCHealthAddr = getEnv("GRPC_HEALTH_ADDR", cfg.GRPCHealthAddr)
	cfg.GinMode = getEnv("GIN_MODE", cfg.GinMode)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Vision.Provider = strings.ToLower(getEnv("VISION_PROVIDER", cfg.Vision.Provider))
	cfg.Vision.Model = getEnv("VISION_MODEL", cfg.Vision.Model)
	switch cfg.Vision.Provider {
	case ProviderGemini:
		cfg.Vision.APIKey = getEnv("GEMINI_API_KEY", cfg.Vision.APIKey)
		cfg.Vision.BaseURL = getEnv("GEMINI_BASE_URL", cfg.Vision.BaseURL)
	default:
		cfg.Vision.APIKey = getEnv("OPENAI_API_KEY", cfg.Vision.APIKey)
		cfg.Vision.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Vision.BaseURL)
	}

	var err error
	if cfg.ShutdownTimeout, err = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return err
	}
	if cfg.Vision.Timeout, err = getDurationEnv("VISION_TIMEOUT", cfg.Vision.Timeout); err != nil {
		return err
	}
	if cfg.Vision.MaxTokens, err = getIntEnv("VISION_MAX_TOKENS", cfg.Vision.MaxTokens); err != nil {
		return err
	}
	if cfg.Vision.RetryAttempts, err = getIntEnv("VISION_RETRY_ATTEMPTS", cfg.Vision.RetryAttempts); err != nil {
		return err
	}
	maxDimension, err := getIntEnv("IMAGE_MAX_DIMENSION", int(cfg.Image.MaxDimension))
	if err != nil {
		return err
	}
	if maxDimension < 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must not be negative, got %d", maxDimension)
	}
	cfg.Image.MaxDimension = uint(maxDimension)
	return nil
}

// Validate reports configuration that would make the service unusable.
func (c Config) Validate() error {
	switch c.Vision.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported vision provider %q", c.Vision.Provider)
	}
	if strings.TrimSpace(c.Vision.APIKey) == "" {
		return errors.New("vision API key is required")
	}
	if c.Vision.MaxTokens <= 0 {
		return fmt.Errorf("vision max tokens must be positive, got %d", c.Vision.MaxTokens)
	}
	if c.Vision.RetryAttempts < 1 {
		return fmt.Errorf("vision retry attempts must be at least 1, got %d", c.Vision.RetryAttempts)
	}
	if c.Vision.Timeout < 0 {
		return fmt.Errorf("vision timeout must not be negative, got %s", c.Vision.Timeout)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
