package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("VISION_MAX_TOKENS", "256")
	t.Setenv("VISION_TIMEOUT", "20s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.Vision.Provider != ProviderOpenAI {
		t.Fatalf("expected default provider, got %q", cfg.Vision.Provider)
	}
	if cfg.Vision.APIKey != "sk-test" {
		t.Fatalf("expected api key from env, got %q", cfg.Vision.APIKey)
	}
	if cfg.Vision.MaxTokens != 256 {
		t.Fatalf("expected max tokens 256, got %d", cfg.Vision.MaxTokens)
	}
	if cfg.Vision.Timeout != 20*time.Second {
		t.Fatalf("expected timeout 20s, got %s", cfg.Vision.Timeout)
	}
	if cfg.Vision.RetryAttempts != 1 {
		t.Fatalf("expected single attempt by default, got %d", cfg.Vision.RetryAttempts)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
http_addr: ":9000"
shutdown_timeout: 5s
vision:
  provider: gemini
  model: gemini-2.0-flash
  api_key: from-file
  retry_attempts: 3
image:
  max_dimension: 512
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.HTTPAddr != ":9000" {
		t.Fatalf("unexpected http addr: %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", cfg.ShutdownTimeout)
	}
	if cfg.Vision.Provider != ProviderGemini || cfg.Vision.Model != "gemini-2.0-flash" {
		t.Fatalf("unexpected vision config: %+v", cfg.Vision)
	}
	if cfg.Vision.APIKey != "from-env" {
		t.Fatalf("expected env to override file api key, got %q", cfg.Vision.APIKey)
	}
	if cfg.Vision.MaxTokens != 500 {
		t.Fatalf("expected default max tokens to survive, got %d", cfg.Vision.MaxTokens)
	}
	if cfg.Image.MaxDimension != 512 {
		t.Fatalf("unexpected max dimension: %d", cfg.Image.MaxDimension)
	}
}

func TestLoadSelectsBaseURLByProvider(t *testing.T) {
	t.Setenv("OPENAI_BASE_URL", "http://openai.local/v1")
	t.Setenv("GEMINI_BASE_URL", "http://gemini.local")

	t.Setenv("VISION_PROVIDER", "openai")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.Vision.BaseURL != "http://openai.local/v1" {
		t.Fatalf("unexpected openai base url: %q", cfg.Vision.BaseURL)
	}

	t.Setenv("VISION_PROVIDER", "Gemini")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if cfg.Vision.BaseURL != "http://gemini.local" {
		t.Fatalf("unexpected gemini base url: %q", cfg.Vision.BaseURL)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("VISION_RETRY_ATTEMPTS", "many")
	if _, err := Load(""); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := Default()
	base.Vision.APIKey = "key"

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing key", mutate: func(c *Config) { c.Vision.APIKey = " " }},
		{name: "unknown provider", mutate: func(c *Config) { c.Vision.Provider = "llava" }},
		{name: "zero tokens", mutate: func(c *Config) { c.Vision.MaxTokens = 0 }},
		{name: "zero attempts", mutate: func(c *Config) { c.Vision.RetryAttempts = 0 }},
		{name: "negative timeout", mutate: func(c *Config) { c.Vision.Timeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
