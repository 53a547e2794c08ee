package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	if yaml != "" {
		path := filepath.Join(t.TempDir(), "cold-mailer.yaml")
		if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
			t.Fatalf("write config: %v", err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			t.Fatalf("read config: %v", err)
		}
	}

	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LLM.Provider != "groq" {
		t.Fatalf("expected groq provider, got %q", cfg.LLM.Provider)
	}
	if cfg.Portfolio.Dir != "vectorstore" || cfg.Portfolio.Collection != "portfolio" || cfg.Portfolio.Embedder != EmbedderHash {
		t.Fatalf("unexpected portfolio defaults: %+v", cfg.Portfolio)
	}
	if cfg.Timeouts.Fetch != 30*time.Second || cfg.Timeouts.Browser != time.Minute || cfg.Timeouts.LLM != 2*time.Minute {
		t.Fatalf("unexpected timeouts: %+v", cfg.Timeouts)
	}
	if cfg.Pipeline.IsolateJobFailures {
		t.Fatalf("job failure isolation must be off by default")
	}
	if cfg.APIKeyEnv() != "GROQ_API_KEY" {
		t.Fatalf("unexpected key env %q", cfg.APIKeyEnv())
	}
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := Load(newViper(t, `
llm:
  provider: Gemini
  model: gemini-2.5-pro
portfolio:
  embedder: gemini
timeouts:
  llm: 45s
pipeline:
  isolate-job-failures: true
persona:
  name: Sam
  email: sam@example.com
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.LLM.Provider != "gemini" || cfg.LLM.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.Timeouts.LLM != 45*time.Second {
		t.Fatalf("expected 45s llm timeout, got %v", cfg.Timeouts.LLM)
	}
	if !cfg.Pipeline.IsolateJobFailures {
		t.Fatalf("expected isolation enabled")
	}
	if cfg.Persona.Name != "Sam" || cfg.Persona.Company == "" {
		t.Fatalf("expected file persona merged with defaults, got %+v", cfg.Persona)
	}
	if cfg.APIKeyEnv() != "GEMINI_API_KEY" {
		t.Fatalf("unexpected key env %q", cfg.APIKeyEnv())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("COLD_MAILER_PORTFOLIO_DIR", "/tmp/index")
	t.Setenv("COLD_MAILER_TIMEOUTS_FETCH", "5s")

	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Portfolio.Dir != "/tmp/index" || cfg.Timeouts.Fetch != 5*time.Second {
		t.Fatalf("env overrides not applied: %+v %+v", cfg.Portfolio, cfg.Timeouts)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		key  string
	}{
		{name: "unknown provider", yaml: "llm:\n  provider: openai\n", key: "Provider"},
		{name: "unknown embedder", yaml: "portfolio:\n  embedder: chroma\n", key: "Embedder"},
		{name: "non positive timeout", yaml: "timeouts:\n  llm: 0s\n", key: "LLM"},
		{name: "bad email", yaml: "persona:\n  email: not-an-email\n", key: "Email"},
		{name: "bad base url", yaml: "llm:\n  base-url: not a url\n", key: "BaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.yaml))

			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
			if !strings.HasSuffix(cfgErr.Key, tt.key) {
				t.Fatalf("expected key ending in %q, got %q", tt.key, cfgErr.Key)
			}
		})
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load(newViper(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	_, err = cfg.ResolveAPIKey()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError for missing key, got %v", err)
	}
	if !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("expected hint about GROQ_API_KEY, got %v", err)
	}

	t.Setenv("GROQ_API_KEY", "gsk-test")
	key, err := cfg.ResolveAPIKey()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if key != "gsk-test" {
		t.Fatalf("unexpected key %q", key)
	}
}
